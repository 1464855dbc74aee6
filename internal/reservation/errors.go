// internal/reservation/errors.go
package reservation

import "errors"

var (
	// ErrNotFound means the referenced reservation or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the request itself is malformed, e.g. a due
	// date that is not in the future.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden means the actor is not authorized for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition means the requested state edge is not legal,
	// including any edge out of a terminal state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConflict means an optimistic write lost a race and the unit of
	// work should be retried.
	ErrConflict = errors.New("concurrency conflict")
)
