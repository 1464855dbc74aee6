// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the item does not exist or has been retired.
	ErrNotFound = errors.New("item not found")

	// ErrValidation means the request violates a catalog constraint.
	ErrValidation = errors.New("validation failed")

	// ErrItemInUse means the item still has active reservations and
	// cannot be retired.
	ErrItemInUse = errors.New("item has active reservations")
)

// Service defines the interface for the catalog service.
type Service interface {
	AddItem(ctx context.Context, isbn, title, author string, totalCopies int) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	UpdateCopies(ctx context.Context, id uuid.UUID, newTotal, newAvailable int) (*Item, error)
	RetireItem(ctx context.Context, id uuid.UUID) error
}
