// internal/members/service.go
package members

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no member with the given identity exists.
	ErrNotFound = errors.New("member not found")

	// ErrInvalidCredentials means authentication failed. The cause is
	// deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRateLimited means the caller exceeded the account-endpoint rate
	// limit and should back off.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Service defines the interface for the member directory.
type Service interface {
	Register(ctx context.Context, email, name, password string) (*Member, error)
	Authenticate(ctx context.Context, email, password string) (*Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)
}
