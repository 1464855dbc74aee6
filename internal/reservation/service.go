// internal/reservation/service.go
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for the reservation lifecycle manager.
type Service interface {
	Create(ctx context.Context, actorID, itemID uuid.UUID, dueBy time.Time) (*View, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*View, error)
	Transition(ctx context.Context, actorID, id uuid.UUID, target State, returnedAt *time.Time) (*View, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	List(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]*View, error)
	ListOverdue(ctx context.Context, actorID uuid.UUID) ([]*View, error)
}
