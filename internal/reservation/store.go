// internal/reservation/store.go
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lendhall/internal/catalog"
	"lendhall/pkg/eventstore"
)

// Tx is the view of storage inside one atomic unit of work. Every write
// staged through a Tx commits together or not at all.
type Tx interface {
	// Reservation loads a reservation, ErrNotFound when absent.
	Reservation(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// SaveReservation inserts r when r.Version == 0, otherwise performs a
	// version-checked update. A lost version race yields ErrConflict.
	SaveReservation(ctx context.Context, r *Reservation) error
	// DeleteReservation removes a reservation, ErrNotFound when absent.
	DeleteReservation(ctx context.Context, id uuid.UUID) error

	// Item loads a catalog item, ErrNotFound when absent.
	Item(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	// SaveItem performs a version-checked update of an existing item.
	SaveItem(ctx context.Context, it *catalog.Item) error

	// Record stages a domain event in the same unit of work.
	Record(ctx context.Context, ev eventstore.Event) error
}

// ListFilter narrows a reservation listing. Nil fields match everything.
type ListFilter struct {
	MemberID *uuid.UUID
	ItemID   *uuid.UUID
	State    *State
}

// Store is the persistence collaborator of the lifecycle manager.
type Store interface {
	// Atomically runs fn inside one unit of work. Returning an error
	// discards every staged write. Units of work touching the same item
	// serialize: concurrent conflicting commits surface as ErrConflict.
	Atomically(ctx context.Context, fn func(tx Tx) error) error

	// List returns reservations matching the filter, most recently
	// requested first.
	List(ctx context.Context, f ListFilter) ([]*Reservation, error)

	// ListOverdue returns unreturned reservations whose due date has
	// passed as of the given instant.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Reservation, error)

	// ActiveCount reports how many ACTIVE reservations reference the item.
	ActiveCount(ctx context.Context, itemID uuid.UUID) (int, error)
}

// RoleResolver supplies the identity and role of the calling actor. It is
// backed by the member directory.
type RoleResolver interface {
	Resolve(ctx context.Context, memberID uuid.UUID) (Actor, error)
}
