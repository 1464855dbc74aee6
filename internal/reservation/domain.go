// internal/reservation/domain.go
package reservation

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a reservation.
type State string

const (
	StatePending   State = "PENDING"
	StateActive    State = "ACTIVE"
	StateCompleted State = "COMPLETED"
	StateCancelled State = "CANCELLED"
)

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateActive, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// edges is the closed transition table. Anything not listed here is an
// invalid transition, including every edge out of a terminal state.
var edges = map[State][]State{
	StatePending: {StateActive, StateCancelled},
	StateActive:  {StateCompleted, StateCancelled},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to State) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reservation is a tracked hold on one copy of a catalog item. A PENDING
// reservation holds no inventory; a copy is only committed when the
// reservation is activated.
type Reservation struct {
	ID          uuid.UUID  `json:"id"`
	MemberID    uuid.UUID  `json:"member_id"`
	ItemID      uuid.UUID  `json:"item_id"`
	State       State      `json:"state"`
	RequestedAt time.Time  `json:"requested_at"`
	DueBy       time.Time  `json:"due_by"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	Version     int        `json:"version"`
}

// Overdue reports whether the reservation is past due and unreturned as of
// now. Computed on every read, never stored.
func (r *Reservation) Overdue(now time.Time) bool {
	if r.State == StateCompleted || r.ReturnedAt != nil {
		return false
	}
	return now.After(r.DueBy)
}

// View is the reservation as returned to callers, with the derived
// overdue flag attached.
type View struct {
	Reservation
	IsOverdue bool `json:"is_overdue"`
}

// ViewOf builds the caller-facing view of r as of now.
func ViewOf(r *Reservation, now time.Time) *View {
	return &View{Reservation: *r, IsOverdue: r.Overdue(now)}
}

// ReservationCreatedEvent is published when a reservation is requested.
type ReservationCreatedEvent struct {
	ID       uuid.UUID `json:"id"`
	MemberID uuid.UUID `json:"member_id"`
	ItemID   uuid.UUID `json:"item_id"`
	DueBy    time.Time `json:"due_by"`
}

// ReservationTransitionedEvent is published when a reservation moves
// between states.
type ReservationTransitionedEvent struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"item_id"`
	From       State      `json:"from"`
	To         State      `json:"to"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// ReservationDeletedEvent is published when a reservation is removed.
type ReservationDeletedEvent struct {
	ID     uuid.UUID `json:"id"`
	ItemID uuid.UUID `json:"item_id"`
	State  State     `json:"state"`
}
