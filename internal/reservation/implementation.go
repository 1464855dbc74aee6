// internal/reservation/implementation.go
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lendhall/internal/catalog"
	"lendhall/pkg/eventstore"
)

// maxAttempts bounds how often a unit of work is retried after losing an
// optimistic write race before ErrConflict reaches the caller.
const maxAttempts = 3

const aggregateType = "reservation"

// service implements the Service interface.
type service struct {
	store  Store
	roles  RoleResolver
	tracer trace.Tracer
}

// NewService creates the reservation lifecycle manager.
func NewService(store Store, roles RoleResolver) Service {
	return &service{
		store:  store,
		roles:  roles,
		tracer: otel.Tracer("lendhall/reservation"),
	}
}

// Create registers a new PENDING reservation for the acting member.
// Creation never touches inventory; a copy is committed only when the
// reservation is activated.
func (s *service) Create(ctx context.Context, actorID, itemID uuid.UUID, dueBy time.Time) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.create",
		trace.WithAttributes(attribute.String("item.id", itemID.String())),
	)
	defer span.End()

	now := time.Now().UTC()
	if !dueBy.After(now) {
		return nil, fmt.Errorf("%w: due date must be in the future", ErrValidation)
	}

	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}

	r := &Reservation{
		ID:          uuid.New(),
		MemberID:    actor.ID,
		ItemID:      itemID,
		State:       StatePending,
		RequestedAt: now,
		DueBy:       dueBy,
	}

	err = s.atomically(ctx, func(tx Tx) error {
		item, err := tx.Item(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Retired {
			return fmt.Errorf("%w: item is retired", ErrNotFound)
		}

		r.Version = 0
		if err := tx.SaveReservation(ctx, r); err != nil {
			return err
		}
		return s.record(ctx, tx, r, "ReservationCreated", ReservationCreatedEvent{
			ID:       r.ID,
			MemberID: r.MemberID,
			ItemID:   r.ItemID,
			DueBy:    r.DueBy,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("reservation_id", r.ID.String()).
		Str("item_id", itemID.String()).
		Msg("reservation created")
	return ViewOf(r, now), nil
}

// Get returns a single reservation, subject to the read policy.
func (s *service) Get(ctx context.Context, actorID, id uuid.UUID) (*View, error) {
	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}

	var r *Reservation
	err = s.store.Atomically(ctx, func(tx Tx) error {
		r, err = tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		return AuthorizeRead(actor, r)
	})
	if err != nil {
		return nil, err
	}
	return ViewOf(r, time.Now().UTC()), nil
}

// Transition moves a reservation along one edge of the state machine and
// applies the matching inventory effect in the same unit of work.
func (s *service) Transition(ctx context.Context, actorID, id uuid.UUID, target State, returnedAt *time.Time) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.transition",
		trace.WithAttributes(
			attribute.String("reservation.id", id.String()),
			attribute.String("target.state", string(target)),
		),
	)
	defer span.End()

	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}

	now := time.Now().UTC()
	var r *Reservation
	err = s.atomically(ctx, func(tx Tx) error {
		r, err = tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if err := AuthorizeTransition(actor, r, target); err != nil {
			return err
		}
		// The policy gates authorization only; legality of the edge,
		// including terminal states and unknown targets, is decided here.
		if !CanTransition(r.State, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, target)
		}

		from := r.State
		itemTouched := false
		item, err := tx.Item(ctx, r.ItemID)
		if err != nil {
			return err
		}

		switch {
		case from == StatePending && target == StateActive:
			if err := catalog.TakeCopy(item); err != nil {
				return err
			}
			itemTouched = true
		case from == StateActive:
			// Completion and cancellation both release the held copy.
			catalog.ReturnCopy(item)
			itemTouched = true
		}

		r.State = target
		if target == StateCompleted {
			when := now
			if returnedAt != nil {
				when = returnedAt.UTC()
			}
			r.ReturnedAt = &when
		}

		if err := tx.SaveReservation(ctx, r); err != nil {
			return err
		}
		if itemTouched {
			if err := tx.SaveItem(ctx, item); err != nil {
				return err
			}
		}
		return s.record(ctx, tx, r, "ReservationTransitioned", ReservationTransitionedEvent{
			ID:         r.ID,
			ItemID:     r.ItemID,
			From:       from,
			To:         target,
			ReturnedAt: r.ReturnedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("reservation_id", r.ID.String()).
		Str("state", string(r.State)).
		Msg("reservation transitioned")
	return ViewOf(r, now), nil
}

// Delete permanently removes a reservation. Deleting an ACTIVE reservation
// releases the copy it holds before the record goes away.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "reservation.delete",
		trace.WithAttributes(attribute.String("reservation.id", id.String())),
	)
	defer span.End()

	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return fmt.Errorf("resolve actor: %w", err)
	}
	if err := AuthorizeDelete(actor); err != nil {
		return err
	}

	err = s.atomically(ctx, func(tx Tx) error {
		r, err := tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if r.State == StateActive {
			item, err := tx.Item(ctx, r.ItemID)
			if err != nil {
				return err
			}
			catalog.ReturnCopy(item)
			if err := tx.SaveItem(ctx, item); err != nil {
				return err
			}
		}
		// Deletion appends one final event past the record's last version.
		r.Version++
		if err := s.record(ctx, tx, r, "ReservationDeleted", ReservationDeletedEvent{
			ID:     r.ID,
			ItemID: r.ItemID,
			State:  r.State,
		}); err != nil {
			return err
		}
		return tx.DeleteReservation(ctx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("reservation_id", id.String()).Msg("reservation deleted")
	return nil
}

// List returns reservations visible to the actor. Non-staff actors always
// see their own reservations, whatever the filter says.
func (s *service) List(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]*View, error) {
	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	if !actor.Role.Staff() {
		own := actor.ID
		f.MemberID = &own
	}

	rs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return viewsOf(rs), nil
}

// ListOverdue returns every unreturned reservation past its due date.
// Staff only.
func (s *service) ListOverdue(ctx context.Context, actorID uuid.UUID) ([]*View, error) {
	actor, err := s.roles.Resolve(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	if !actor.Role.Staff() {
		return nil, ErrForbidden
	}

	rs, err := s.store.ListOverdue(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return viewsOf(rs), nil
}

// atomically runs one unit of work, retrying a bounded number of times
// when an optimistic write loses its race.
func (s *service) atomically(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.store.Atomically(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		log.Debug().Int("attempt", attempt).Msg("unit of work lost version race, retrying")
	}
	return err
}

// record stages a reservation domain event inside the unit of work, keyed
// to the reservation's post-save version.
func (s *service) record(ctx context.Context, tx Tx, r *Reservation, eventType string, payload any) error {
	ev, err := eventstore.New(r.ID, aggregateType, eventType, payload)
	if err != nil {
		return err
	}
	ev.Version = r.Version
	return tx.Record(ctx, ev)
}

func viewsOf(rs []*Reservation) []*View {
	now := time.Now().UTC()
	views := make([]*View, 0, len(rs))
	for _, r := range rs {
		views = append(views, ViewOf(r, now))
	}
	return views
}
