// internal/storage/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lendhall/internal/catalog"
	"lendhall/internal/reservation"
	"lendhall/pkg/eventstore"
)

// Store is an in-process reservation.Store. Units of work serialize under
// one mutex and still enforce version checks, so conflict handling stays
// observable without a database.
type Store struct {
	mu           sync.Mutex
	items        map[uuid.UUID]catalog.Item
	reservations map[uuid.UUID]reservation.Reservation
	events       []eventstore.Event
	nextEventID  int64
}

func NewStore() *Store {
	return &Store{
		items:        make(map[uuid.UUID]catalog.Item),
		reservations: make(map[uuid.UUID]reservation.Reservation),
	}
}

// PutItem seeds or replaces a catalog item.
func (s *Store) PutItem(it catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.Version == 0 {
		it.Version = 1
	}
	s.items[it.ID] = it
}

// GetItem returns a copy of a stored item.
func (s *Store) GetItem(id uuid.UUID) (catalog.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	return it, ok
}

// GetReservation returns a copy of a stored reservation.
func (s *Store) GetReservation(id uuid.UUID) (reservation.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	return r, ok
}

// Events returns a snapshot of the recorded event log.
func (s *Store) Events() []eventstore.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eventstore.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Atomically runs fn under the store lock. Writes are staged and applied
// only when fn succeeds.
func (s *Store) Atomically(ctx context.Context, fn func(tx reservation.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		store:        s,
		items:        make(map[uuid.UUID]catalog.Item),
		reservations: make(map[uuid.UUID]reservation.Reservation),
		deleted:      make(map[uuid.UUID]bool),
	}
	if err := fn(t); err != nil {
		return err
	}
	t.apply()
	return nil
}

func (s *Store) List(ctx context.Context, f reservation.ListFilter) ([]*reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*reservation.Reservation
	for _, r := range s.reservations {
		if f.MemberID != nil && r.MemberID != *f.MemberID {
			continue
		}
		if f.ItemID != nil && r.ItemID != *f.ItemID {
			continue
		}
		if f.State != nil && r.State != *f.State {
			continue
		}
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (s *Store) ListOverdue(ctx context.Context, asOf time.Time) ([]*reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*reservation.Reservation
	for _, r := range s.reservations {
		r := r
		if r.Overdue(asOf) {
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DueBy.Before(out[j].DueBy)
	})
	return out, nil
}

func (s *Store) ActiveCount(ctx context.Context, itemID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.reservations {
		if r.ItemID == itemID && r.State == reservation.StateActive {
			n++
		}
	}
	return n, nil
}

// tx stages writes against the store. Reads see staged state first.
type tx struct {
	store        *Store
	items        map[uuid.UUID]catalog.Item
	reservations map[uuid.UUID]reservation.Reservation
	deleted      map[uuid.UUID]bool
	events       []eventstore.Event
}

func (t *tx) Reservation(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	if t.deleted[id] {
		return nil, reservation.ErrNotFound
	}
	if r, ok := t.reservations[id]; ok {
		return &r, nil
	}
	r, ok := t.store.reservations[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return &r, nil
}

func (t *tx) SaveReservation(ctx context.Context, r *reservation.Reservation) error {
	if r.Version == 0 {
		if _, exists := t.store.reservations[r.ID]; exists {
			return fmt.Errorf("%w: duplicate reservation id", reservation.ErrConflict)
		}
	} else {
		stored, ok := t.committedReservation(r.ID)
		if !ok {
			return reservation.ErrNotFound
		}
		if stored.Version != r.Version {
			return reservation.ErrConflict
		}
	}
	r.Version++
	t.reservations[r.ID] = *r
	return nil
}

func (t *tx) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	if _, err := t.Reservation(ctx, id); err != nil {
		return err
	}
	t.deleted[id] = true
	delete(t.reservations, id)
	return nil
}

func (t *tx) Item(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	if it, ok := t.items[id]; ok {
		return &it, nil
	}
	it, ok := t.store.items[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return &it, nil
}

func (t *tx) SaveItem(ctx context.Context, it *catalog.Item) error {
	stored, ok := t.committedItem(it.ID)
	if !ok {
		return reservation.ErrNotFound
	}
	if stored.Version != it.Version {
		return reservation.ErrConflict
	}
	it.Version++
	it.UpdatedAt = time.Now().UTC()
	t.items[it.ID] = *it
	return nil
}

func (t *tx) Record(ctx context.Context, ev eventstore.Event) error {
	ev.CreatedAt = time.Now().UTC()
	t.events = append(t.events, ev)
	return nil
}

func (t *tx) committedReservation(id uuid.UUID) (reservation.Reservation, bool) {
	if r, ok := t.reservations[id]; ok {
		return r, true
	}
	r, ok := t.store.reservations[id]
	return r, ok
}

func (t *tx) committedItem(id uuid.UUID) (catalog.Item, bool) {
	if it, ok := t.items[id]; ok {
		return it, true
	}
	it, ok := t.store.items[id]
	return it, ok
}

func (t *tx) apply() {
	for id, r := range t.reservations {
		t.store.reservations[id] = r
	}
	for id, it := range t.items {
		t.store.items[id] = it
	}
	for id := range t.deleted {
		delete(t.store.reservations, id)
	}
	for _, ev := range t.events {
		t.store.nextEventID++
		ev.ID = t.store.nextEventID
		t.store.events = append(t.store.events, ev)
	}
}
