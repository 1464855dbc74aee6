// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lendhall/pkg/eventstore"
)

// service implements the Service interface.
type service struct {
	eventStore *eventstore.EventStore
	db         *sql.DB
}

// NewService creates a new catalog service instance.
func NewService(es *eventstore.EventStore, db *sql.DB) Service {
	return &service{
		eventStore: es,
		db:         db,
	}
}

// AddItem creates a new item in the catalog. Every copy starts available.
func (s *service) AddItem(ctx context.Context, isbn, title, author string, totalCopies int) (*Item, error) {
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", ErrValidation)
	}
	if totalCopies < 1 {
		return nil, fmt.Errorf("%w: total copies must be at least 1", ErrValidation)
	}

	id := uuid.New()
	item := &Item{
		ID:          id,
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		TotalCopies: totalCopies,
		Available:   totalCopies,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	item.Refresh()

	ev, err := eventstore.New(id, "item", "ItemAdded", ItemAddedEvent{
		ID:          id,
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		TotalCopies: totalCopies,
	})
	if err != nil {
		return nil, err
	}
	if err := s.eventStore.AppendEvents(ctx, id, "item", 0, []eventstore.Event{ev}); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, isbn, title, author, total_copies, available, status, retired, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 1)
	`, item.ID, item.ISBN, item.Title, item.Author, item.TotalCopies, item.Available, string(item.Status))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	log.Info().Str("item_id", id.String()).Str("title", title).Msg("item added")
	return item, nil
}

// GetItem retrieves an item from the catalog by its ID.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	item := &Item{}
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, isbn, title, author, total_copies, available, status, retired, version, created_at, updated_at
		FROM items
		WHERE id = $1
	`, id).Scan(
		&item.ID,
		&item.ISBN,
		&item.Title,
		&item.Author,
		&item.TotalCopies,
		&item.Available,
		&status,
		&item.Retired,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	item.Status = Status(status)
	return item, nil
}

// UpdateCopies is the explicit catalog edit of an item's counts. The
// derived status is recomputed and the copy-count invariant enforced.
func (s *service) UpdateCopies(ctx context.Context, id uuid.UUID, newTotal, newAvailable int) (*Item, error) {
	if newTotal < 1 {
		return nil, fmt.Errorf("%w: total copies must be at least 1", ErrValidation)
	}
	if newAvailable < 0 || newAvailable > newTotal {
		return nil, fmt.Errorf("%w: available must be between 0 and total", ErrValidation)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.TotalCopies = newTotal
	item.Available = newAvailable
	item.Refresh()

	ev, err := eventstore.New(id, "item", "CopiesAdjusted", CopiesAdjustedEvent{
		ID:           id,
		NewTotal:     newTotal,
		NewAvailable: newAvailable,
		NewStatus:    item.Status,
	})
	if err != nil {
		return nil, err
	}
	ev.Version = item.Version + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE items
		SET total_copies = $1, available = $2, status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5
	`, newTotal, newAvailable, string(item.Status), id, item.Version)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		return nil, eventstore.ErrConcurrencyConflict
	}
	if err := eventstore.InsertEvent(ctx, tx, ev.AggregateID, ev.AggregateType, ev.EventType, ev.EventData, ev.Version); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	item.Version++
	log.Info().
		Str("item_id", id.String()).
		Int("total", newTotal).
		Int("available", newAvailable).
		Msg("item copies updated")
	return item, nil
}

// RetireItem removes an item from circulation. Refused while any active
// reservation still references the item.
func (s *service) RetireItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	var active int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE item_id = $1 AND state = 'ACTIVE'
	`, id).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active reservations: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: %d active", ErrItemInUse, active)
	}

	ev, err := eventstore.New(id, "item", "ItemRetired", ItemRetiredEvent{ID: id})
	if err != nil {
		return err
	}
	ev.Version = item.Version + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE items
		SET retired = TRUE, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`, id, item.Version)
	if err != nil {
		return fmt.Errorf("retire item: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return eventstore.ErrConcurrencyConflict
	}
	if err := eventstore.InsertEvent(ctx, tx, ev.AggregateID, ev.AggregateType, ev.EventType, ev.EventData, ev.Version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Info().Str("item_id", id.String()).Msg("item retired")
	return nil
}
