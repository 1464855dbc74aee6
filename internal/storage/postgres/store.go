// internal/storage/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lendhall/internal/catalog"
	"lendhall/internal/reservation"
	"lendhall/pkg/eventstore"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store is the Postgres-backed reservation.Store. Writes go through
// serializable transactions with version-checked updates; a lost race
// surfaces as reservation.ErrConflict for the lifecycle manager to retry.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Atomically(ctx context.Context, fn func(tx reservation.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{tx: sqlTx}); err != nil {
		return mapError(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

const reservationColumns = `id, member_id, item_id, state, requested_at, due_by, returned_at, version`

func (s *Store) List(ctx context.Context, f reservation.ListFilter) ([]*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	var args []any
	if f.MemberID != nil {
		args = append(args, *f.MemberID)
		query += fmt.Sprintf(" AND member_id = $%d", len(args))
	}
	if f.ItemID != nil {
		args = append(args, *f.ItemID)
		query += fmt.Sprintf(" AND item_id = $%d", len(args))
	}
	if f.State != nil {
		args = append(args, string(*f.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	query += " ORDER BY requested_at DESC"

	return s.queryReservations(ctx, query, args...)
}

func (s *Store) ListOverdue(ctx context.Context, asOf time.Time) ([]*reservation.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE state <> $1 AND returned_at IS NULL AND due_by < $2
		ORDER BY due_by ASC
	`
	return s.queryReservations(ctx, query, string(reservation.StateCompleted), asOf)
}

func (s *Store) ActiveCount(ctx context.Context, itemID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE item_id = $1 AND state = $2
	`, itemID, string(reservation.StateActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return n, nil
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...any) ([]*reservation.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

// tx implements reservation.Tx over one sql transaction.
type tx struct {
	tx *sql.Tx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var r reservation.Reservation
	var state string
	var returnedAt sql.NullTime
	err := row.Scan(&r.ID, &r.MemberID, &r.ItemID, &state, &r.RequestedAt, &r.DueBy, &returnedAt, &r.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, reservation.ErrNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	r.State = reservation.State(state)
	if returnedAt.Valid {
		t := returnedAt.Time
		r.ReturnedAt = &t
	}
	return &r, nil
}

func (t *tx) Reservation(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE id = $1
	`, id)
	return scanReservation(row)
}

func (t *tx) SaveReservation(ctx context.Context, r *reservation.Reservation) error {
	if r.Version == 0 {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO reservations (id, member_id, item_id, state, requested_at, due_by, returned_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		`, r.ID, r.MemberID, r.ItemID, string(r.State), r.RequestedAt, r.DueBy, nullTime(r.ReturnedAt))
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		r.Version = 1
		return nil
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE reservations
		SET state = $1, returned_at = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, string(r.State), nullTime(r.ReturnedAt), r.ID, r.Version)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if affected == 0 {
		return reservation.ErrConflict
	}
	r.Version++
	return nil
}

func (t *tx) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if affected == 0 {
		return reservation.ErrNotFound
	}
	return nil
}

func (t *tx) Item(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var it catalog.Item
	var status string
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, isbn, title, author, total_copies, available, status, retired, version, created_at, updated_at
		FROM items
		WHERE id = $1
	`, id).Scan(&it.ID, &it.ISBN, &it.Title, &it.Author, &it.TotalCopies, &it.Available, &status, &it.Retired, &it.Version, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, reservation.ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	it.Status = catalog.Status(status)
	return &it, nil
}

func (t *tx) SaveItem(ctx context.Context, it *catalog.Item) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE items
		SET total_copies = $1, available = $2, status = $3, retired = $4, version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
	`, it.TotalCopies, it.Available, string(it.Status), it.Retired, it.ID, it.Version)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if affected == 0 {
		return reservation.ErrConflict
	}
	it.Version++
	return nil
}

func (t *tx) Record(ctx context.Context, ev eventstore.Event) error {
	return eventstore.InsertEvent(ctx, t.tx, ev.AggregateID, ev.AggregateType, ev.EventType, ev.EventData, ev.Version)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// mapError folds driver-level collision errors into the domain conflict
// kind so the lifecycle manager can retry them uniformly.
func mapError(err error) error {
	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
		return fmt.Errorf("%w: %v", reservation.ErrConflict, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure and unique_violation both mean the unit
		// of work lost a race.
		if pqErr.Code == "40001" || pqErr.Code == "23505" {
			return fmt.Errorf("%w: %v", reservation.ErrConflict, err)
		}
	}
	return err
}
