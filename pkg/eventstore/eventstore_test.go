package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to a PostgreSQL database for testing and skips the
// test when no database is reachable.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		get("PGHOST", "localhost"),
		get("PGPORT", "5432"),
		get("PGUSER", "user"),
		get("PGPASSWORD", "password"),
		get("PGDATABASE", "testdb"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			aggregate_id UUID NOT NULL,
			aggregate_type TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_data JSONB NOT NULL,
			version INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (aggregate_id, version)
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestNewMarshalsPayload(t *testing.T) {
	id := uuid.New()
	ev, err := New(id, "reservation", "ReservationCreated", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, id, ev.AggregateID)
	assert.Equal(t, "ReservationCreated", ev.EventType)
	assert.JSONEq(t, `{"k":"v"}`, string(ev.EventData))
}

func TestAppendEventsRejectsNegativeVersion(t *testing.T) {
	es := NewEventStore(nil)
	err := es.AppendEvents(context.Background(), uuid.New(), "item", -1, nil)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestAppendAndStream(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	es := NewEventStore(db)
	ctx := context.Background()
	aggregateID := uuid.New()

	first := Event{EventType: "ReservationCreated", EventData: json.RawMessage(`{"n":1}`)}
	second := Event{EventType: "ReservationTransitioned", EventData: json.RawMessage(`{"n":2}`)}

	require.NoError(t, es.AppendEvents(ctx, aggregateID, "reservation", 0, []Event{first}))
	require.NoError(t, es.AppendEvents(ctx, aggregateID, "reservation", 1, []Event{second}))

	version, err := es.GetCurrentVersion(ctx, aggregateID)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	// stale expected version loses
	err = es.AppendEvents(ctx, aggregateID, "reservation", 1, []Event{second})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	events, err := es.StreamEvents(ctx, 0, 1000)
	require.NoError(t, err)

	var mine []Event
	for _, ev := range events {
		if ev.AggregateID == aggregateID {
			mine = append(mine, ev)
		}
	}
	require.Len(t, mine, 2)
	assert.Equal(t, "ReservationCreated", mine[0].EventType)
	assert.Equal(t, 1, mine[0].Version)
	assert.Equal(t, "ReservationTransitioned", mine[1].EventType)
	assert.Equal(t, 2, mine[1].Version)
}

func TestInsertEventDuplicateVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	aggregateID := uuid.New()
	data := json.RawMessage(`{}`)

	require.NoError(t, InsertEvent(ctx, db, aggregateID, "reservation", "ReservationCreated", data, 1))
	err := InsertEvent(ctx, db, aggregateID, "reservation", "ReservationCreated", data, 1)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}
