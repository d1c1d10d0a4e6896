package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	location   TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_location_time ON snapshots(location, updated_at);
`

// SQLiteStore persists dashboard snapshots as JSON rows so they survive restarts.
// Retention limits follow MemoryStore and are applied on every Save.
type SQLiteStore struct {
	db *sql.DB

	maxHistory int           // max number of snapshots per location (0 = unlimited)
	maxAge     time.Duration // max age of snapshots (0 = unlimited)
	clock      clockwork.Clock
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database. Retention limits follow
// NewMemoryStore; a nil clock uses wall time.
func OpenSQLite(path string, maxHistory int, maxAge time.Duration, clock clockwork.Clock) (*SQLiteStore, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, maxHistory: maxHistory, maxAge: maxAge, clock: clock}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts the snapshot and enforces retention for its location in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, key string, d weather.Dashboard) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots(id, location, updated_at, payload) VALUES(?,?,?,?)`,
		d.ID, key, d.UpdatedAt.UnixNano(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	// Enforce retention by count.
	if s.maxHistory > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM snapshots WHERE location = ? AND id NOT IN (
				SELECT id FROM snapshots WHERE location = ? ORDER BY updated_at DESC LIMIT ?
			)`, key, key, s.maxHistory)
		if err != nil {
			return fmt.Errorf("trim snapshot history: %w", err)
		}
	}

	// Enforce retention by age across all locations, so queries that are
	// never refreshed again still expire.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE updated_at < ?`, cutoff.UnixNano()); err != nil {
			return fmt.Errorf("expire snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, key string) (weather.Dashboard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE location = ? ORDER BY updated_at DESC LIMIT 1`, key)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weather.Dashboard{}, ErrNotFound
		}
		return weather.Dashboard{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	return decodeSnapshot(payload)
}

// Range returns snapshots between from and to (inclusive), oldest first.
// A zero to means no upper bound.
func (s *SQLiteStore) Range(ctx context.Context, key string, from, to time.Time) ([]weather.Dashboard, error) {
	upper := int64(1<<63 - 1)
	if !to.IsZero() {
		upper = to.UnixNano()
	}
	lower := int64(0)
	if !from.IsZero() {
		lower = from.UnixNano()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM snapshots WHERE location = ? AND updated_at >= ? AND updated_at <= ? ORDER BY updated_at`,
		key, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []weather.Dashboard
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		d, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func decodeSnapshot(payload string) (weather.Dashboard, error) {
	var d weather.Dashboard
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return weather.Dashboard{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return d, nil
}

var _ weather.SnapshotStore = (*SQLiteStore)(nil)
