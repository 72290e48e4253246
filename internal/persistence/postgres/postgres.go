// Package postgres provides the PostgreSQL persistence backend.
//
// Admission relies on two database-side mechanisms instead of process-level
// sections: a transaction-scoped advisory lock per resource serializes the
// check-then-insert cycle across every connection and process, and a gist
// exclusion constraint on (resource_id, booking range) rejects any overlap
// that would slip past it. The constraint is the backstop; the advisory lock
// is what turns racing proposals into a clean winner/loser outcome rather
// than serialization failures.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/facility-scheduler/internal/persistence"
)

// Open connects a pgx pool to the given database URL.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid database url: %w", err)
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	return pool, nil
}

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS scheduled_events (
	id TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	booking_kind TEXT NOT NULL,
	starts_at TIMESTAMP NOT NULL,
	ends_at TIMESTAMP NOT NULL,
	owner_id TEXT NOT NULL,
	description TEXT,
	booking_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (starts_at < ends_at),
	CONSTRAINT scheduled_events_no_overlap EXCLUDE USING gist (
		resource_id WITH =,
		tsrange(starts_at, ends_at) WITH &&
	)
);

CREATE INDEX IF NOT EXISTS idx_scheduled_events_resource_start
	ON scheduled_events(resource_id, starts_at);

CREATE TABLE IF NOT EXISTS equipment (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS equipment_assignments (
	scheduled_event_id TEXT NOT NULL REFERENCES scheduled_events(id) ON DELETE CASCADE,
	equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
	PRIMARY KEY (scheduled_event_id, equipment_id)
);

CREATE INDEX IF NOT EXISTS idx_equipment_assignments_equipment
	ON equipment_assignments(equipment_id);
`

// Migrate applies the booking engine schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// lockKey derives the 64-bit advisory lock key for a resource. FNV-1a keeps
// the mapping stable across processes, which is what the advisory lock needs.
func lockKey(resourceID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(resourceID))
	return int64(h.Sum64())
}

// mapError translates pgx errors to persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01": // exclusion_violation
			return persistence.ErrConflict
		case "23505": // unique_violation
			return persistence.ErrDuplicate
		case "23503", "23514": // foreign_key_violation, check_violation
			return persistence.ErrConstraintViolation
		case "40001", "40P01", "55P03": // serialization, deadlock, lock_not_available
			return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
		}
	}

	return err
}
