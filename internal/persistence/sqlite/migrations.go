package sqlite

import (
	"context"
	"fmt"
)

// Event times are stored as timezone-naive TEXT in the scheduling layout so
// that lexicographic ordering matches chronological ordering. The composite
// index on (resource_id, starts_at) keeps the admission scan bounded to the
// candidate's own window.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS scheduled_events (
	id TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	booking_kind TEXT NOT NULL,
	starts_at TEXT NOT NULL,
	ends_at TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	description TEXT,
	booking_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (starts_at < ends_at)
);

CREATE INDEX IF NOT EXISTS idx_scheduled_events_resource_start
	ON scheduled_events(resource_id, starts_at);

CREATE TABLE IF NOT EXISTS equipment (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equipment_assignments (
	scheduled_event_id TEXT NOT NULL REFERENCES scheduled_events(id) ON DELETE CASCADE,
	equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
	PRIMARY KEY (scheduled_event_id, equipment_id)
);

CREATE INDEX IF NOT EXISTS idx_equipment_assignments_equipment
	ON equipment_assignments(equipment_id);
`

// Migrate applies the booking engine schema. Statements are idempotent, so
// running it on every start is safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}
	return nil
}
