package postgres

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

const eventColumns = "id, resource_id, booking_kind, starts_at, ends_at, owner_id, description, booking_id, created_at, updated_at"

// EventRepository implements persistence.ScheduledEventRepository on
// PostgreSQL.
type EventRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewEventRepository creates a PostgreSQL scheduled event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool, now: time.Now}
}

// InsertIfNonConflicting runs the admission protocol for the candidate.
func (r *EventRepository) InsertIfNonConflicting(ctx context.Context, candidate persistence.ScheduledEvent, replaces string) (persistence.ScheduledEvent, error) {
	if candidate.ID == "" {
		return persistence.ScheduledEvent{}, persistence.ErrConstraintViolation
	}
	if err := candidate.Interval().Validate(); err != nil {
		return persistence.ScheduledEvent{}, persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.admitTx(ctx, tx, candidate, replaces)
	})
	if err != nil {
		return persistence.ScheduledEvent{}, mapError(err)
	}

	return candidate, nil
}

func (r *EventRepository) admitTx(ctx context.Context, tx pgx.Tx, candidate persistence.ScheduledEvent, replaces string) error {
	lockSet := []string{candidate.ResourceID}

	var priorResource string
	if replaces != "" {
		err := tx.QueryRow(ctx, "SELECT resource_id FROM scheduled_events WHERE id = $1", replaces).Scan(&priorResource)
		if errors.Is(err, pgx.ErrNoRows) {
			return persistence.ErrNotFound
		}
		if err != nil {
			return err
		}
		if priorResource != candidate.ResourceID {
			lockSet = append(lockSet, priorResource)
		}
	}

	// Advisory locks are taken in key order so concurrent cross-resource
	// replacements cannot deadlock. They release with the transaction.
	keys := make([]int64, len(lockSet))
	for i, id := range lockSet {
		keys[i] = lockKey(id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
			return err
		}
	}

	query := `
		SELECT id, resource_id, starts_at, ends_at
		FROM scheduled_events
		WHERE resource_id = $1 AND starts_at < $2 AND ends_at > $3
	`
	rows, err := tx.Query(ctx, query, candidate.ResourceID, candidate.End, candidate.Start)
	if err != nil {
		return err
	}
	defer rows.Close()

	var existing []scheduling.Interval
	for rows.Next() {
		var iv scheduling.Interval
		if err := rows.Scan(&iv.ID, &iv.ResourceID, &iv.Start, &iv.End); err != nil {
			return err
		}
		existing = append(existing, iv)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if conflicts := scheduling.DetectConflicts(existing, candidate.Interval(), replaces); len(conflicts) > 0 {
		return persistence.ErrConflict
	}

	if replaces != "" {
		// The prior row must leave before the insert or the exclusion
		// constraint would reject its own replacement. Assignments are pulled
		// aside first so the cascade does not take them.
		if _, err := tx.Exec(ctx,
			"UPDATE equipment_assignments SET scheduled_event_id = $1 WHERE scheduled_event_id = $2",
			candidate.ID, replaces,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			"DELETE FROM scheduled_events WHERE id = $1", replaces,
		); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO scheduled_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		candidate.ID,
		candidate.ResourceID,
		string(candidate.BookingKind),
		candidate.Start,
		candidate.End,
		candidate.OwnerID,
		candidate.Description,
		candidate.BookingID,
		candidate.CreatedAt,
		candidate.UpdatedAt,
	)
	return err
}

// GetEvent retrieves a scheduled event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.ScheduledEvent, error) {
	if id == "" {
		return persistence.ScheduledEvent{}, persistence.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, "SELECT "+eventColumns+" FROM scheduled_events WHERE id = $1", id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.ScheduledEvent{}, mapError(err)
	}
	return event, nil
}

// ListEvents returns events matching the filter ordered by starts_at, id.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.ScheduledEvent, error) {
	query := "SELECT " + eventColumns + " FROM scheduled_events WHERE 1=1"
	var args []any

	if filter.ResourceID != "" {
		args = append(args, filter.ResourceID)
		query += " AND resource_id = $" + strconv.Itoa(len(args))
	}
	if filter.Window.End != nil {
		args = append(args, *filter.Window.End)
		query += " AND starts_at < $" + strconv.Itoa(len(args))
	}
	if filter.Window.Start != nil {
		args = append(args, *filter.Window.Start)
		query += " AND ends_at > $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY starts_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// RemoveEvent deletes an event; equipment assignments cascade.
func (r *EventRepository) RemoveEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM scheduled_events WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// AssignEquipment links an event to an equipment unit.
func (r *EventRepository) AssignEquipment(ctx context.Context, eventID, equipmentID string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, "SELECT 1 FROM scheduled_events WHERE id = $1", eventID).Scan(&one); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, "SELECT 1 FROM equipment WHERE id = $1", equipmentID).Scan(&one); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			"INSERT INTO equipment_assignments (scheduled_event_id, equipment_id) VALUES ($1, $2)",
			eventID, equipmentID,
		)
		return err
	})
	return mapError(err)
}

// ReleaseEquipment severs an event/equipment link.
func (r *EventRepository) ReleaseEquipment(ctx context.Context, eventID, equipmentID string) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM equipment_assignments WHERE scheduled_event_id = $1 AND equipment_id = $2",
		eventID, equipmentID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListEventsForEquipment returns events assigned to an equipment unit that
// intersect the window, ordered by starts_at, id.
func (r *EventRepository) ListEventsForEquipment(ctx context.Context, equipmentID string, window persistence.EventWindow) ([]persistence.ScheduledEvent, error) {
	query := `
		SELECT e.id, e.resource_id, e.booking_kind, e.starts_at, e.ends_at, e.owner_id, e.description, e.booking_id, e.created_at, e.updated_at
		FROM scheduled_events e
		JOIN equipment_assignments a ON a.scheduled_event_id = e.id
		WHERE a.equipment_id = $1
	`
	args := []any{equipmentID}

	if window.End != nil {
		args = append(args, *window.End)
		query += " AND e.starts_at < $" + strconv.Itoa(len(args))
	}
	if window.Start != nil {
		args = append(args, *window.Start)
		query += " AND e.ends_at > $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY e.starts_at ASC, e.id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func scanEvent(row pgx.Row) (persistence.ScheduledEvent, error) {
	var event persistence.ScheduledEvent
	var kind string

	err := row.Scan(
		&event.ID,
		&event.ResourceID,
		&kind,
		&event.Start,
		&event.End,
		&event.OwnerID,
		&event.Description,
		&event.BookingID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return persistence.ScheduledEvent{}, err
	}

	event.BookingKind = scheduling.BookingKind(kind)
	return event, nil
}

func collectEvents(rows pgx.Rows) ([]persistence.ScheduledEvent, error) {
	var events []persistence.ScheduledEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, mapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}
