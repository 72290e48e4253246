package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

const eventColumns = "id, resource_id, booking_kind, starts_at, ends_at, owner_id, description, booking_id, created_at, updated_at"

// EventRepository implements persistence.ScheduledEventRepository on SQLite.
//
// Admission runs under a process-level exclusive section per resource held
// for the whole check-then-insert transaction. SQLite additionally
// serializes writers, but the section is what closes the read-then-write
// window between the conflict scan and the insert while keeping admission on
// distinct resources independent at the application level.
type EventRepository struct {
	pool       *ConnectionPool
	admissions *persistence.ResourceLocks
	retry      RetryConfig
	now        func() time.Time
}

// NewEventRepository creates a SQLite scheduled event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:       pool,
		admissions: persistence.NewResourceLocks(),
		retry:      DefaultRetryConfig(),
		now:        time.Now,
	}
}

// SetRetryConfig overrides the retry policy applied to admissions.
func (r *EventRepository) SetRetryConfig(config RetryConfig) {
	r.retry = config
}

// InsertIfNonConflicting runs the admission protocol for the candidate.
func (r *EventRepository) InsertIfNonConflicting(ctx context.Context, candidate persistence.ScheduledEvent, replaces string) (persistence.ScheduledEvent, error) {
	if candidate.ID == "" {
		return persistence.ScheduledEvent{}, persistence.ErrConstraintViolation
	}
	if err := candidate.Interval().Validate(); err != nil {
		return persistence.ScheduledEvent{}, persistence.ErrConstraintViolation
	}

	lockSet := []string{candidate.ResourceID}
	if replaces != "" {
		prior, err := r.GetEvent(ctx, replaces)
		if err != nil {
			return persistence.ScheduledEvent{}, err
		}
		lockSet = append(lockSet, prior.ResourceID)
	}

	release := r.admissions.Acquire(lockSet...)
	defer release()

	now := r.now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	err := WithRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return r.admitTx(tx, candidate, replaces, lockSet)
		})
	})
	if err != nil {
		return persistence.ScheduledEvent{}, err
	}

	return candidate, nil
}

// admitTx performs the check-then-insert cycle inside one transaction, with
// the relevant resource sections already held by the caller.
func (r *EventRepository) admitTx(tx *sql.Tx, candidate persistence.ScheduledEvent, replaces string, lockSet []string) error {
	if replaces != "" {
		var priorResource string
		err := tx.QueryRow("SELECT resource_id FROM scheduled_events WHERE id = ?", replaces).Scan(&priorResource)
		if err == sql.ErrNoRows {
			return persistence.ErrNotFound
		}
		if err != nil {
			return MapError(err)
		}
		// The replaced event can only move resources through another replace,
		// which needs the section we hold. Seeing an unheld resource means
		// our pre-lock lookup raced one; the caller retries from scratch.
		if !containsResource(lockSet, priorResource) {
			return persistence.ErrUnavailable
		}
	}

	// Only rows intersecting the candidate's own window can conflict, so the
	// scan is bounded by it and served by the (resource_id, starts_at) index.
	query := `
		SELECT id, resource_id, starts_at, ends_at
		FROM scheduled_events
		WHERE resource_id = ? AND starts_at < ? AND ends_at > ?
	`
	rows, err := tx.Query(query,
		candidate.ResourceID,
		scheduling.FormatTzLess(candidate.End),
		scheduling.FormatTzLess(candidate.Start),
	)
	if err != nil {
		return MapError(err)
	}
	defer rows.Close()

	var existing []scheduling.Interval
	for rows.Next() {
		var id, resourceID, startStr, endStr string
		if err := rows.Scan(&id, &resourceID, &startStr, &endStr); err != nil {
			return MapError(err)
		}
		iv, err := scanInterval(id, resourceID, startStr, endStr)
		if err != nil {
			return err
		}
		existing = append(existing, iv)
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}

	if conflicts := scheduling.DetectConflicts(existing, candidate.Interval(), replaces); len(conflicts) > 0 {
		return persistence.ErrConflict
	}

	insert := fmt.Sprintf("INSERT INTO scheduled_events (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", eventColumns)
	_, err = tx.Exec(insert,
		candidate.ID,
		candidate.ResourceID,
		string(candidate.BookingKind),
		scheduling.FormatTzLess(candidate.Start),
		scheduling.FormatTzLess(candidate.End),
		candidate.OwnerID,
		nullString(candidate.Description),
		nullString(candidate.BookingID),
		candidate.CreatedAt.Format(time.RFC3339),
		candidate.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return MapError(err)
	}

	if replaces != "" {
		// Carry equipment assignments over to the successor before the prior
		// row (and its cascading assignments) goes away.
		if _, err := tx.Exec(
			"UPDATE equipment_assignments SET scheduled_event_id = ? WHERE scheduled_event_id = ?",
			candidate.ID, replaces,
		); err != nil {
			return MapError(err)
		}
		if _, err := tx.Exec("DELETE FROM scheduled_events WHERE id = ?", replaces); err != nil {
			return MapError(err)
		}
	}

	return nil
}

// GetEvent retrieves a scheduled event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.ScheduledEvent, error) {
	if id == "" {
		return persistence.ScheduledEvent{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM scheduled_events WHERE id = ?", eventColumns)
	event, err := scanEvent(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.ScheduledEvent{}, err
	}
	return event, nil
}

// ListEvents returns events matching the filter ordered by starts_at, id.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.ScheduledEvent, error) {
	var conditions []string
	var args []interface{}

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.Window.End != nil {
		conditions = append(conditions, "starts_at < ?")
		args = append(args, scheduling.FormatTzLess(*filter.Window.End))
	}
	if filter.Window.Start != nil {
		conditions = append(conditions, "ends_at > ?")
		args = append(args, scheduling.FormatTzLess(*filter.Window.Start))
	}

	query := fmt.Sprintf("SELECT %s FROM scheduled_events", eventColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY starts_at ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// RemoveEvent deletes an event; equipment assignments cascade.
func (r *EventRepository) RemoveEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM scheduled_events WHERE id = ?", id)
	if err != nil {
		return MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// AssignEquipment links an event to an equipment unit.
func (r *EventRepository) AssignEquipment(ctx context.Context, eventID, equipmentID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRow("SELECT 1 FROM scheduled_events WHERE id = ?", eventID).Scan(&one); err != nil {
			return MapError(err)
		}
		if err := tx.QueryRow("SELECT 1 FROM equipment WHERE id = ?", equipmentID).Scan(&one); err != nil {
			return MapError(err)
		}

		_, err := tx.Exec(
			"INSERT INTO equipment_assignments (scheduled_event_id, equipment_id) VALUES (?, ?)",
			eventID, equipmentID,
		)
		return MapError(err)
	})
}

// ReleaseEquipment severs an event/equipment link.
func (r *EventRepository) ReleaseEquipment(ctx context.Context, eventID, equipmentID string) error {
	result, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM equipment_assignments WHERE scheduled_event_id = ? AND equipment_id = ?",
		eventID, equipmentID,
	)
	if err != nil {
		return MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListEventsForEquipment returns events assigned to an equipment unit that
// intersect the window, ordered by starts_at, id.
func (r *EventRepository) ListEventsForEquipment(ctx context.Context, equipmentID string, window persistence.EventWindow) ([]persistence.ScheduledEvent, error) {
	conditions := []string{"a.equipment_id = ?"}
	args := []interface{}{equipmentID}

	if window.End != nil {
		conditions = append(conditions, "e.starts_at < ?")
		args = append(args, scheduling.FormatTzLess(*window.End))
	}
	if window.Start != nil {
		conditions = append(conditions, "e.ends_at > ?")
		args = append(args, scheduling.FormatTzLess(*window.Start))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM scheduled_events e
		JOIN equipment_assignments a ON a.scheduled_event_id = e.id
		WHERE %s
		ORDER BY e.starts_at ASC, e.id ASC
	`, prefixColumns("e"), strings.Join(conditions, " AND "))

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (persistence.ScheduledEvent, error) {
	var event persistence.ScheduledEvent
	var kind, startStr, endStr, createdStr, updatedStr string
	var description, bookingID sql.NullString

	err := row.Scan(
		&event.ID,
		&event.ResourceID,
		&kind,
		&startStr,
		&endStr,
		&event.OwnerID,
		&description,
		&bookingID,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.ScheduledEvent{}, MapError(err)
	}

	event.BookingKind = scheduling.BookingKind(kind)
	if description.Valid {
		event.Description = &description.String
	}
	if bookingID.Valid {
		event.BookingID = &bookingID.String
	}

	if event.Start, err = scheduling.ParseTzLess(startStr); err != nil {
		return persistence.ScheduledEvent{}, fmt.Errorf("failed to parse starts_at: %w", err)
	}
	if event.End, err = scheduling.ParseTzLess(endStr); err != nil {
		return persistence.ScheduledEvent{}, fmt.Errorf("failed to parse ends_at: %w", err)
	}
	if event.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.ScheduledEvent{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.ScheduledEvent{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return event, nil
}

func collectEvents(rows *sql.Rows) ([]persistence.ScheduledEvent, error) {
	var events []persistence.ScheduledEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return events, nil
}

func scanInterval(id, resourceID, startStr, endStr string) (scheduling.Interval, error) {
	start, err := scheduling.ParseTzLess(startStr)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("failed to parse starts_at: %w", err)
	}
	end, err := scheduling.ParseTzLess(endStr)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("failed to parse ends_at: %w", err)
	}
	return scheduling.Interval{ID: id, ResourceID: resourceID, Start: start, End: end}, nil
}

func prefixColumns(alias string) string {
	parts := strings.Split(eventColumns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func containsResource(lockSet []string, resourceID string) bool {
	for _, id := range lockSet {
		if id == resourceID {
			return true
		}
	}
	return false
}
