package persistence

import "context"

// ScheduledEventRepository stores admitted intervals and enforces the
// per-resource non-overlap invariant.
type ScheduledEventRepository interface {
	// InsertIfNonConflicting is the only creation entry point. It runs the
	// admission protocol: an exclusive section scoped to the candidate's
	// resource, a window-bounded conflict scan, then an atomic insert. When
	// replaces names an existing event id, that event is excluded from the
	// scan and removed in the same section. Returns ErrConflict when the
	// candidate overlaps an admitted event, ErrNotFound when replaces names
	// a missing event, and ErrUnavailable for retryable store failures.
	InsertIfNonConflicting(ctx context.Context, candidate ScheduledEvent, replaces string) (ScheduledEvent, error)
	GetEvent(ctx context.Context, id string) (ScheduledEvent, error)
	// ListEvents returns events matching the filter, ordered by start time
	// ascending with ties broken by id ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]ScheduledEvent, error)
	RemoveEvent(ctx context.Context, id string) error

	// AssignEquipment links an event to an equipment unit; ReleaseEquipment
	// severs the link. ListEventsForEquipment feeds the read-time equipment
	// projection.
	AssignEquipment(ctx context.Context, eventID, equipmentID string) error
	ReleaseEquipment(ctx context.Context, eventID, equipmentID string) error
	ListEventsForEquipment(ctx context.Context, equipmentID string, window EventWindow) ([]ScheduledEvent, error)
}

// EquipmentRepository stores the equipment catalog.
type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, equipment Equipment) error
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
}
