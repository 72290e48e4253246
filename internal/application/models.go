package application

import (
	"time"

	"github.com/example/facility-scheduler/internal/scheduling"
)

// Principal represents the authenticated operator invoking a service method.
type Principal struct {
	Operator string
}

// EventInput captures caller provided fields for a proposed event.
type EventInput struct {
	ResourceID  string
	BookingKind string
	Start       time.Time
	End         time.Time
	Description *string
	BookingID   *string
}

// Event represents a scheduled event as surfaced to callers. Entries sourced
// from equipment assignments carry the equipment booking kind and the
// equipment name as description.
type Event struct {
	ID          string
	ResourceID  string
	BookingKind scheduling.BookingKind
	Start       time.Time
	End         time.Time
	OwnerID     string
	Description *string
	BookingID   *string
	EquipmentID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProposeEventParams wraps the data required to propose a booking. A
// non-empty Replaces atomically supersedes that event when the proposal is
// admitted.
type ProposeEventParams struct {
	Principal Principal
	Input     EventInput
	Replaces  string
}

// QueryEventsParams wraps the data required for a calendar query.
type QueryEventsParams struct {
	Principal    Principal
	ResourceID   string
	StartsAfter  *time.Time
	EndsBefore   *time.Time
	EquipmentIDs []string
}

// EquipmentInput captures caller provided equipment fields.
type EquipmentInput struct {
	Name string
}

// EquipmentItem represents an equipment unit in the catalog.
type EquipmentItem struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
