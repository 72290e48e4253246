package persistence

import (
	"time"

	"github.com/example/facility-scheduler/internal/scheduling"
)

// ScheduledEvent is the durable record of one admitted interval on a
// resource. ResourceID, Start, and End form its conflict-checking identity;
// they never change after admission. Edits go through the replace flow.
type ScheduledEvent struct {
	ID          string
	ResourceID  string
	BookingKind scheduling.BookingKind
	Start       time.Time
	End         time.Time
	OwnerID     string
	Description *string
	// BookingID is a weak reference to a higher-level proposal booking.
	// Lookup only; the referenced record may be deleted independently.
	BookingID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval projects the event onto its conflict-checking identity.
func (e ScheduledEvent) Interval() scheduling.Interval {
	return scheduling.Interval{
		ID:         e.ID,
		ResourceID: e.ResourceID,
		Start:      e.Start,
		End:        e.End,
	}
}

// Equipment is a catalog entry for a bookable equipment unit. The booking
// engine treats its id as an opaque resource key; the name feeds the
// read-time equipment projection.
type Equipment struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventWindow bounds a query to events intersecting [Start, End). A nil
// bound leaves that side unbounded.
type EventWindow struct {
	Start *time.Time
	End   *time.Time
}

// EventFilter narrows scheduled event listings.
type EventFilter struct {
	ResourceID string
	Window     EventWindow
}
