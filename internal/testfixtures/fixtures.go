package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

var (
	eventCounter     uint64
	equipmentCounter uint64
)

var referenceTime = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture represents a deterministic scheduled event that can be
// materialised for application or persistence tests. Consecutive fixtures
// occupy adjacent one-hour windows on the same resource, so a fresh sequence
// is admissible as a whole.
type EventFixture struct {
	ID          string
	ResourceID  string
	BookingKind scheduling.BookingKind
	Start       time.Time
	End         time.Time
	OwnerID     string
	Description *string
	BookingID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional
// overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := EventFixture{
		ID:          fmt.Sprintf("event-%03d", idx),
		ResourceID:  "instrument-001",
		BookingKind: scheduling.BookingKindUserOperations,
		Start:       start,
		End:         start.Add(time.Hour),
		OwnerID:     fmt.Sprintf("operator-%03d", idx),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventResource sets the resource the event occupies.
func WithEventResource(resourceID string) EventOption {
	return func(f *EventFixture) {
		f.ResourceID = resourceID
	}
}

// WithEventKind sets the booking kind.
func WithEventKind(kind scheduling.BookingKind) EventOption {
	return func(f *EventFixture) {
		f.BookingKind = kind
	}
}

// WithEventInterval sets the start and end times.
func WithEventInterval(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventOwner sets the operator that owns the event.
func WithEventOwner(ownerID string) EventOption {
	return func(f *EventFixture) {
		f.OwnerID = ownerID
	}
}

// WithEventDescription sets the free-text description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) {
		value := description
		f.Description = &value
	}
}

// WithEventBookingID sets the weak booking reference.
func WithEventBookingID(bookingID string) EventOption {
	return func(f *EventFixture) {
		value := bookingID
		f.BookingID = &value
	}
}

// WithEventTimestamps sets both created and updated timestamps.
func WithEventTimestamps(created, updated time.Time) EventOption {
	return func(f *EventFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.ScheduledEvent value.
func (f EventFixture) Persistence() persistence.ScheduledEvent {
	return persistence.ScheduledEvent{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		BookingKind: f.BookingKind,
		Start:       f.Start,
		End:         f.End,
		OwnerID:     f.OwnerID,
		Description: copyStringPtr(f.Description),
		BookingID:   copyStringPtr(f.BookingID),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EventInput.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		ResourceID:  f.ResourceID,
		BookingKind: string(f.BookingKind),
		Start:       f.Start,
		End:         f.End,
		Description: copyStringPtr(f.Description),
		BookingID:   copyStringPtr(f.BookingID),
	}
}

// ProposeParams returns the fixture as application.ProposeEventParams on
// behalf of its owner.
func (f EventFixture) ProposeParams() application.ProposeEventParams {
	return application.ProposeEventParams{
		Principal: application.Principal{Operator: f.OwnerID},
		Input:     f.Input(),
	}
}

// --------------------------- Equipment fixtures ---------------------------

// EquipmentFixture represents a deterministic equipment catalog entry.
type EquipmentFixture struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EquipmentOption configures the generated equipment fixture.
type EquipmentOption func(*EquipmentFixture)

// NewEquipmentFixture returns a deterministic equipment fixture with optional
// overrides.
func NewEquipmentFixture(opts ...EquipmentOption) EquipmentFixture {
	idx := atomic.AddUint64(&equipmentCounter, 1)
	fixture := EquipmentFixture{
		ID:        fmt.Sprintf("equipment-%03d", idx),
		Name:      fmt.Sprintf("Equipment %03d", idx),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEquipmentID overrides the generated equipment ID.
func WithEquipmentID(id string) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.ID = id
	}
}

// WithEquipmentName overrides the generated equipment name.
func WithEquipmentName(name string) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.Name = name
	}
}

// WithEquipmentTimestamps sets both created and updated timestamps.
func WithEquipmentTimestamps(created, updated time.Time) EquipmentOption {
	return func(f *EquipmentFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Equipment value.
func (f EquipmentFixture) Persistence() persistence.Equipment {
	return persistence.Equipment{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EquipmentInput.
func (f EquipmentFixture) Input() application.EquipmentInput {
	return application.EquipmentInput{Name: f.Name}
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
