package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TzLessDateTime is the wall-clock timestamp layout used throughout the
// booking engine. Timestamps are timezone-naive: two instants compare by
// their literal wall-clock value, and the textual form orders
// lexicographically the same way it orders chronologically.
const TzLessDateTime = "2006-01-02 15:04:05"

// ErrInvalidInterval flags a candidate interval that fails validation.
var ErrInvalidInterval = errors.New("scheduling: invalid interval")

// BookingKind classifies a scheduled event for display purposes. The kind
// never affects overlap semantics.
type BookingKind string

const (
	BookingKindMaintenance    BookingKind = "MAINTENANCE"
	BookingKindShutdown       BookingKind = "SHUTDOWN"
	BookingKindUserOperations BookingKind = "USER_OPERATIONS"
	// BookingKindEquipment marks events occupying an equipment unit. The
	// query projection also applies it to instrument events surfaced through
	// an equipment assignment.
	BookingKindEquipment BookingKind = "EQUIPMENT"
)

// ParseBookingKind maps a textual tag onto the closed kind enumeration.
func ParseBookingKind(value string) (BookingKind, error) {
	switch BookingKind(strings.ToUpper(strings.TrimSpace(value))) {
	case BookingKindMaintenance:
		return BookingKindMaintenance, nil
	case BookingKindShutdown:
		return BookingKindShutdown, nil
	case BookingKindUserOperations:
		return BookingKindUserOperations, nil
	case BookingKindEquipment:
		return BookingKindEquipment, nil
	}
	return "", fmt.Errorf("%w: unknown booking kind %q", ErrInvalidInterval, value)
}

// Interval is the conflict-checking identity of a scheduled event: the
// half-open time range [Start, End) it occupies on a single resource.
type Interval struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
}

// Validate reports whether the interval is admissible as a candidate.
// Zero-length and inverted ranges are rejected, as are intervals without a
// resource or with missing timestamps.
func (iv Interval) Validate() error {
	if strings.TrimSpace(iv.ResourceID) == "" {
		return fmt.Errorf("%w: resource id is required", ErrInvalidInterval)
	}
	if iv.Start.IsZero() {
		return fmt.Errorf("%w: starts_at is required", ErrInvalidInterval)
	}
	if iv.End.IsZero() {
		return fmt.Errorf("%w: ends_at is required", ErrInvalidInterval)
	}
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: starts_at must be before ends_at", ErrInvalidInterval)
	}
	return nil
}

// ParseTzLess parses a timezone-naive timestamp in the TzLessDateTime layout.
func ParseTzLess(value string) (time.Time, error) {
	ts, err := time.Parse(TzLessDateTime, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidInterval, value)
	}
	return ts, nil
}

// FormatTzLess renders a timestamp in the TzLessDateTime layout.
func FormatTzLess(ts time.Time) string {
	return ts.Format(TzLessDateTime)
}
