// Package recurrence expands recurring booking templates into concrete
// windows. A facility uses it for standing reservations such as weekly
// calibration runs or nightly shutdown windows; every expanded window is
// still admitted individually, so a series never bypasses conflict
// detection.
package recurrence

import (
	"errors"
	"time"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates a window for each day within the range.
	FrequencyDaily
	// FrequencyWeekly generates windows for the selected weekdays.
	FrequencyWeekly
)

// ParseFrequency maps the wire names onto Frequency values.
func ParseFrequency(value string) (Frequency, error) {
	switch value {
	case "DAILY":
		return FrequencyDaily, nil
	case "WEEKLY":
		return FrequencyWeekly, nil
	}
	return FrequencyUnspecified, ErrInvalidFrequency
}

// ParseWeekday maps the wire names onto time.Weekday values.
func ParseWeekday(value string) (time.Weekday, error) {
	switch value {
	case "SUNDAY":
		return time.Sunday, nil
	case "MONDAY":
		return time.Monday, nil
	case "TUESDAY":
		return time.Tuesday, nil
	case "WEDNESDAY":
		return time.Wednesday, nil
	case "THURSDAY":
		return time.Thursday, nil
	case "FRIDAY":
		return time.Friday, nil
	case "SATURDAY":
		return time.Saturday, nil
	}
	return time.Sunday, ErrInvalidWeekday
}

// Rule describes how a booking template repeats. Until bounds the last
// window start (inclusive); all timestamps are timezone-naive wall clock
// values, matching the rest of the booking engine.
type Rule struct {
	Frequency Frequency
	Weekdays  []time.Weekday
	Until     time.Time
}

// Window is one expanded occurrence of the template.
type Window struct {
	Start time.Time
	End   time.Time
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidWeekday indicates a weekday name is not recognised.
	ErrInvalidWeekday = errors.New("recurrence: invalid weekday")
	// ErrInvalidDuration indicates the template duration is not positive.
	ErrInvalidDuration = errors.New("recurrence: template duration must be positive")
	// ErrUnboundedSeries indicates the rule carries no end date.
	ErrUnboundedSeries = errors.New("recurrence: rule requires an until date")
	// ErrSeriesTooLong indicates the expansion exceeds the occurrence cap.
	ErrSeriesTooLong = errors.New("recurrence: series exceeds the occurrence limit")
)

// maxOccurrences bounds a single expansion to roughly a year of daily
// windows. Longer series must be split into multiple proposals.
const maxOccurrences = 366

// Expand generates the concrete windows a template produces under the rule.
// The template's own window is the first candidate; subsequent candidates
// fall on following days at the same wall clock time, filtered by the rule's
// frequency and weekday selection.
func Expand(templateStart, templateEnd time.Time, rule Rule) ([]Window, error) {
	if !templateEnd.After(templateStart) {
		return nil, ErrInvalidDuration
	}
	if rule.Until.IsZero() {
		return nil, ErrUnboundedSeries
	}
	if rule.Frequency != FrequencyDaily && rule.Frequency != FrequencyWeekly {
		return nil, ErrInvalidFrequency
	}

	duration := templateEnd.Sub(templateStart)

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	var windows []Window
	for current := templateStart; !current.After(rule.Until); current = current.AddDate(0, 0, 1) {
		if !includes(rule.Frequency, weekdaySet, current.Weekday()) {
			continue
		}
		if len(windows) == maxOccurrences {
			return nil, ErrSeriesTooLong
		}
		windows = append(windows, Window{Start: current, End: current.Add(duration)})
	}

	return windows, nil
}

func includes(freq Frequency, weekdaySet map[time.Weekday]struct{}, day time.Weekday) bool {
	if freq == FrequencyDaily && len(weekdaySet) == 0 {
		return true
	}
	_, ok := weekdaySet[day]
	return ok
}
