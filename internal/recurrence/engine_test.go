package recurrence

import (
	"errors"
	"testing"
	"time"
)

func date(day, hour int) time.Time {
	return time.Date(2026, 9, day, hour, 0, 0, 0, time.UTC)
}

func TestExpandDaily(t *testing.T) {
	windows, err := Expand(date(1, 9), date(1, 11), Rule{
		Frequency: FrequencyDaily,
		Until:     date(4, 0),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	for i, window := range windows {
		wantStart := date(1+i, 9)
		if !window.Start.Equal(wantStart) {
			t.Errorf("window %d: expected start %v, got %v", i, wantStart, window.Start)
		}
		if window.End.Sub(window.Start) != 2*time.Hour {
			t.Errorf("window %d: expected two hour duration, got %v", i, window.End.Sub(window.Start))
		}
	}
}

func TestExpandWeekly(t *testing.T) {
	// 2026-09-01 is a Tuesday.
	windows, err := Expand(date(1, 9), date(1, 10), Rule{
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Tuesday, time.Thursday},
		Until:     date(10, 12),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	wantDays := []int{1, 3, 8, 10}
	if len(windows) != len(wantDays) {
		t.Fatalf("expected %d windows, got %d", len(wantDays), len(windows))
	}
	for i, day := range wantDays {
		if !windows[i].Start.Equal(date(day, 9)) {
			t.Errorf("window %d: expected day %d, got %v", i, day, windows[i].Start)
		}
	}
}

func TestExpandDailyWithWeekdayFilter(t *testing.T) {
	windows, err := Expand(date(1, 9), date(1, 10), Rule{
		Frequency: FrequencyDaily,
		Weekdays:  []time.Weekday{time.Wednesday},
		Until:     date(9, 12),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected Wednesdays only, got %d windows", len(windows))
	}
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		rule    Rule
		wantErr error
	}{
		{"inverted template", date(1, 11), date(1, 9), Rule{Frequency: FrequencyDaily, Until: date(4, 0)}, ErrInvalidDuration},
		{"zero length template", date(1, 9), date(1, 9), Rule{Frequency: FrequencyDaily, Until: date(4, 0)}, ErrInvalidDuration},
		{"missing until", date(1, 9), date(1, 11), Rule{Frequency: FrequencyDaily}, ErrUnboundedSeries},
		{"unspecified frequency", date(1, 9), date(1, 11), Rule{Until: date(4, 0)}, ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Expand(tt.start, tt.end, tt.rule); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpandSeriesCap(t *testing.T) {
	_, err := Expand(date(1, 9), date(1, 10), Rule{
		Frequency: FrequencyDaily,
		Until:     time.Date(2028, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrSeriesTooLong) {
		t.Fatalf("expected ErrSeriesTooLong, got %v", err)
	}
}

func TestParseFrequency(t *testing.T) {
	if freq, err := ParseFrequency("DAILY"); err != nil || freq != FrequencyDaily {
		t.Errorf("DAILY: got %v, %v", freq, err)
	}
	if freq, err := ParseFrequency("WEEKLY"); err != nil || freq != FrequencyWeekly {
		t.Errorf("WEEKLY: got %v, %v", freq, err)
	}
	if _, err := ParseFrequency("HOURLY"); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestParseWeekday(t *testing.T) {
	names := []string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}
	for want, name := range names {
		day, err := ParseWeekday(name)
		if err != nil || day != time.Weekday(want) {
			t.Errorf("%s: got %v, %v", name, day, err)
		}
	}
	if _, err := ParseWeekday("Mon"); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("expected ErrInvalidWeekday, got %v", err)
	}
}
