package testfixtures

import (
	"sync/atomic"
	"time"
)

// Clock is a manually driven time source for tests. The zero value is not
// usable; construct one with NewClock.
type Clock struct {
	unixNano atomic.Int64
}

// NewClock returns a clock pinned to start, or to ReferenceTime when start is
// the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	c := &Clock{}
	c.unixNano.Store(start.UnixNano())
	return c
}

// Now reports the instant the clock is currently pinned to.
func (c *Clock) Now() time.Time {
	return time.Unix(0, c.unixNano.Load()).UTC()
}

// NowFunc adapts the clock for injection as a now func. A nil clock falls
// back to the real time source.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.unixNano.Store(t.UnixNano())
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	return time.Unix(0, c.unixNano.Add(int64(d))).UTC()
}
