// Package testutil provides shared test doubles.
package testutil

import "time"

// ManualClock is a settable clock for TTL and expiry tests.
//
// Unlike the system clock it only moves when told to, so freshness
// windows can be crossed without sleeping.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a clock pinned to start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the pinned instant.
func (c *ManualClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Set pins the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.now = t
}
