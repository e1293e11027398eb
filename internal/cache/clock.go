package cache

import "time"

// Clock supplies the current instant for TTL checks.
//
// The cache never reads the wall clock directly; injecting a Clock keeps
// freshness windows testable without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
