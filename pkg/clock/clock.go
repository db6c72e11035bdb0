// Package clock provides an injectable time source so services that
// compare against "now" stay deterministic under test.
package clock

import "time"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now
type System struct{}

// Now returns the current wall-clock time
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock pinned to a single instant, for tests
type Fixed struct {
	Time time.Time
}

// Now returns the pinned instant
func (f Fixed) Now() time.Time {
	return f.Time
}
