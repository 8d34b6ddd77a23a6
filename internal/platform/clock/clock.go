// Package clock provides an injectable time source so scheduling logic can
// be tested against a fixed instant.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock frozen at a settable instant, for tests.
type Fixed struct {
	Instant time.Time
}

// NewFixed creates a Clock frozen at the given instant.
func NewFixed(instant time.Time) *Fixed {
	return &Fixed{Instant: instant}
}

// Now implements Clock.
func (f *Fixed) Now() time.Time {
	return f.Instant
}

// Advance moves the frozen clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.Instant = f.Instant.Add(d)
}
