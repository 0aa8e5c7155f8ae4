package clock

import "time"

// Clock provides time operations that can be mocked for testing.
// Sessions lean on After for betting windows and turn deadlines, so tests
// can drive phase changes without real sleeps.
type Clock interface {
	Now() time.Time

	// After returns a channel that fires once d has elapsed
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// After wraps time.After
func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
