// Package clock provides a time source that tests can replace.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant until moved.
type FixedClock struct {
	CurrentTime time.Time
}

var _ Clock = (*FixedClock)(nil)

func NewFixed(t time.Time) *FixedClock {
	return &FixedClock{CurrentTime: t}
}

func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
