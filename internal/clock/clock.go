package clock

import (
	"sync"
	"time"
)

// SimClock is the clinic's reference time. The engine itself never reads a
// wall clock; every request resolves its asOf either from an explicit query
// parameter or from this clock, which admins can set or advance to replay
// and rehearse schedules.
type SimClock struct {
	mu     sync.RWMutex
	now    time.Time
	frozen bool
}

// New returns a clock pinned to start. A zero start follows the wall clock
// until the first Set or Advance call freezes it.
func New(start time.Time) *SimClock {
	c := &SimClock{}
	if !start.IsZero() {
		c.now = start
		c.frozen = true
	}
	return c
}

// Now returns the current simulated time.
func (c *SimClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.frozen {
		return time.Now()
	}
	return c.now
}

// Set pins the clock to t.
func (c *SimClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	c.frozen = true
}

// Advance moves the clock forward by d and returns the new time.
func (c *SimClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozen {
		c.now = time.Now()
		c.frozen = true
	}
	c.now = c.now.Add(d)
	return c.now
}

// Frozen reports whether the clock has been pinned.
func (c *SimClock) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}
