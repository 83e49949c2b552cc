package rtos

import (
	"context"
	"sync"
	"time"
)

// ManualTick is the wall time one ManualClock tick stands for in timeouts.
const ManualTick = time.Millisecond

// ManualClock is a Scheduler whose time only moves when Advance is called.
// Tests use it to drive task bodies tick by tick.
type ManualClock struct {
	critical sync.Mutex

	mu      sync.Mutex
	now     Tick
	waiters []manualWaiter
}

type manualWaiter struct {
	at   Tick
	wake chan struct{}
}

// NewManualClock creates a clock at tick zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now returns the current tick.
func (c *ManualClock) Now() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward and wakes every sleeper that is due.
func (c *ManualClock) Advance(n Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now += n
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at <= c.now {
			close(w.wake)
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

// Sleep blocks until Advance has moved time n ticks past now.
func (c *ManualClock) Sleep(ctx context.Context, n Tick) error {
	c.mu.Lock()
	if n == 0 {
		c.mu.Unlock()
		return ctx.Err()
	}
	w := manualWaiter{at: c.now + n, wake: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case <-w.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleepers returns how many goroutines are blocked in Sleep.
func (c *ManualClock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Critical runs fn under the clock's critical section.
func (c *ManualClock) Critical(fn func()) {
	c.critical.Lock()
	defer c.critical.Unlock()
	fn()
}

// Duration converts ticks to wall time at ManualTick per tick.
func (c *ManualClock) Duration(n Tick) time.Duration {
	return time.Duration(n) * ManualTick
}
