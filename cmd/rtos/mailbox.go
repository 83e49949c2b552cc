package rtos

import (
	"context"
	"sync"
	"time"
)

// MailboxStats is a snapshot of mailbox traffic.
type MailboxStats struct {
	Posts      uint64
	Overwrites uint64 // posts that replaced an undelivered value
	Accepts    uint64
	Flushes    uint64 // flushes that discarded an undelivered value
}

// Mailbox holds at most one value. A newer Post replaces an undelivered
// one, so the consumer always sees the freshest value. One producer and one
// consumer per mailbox.
type Mailbox[T any] struct {
	mu     sync.Mutex
	value  T
	full   bool
	notify chan struct{}
	stats  MailboxStats
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		notify: make(chan struct{}, 1),
	}
}

// Post stores v, replacing any value not yet accepted.
func (m *Mailbox[T]) Post(v T) {
	m.mu.Lock()
	if m.full {
		m.stats.Overwrites++
	}
	m.value = v
	m.full = true
	m.stats.Posts++
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Flush discards any pending value without delivering it.
func (m *Mailbox[T]) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.full {
		m.stats.Flushes++
	}
	var zero T
	m.value = zero
	m.full = false
}

// Accept takes the pending value, if any. It never blocks.
func (m *Mailbox[T]) Accept() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.full {
		return zero, false
	}
	v := m.value
	m.value = zero
	m.full = false
	m.stats.Accepts++
	return v, true
}

// Pend waits for a value, up to timeout. A timeout of zero or less waits
// until ctx is done. On timeout it returns ErrTimeout.
func (m *Mailbox[T]) Pend(ctx context.Context, timeout time.Duration) (T, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		if v, ok := m.Accept(); ok {
			return v, nil
		}

		select {
		case <-m.notify:
		case <-expired:
			var zero T
			return zero, ErrTimeout
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Stats returns a snapshot of the traffic counters.
func (m *Mailbox[T]) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
