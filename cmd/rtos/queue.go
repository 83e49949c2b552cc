package rtos

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// QueueStats is a snapshot of queue traffic.
type QueueStats struct {
	Sent     uint64
	Dropped  uint64 // sends rejected with ErrQueueFull
	Received uint64
}

// Queue is a fixed-capacity FIFO with copy-in/copy-out semantics. Values
// live in the queue's own Pool; only handles travel through the buffered
// channel, and handles never leave the queue.
//
// Send never blocks. Receive blocks until a value arrives, the timeout
// elapses, or the context is done.
type Queue[T any] struct {
	name  string
	pool  *Pool[T]
	slots chan Handle

	sent     atomic.Uint64
	dropped  atomic.Uint64
	received atomic.Uint64
}

// NewQueue creates a queue holding at most n in-flight values.
func NewQueue[T any](name string, n int) (*Queue[T], error) {
	pool, err := NewPool[T](n)
	if err != nil {
		return nil, fmt.Errorf("%s queue: %w", name, err)
	}
	return &Queue[T]{
		name:  name,
		pool:  pool,
		slots: make(chan Handle, n),
	}, nil
}

// Send copies v into a free slot and enqueues it. When no slot is free it
// returns an error matching ErrQueueFull and nothing is enqueued.
func (q *Queue[T]) Send(v T) error {
	h, err := q.pool.Acquire()
	if err != nil {
		q.dropped.Add(1)
		return fmt.Errorf("%s queue: %w: %w", q.name, ErrQueueFull, err)
	}

	// Store cannot fail on a handle we just acquired.
	_ = q.pool.Store(h, v)

	select {
	case q.slots <- h:
		q.sent.Add(1)
		return nil
	default:
		_ = q.pool.Release(h)
		q.dropped.Add(1)
		return fmt.Errorf("%s queue: %w: capacity %d reached", q.name, ErrQueueFull, cap(q.slots))
	}
}

// TryReceive dequeues the oldest value without blocking.
func (q *Queue[T]) TryReceive() (T, bool) {
	select {
	case h := <-q.slots:
		return q.take(h), true
	default:
		var zero T
		return zero, false
	}
}

// Receive dequeues the oldest value, waiting up to timeout. A timeout of
// zero or less waits until ctx is done. On timeout it returns ErrTimeout.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T

	if v, ok := q.TryReceive(); ok {
		return v, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case h := <-q.slots:
		return q.take(h), nil
	case <-expired:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Len returns the number of values waiting.
func (q *Queue[T]) Len() int {
	return len(q.slots)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.slots)
}

// Name returns the name the queue was created with.
func (q *Queue[T]) Name() string {
	return q.name
}

// Stats returns a snapshot of the traffic counters.
func (q *Queue[T]) Stats() QueueStats {
	return QueueStats{
		Sent:     q.sent.Load(),
		Dropped:  q.dropped.Load(),
		Received: q.received.Load(),
	}
}

// take copies the value out and frees the slot, always in that order.
func (q *Queue[T]) take(h Handle) T {
	v, err := q.pool.Load(h)
	if err != nil {
		// Handles only enter slots through Send, so this is unreachable.
		panic(fmt.Sprintf("%s queue: %v", q.name, err))
	}
	if err := q.pool.Release(h); err != nil {
		panic(fmt.Sprintf("%s queue: %v", q.name, err))
	}
	q.received.Add(1)
	return v
}
