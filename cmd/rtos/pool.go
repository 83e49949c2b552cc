package rtos

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var poolIDs atomic.Uint32

// Handle names one slot of a Pool. Handles carry the owning pool and a
// generation, so a handle that was released (or belongs to another pool)
// is rejected instead of aliasing whatever now lives in the slot.
type Handle struct {
	pool  uint32
	index uint32
	gen   uint32
}

// Pool is a fixed set of N pre-allocated slots handed out by Acquire and
// reclaimed by Release. It never blocks and never grows.
type Pool[T any] struct {
	mu    sync.Mutex
	id    uint32
	slots []T
	gens  []uint32
	used  []bool
	free  []uint32 // stack of free indices
}

// NewPool creates a pool with n slots.
func NewPool[T any](n int) (*Pool[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("pool of %d slots: %w", n, ErrInvalidCapacity)
	}

	p := &Pool[T]{
		id:    poolIDs.Add(1),
		slots: make([]T, n),
		gens:  make([]uint32, n),
		used:  make([]bool, n),
		free:  make([]uint32, n),
	}
	// Hand out low indices first.
	for i := range p.free {
		p.free[i] = uint32(n - 1 - i)
	}
	return p, nil
}

// Acquire takes a free slot. It returns ErrExhausted when every slot is out.
func (p *Pool[T]) Acquire() (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return Handle{}, ErrExhausted
	}

	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.used[idx] = true

	return Handle{pool: p.id, index: idx, gen: p.gens[idx]}, nil
}

// Release returns a slot to the pool. Releasing a handle twice, a handle
// from another pool, or the zero Handle returns ErrInvalidHandle and leaves
// the pool untouched.
func (p *Pool[T]) Release(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkLocked(h); err != nil {
		return err
	}

	var zero T
	p.slots[h.index] = zero
	p.used[h.index] = false
	p.gens[h.index]++
	p.free = append(p.free, h.index)
	return nil
}

// Store copies v into the slot named by h.
func (p *Pool[T]) Store(h Handle, v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkLocked(h); err != nil {
		return err
	}
	p.slots[h.index] = v
	return nil
}

// Load copies the value out of the slot named by h.
func (p *Pool[T]) Load(h Handle) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	if err := p.checkLocked(h); err != nil {
		return zero, err
	}
	return p.slots[h.index], nil
}

// Available returns the number of free slots.
func (p *Pool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Cap returns the number of slots.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}

// checkLocked must be called with p.mu held.
func (p *Pool[T]) checkLocked(h Handle) error {
	if h.pool != p.id || int(h.index) >= len(p.slots) {
		return fmt.Errorf("%w: not from this pool", ErrInvalidHandle)
	}
	if !p.used[h.index] || p.gens[h.index] != h.gen {
		return fmt.Errorf("%w: slot %d not held", ErrInvalidHandle, h.index)
	}
	return nil
}
