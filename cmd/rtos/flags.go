package rtos

import (
	"context"
	"sync"
	"time"
)

// Flags is a set of event bits.
type Flags uint32

// FlagOp selects what Post does with the mask.
type FlagOp uint8

const (
	FlagSet FlagOp = iota
	FlagClear
)

// WaitMode selects the condition Pend waits for.
type WaitMode uint8

const (
	WaitSetAll WaitMode = iota
	WaitSetAny
	WaitClearAll
	WaitClearAny
)

// FlagGroup is a word of event bits that tasks set, clear and wait on.
type FlagGroup struct {
	mu      sync.Mutex
	flags   Flags
	changed chan struct{} // closed and replaced on every Post
}

// NewFlagGroup creates a group with the given initial bits.
func NewFlagGroup(initial Flags) *FlagGroup {
	return &FlagGroup{
		flags:   initial,
		changed: make(chan struct{}),
	}
}

// Post sets or clears the bits in mask and wakes every waiter. It returns
// the resulting flags.
func (g *FlagGroup) Post(mask Flags, op FlagOp) Flags {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch op {
	case FlagSet:
		g.flags |= mask
	case FlagClear:
		g.flags &^= mask
	}

	close(g.changed)
	g.changed = make(chan struct{})
	return g.flags
}

// Value returns the current flags.
func (g *FlagGroup) Value() Flags {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.flags
}

// Pend waits until the bits in mask satisfy mode, up to timeout. A timeout
// of zero or less waits until ctx is done. It returns the flags observed
// when the condition held, or ErrTimeout.
func (g *FlagGroup) Pend(ctx context.Context, mask Flags, mode WaitMode, timeout time.Duration) (Flags, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		g.mu.Lock()
		flags := g.flags
		changed := g.changed
		g.mu.Unlock()

		if satisfied(flags, mask, mode) {
			return flags, nil
		}

		select {
		case <-changed:
		case <-expired:
			return flags, ErrTimeout
		case <-ctx.Done():
			return flags, ctx.Err()
		}
	}
}

func satisfied(flags, mask Flags, mode WaitMode) bool {
	switch mode {
	case WaitSetAll:
		return flags&mask == mask
	case WaitSetAny:
		return flags&mask != 0
	case WaitClearAll:
		return flags&mask == 0
	case WaitClearAny:
		return flags&mask != mask
	}
	return false
}
