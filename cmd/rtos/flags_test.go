package rtos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagGroup_PostSetClear(t *testing.T) {
	g := NewFlagGroup(0)
	assert.Equal(t, Flags(0x1), g.Post(0x1, FlagSet))
	assert.Equal(t, Flags(0x3), g.Post(0x2, FlagSet))
	assert.Equal(t, Flags(0x2), g.Post(0x1, FlagClear))
	assert.Equal(t, Flags(0x2), g.Value())
}

func TestFlagGroup_PendModes(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		mask  Flags
		mode  WaitMode
		ok    bool
	}{
		{"set all satisfied", 0x3, 0x3, WaitSetAll, true},
		{"set all partial", 0x1, 0x3, WaitSetAll, false},
		{"set any", 0x2, 0x3, WaitSetAny, true},
		{"set any none", 0x4, 0x3, WaitSetAny, false},
		{"clear all", 0x4, 0x3, WaitClearAll, true},
		{"clear all partial", 0x1, 0x3, WaitClearAll, false},
		{"clear any", 0x1, 0x3, WaitClearAny, true},
		{"clear any none", 0x3, 0x3, WaitClearAny, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewFlagGroup(tt.flags)
			_, err := g.Pend(context.Background(), tt.mask, tt.mode, 5*time.Millisecond)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrTimeout)
			}
		})
	}
}

func TestFlagGroup_PendWakesOnPost(t *testing.T) {
	g := NewFlagGroup(0)

	done := make(chan Flags, 1)
	go func() {
		flags, err := g.Pend(context.Background(), 0x3, WaitSetAll, time.Second)
		if err == nil {
			done <- flags
		}
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	g.Post(0x1, FlagSet)
	time.Sleep(5 * time.Millisecond)
	g.Post(0x2, FlagSet)

	select {
	case flags, ok := <-done:
		require.True(t, ok, "pend failed")
		assert.Equal(t, Flags(0x3), flags)
	case <-time.After(time.Second):
		t.Fatal("pend never woke")
	}
}

func TestFlagGroup_PendContextCancelled(t *testing.T) {
	g := NewFlagGroup(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Pend(ctx, 0x1, WaitSetAll, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
