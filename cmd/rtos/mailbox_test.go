package rtos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_LatestWins(t *testing.T) {
	mb := NewMailbox[string]()
	mb.Post("a")
	mb.Post("b")

	v, ok := mb.Accept()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = mb.Accept()
	assert.False(t, ok)

	stats := mb.Stats()
	assert.Equal(t, uint64(2), stats.Posts)
	assert.Equal(t, uint64(1), stats.Overwrites)
	assert.Equal(t, uint64(1), stats.Accepts)
}

func TestMailbox_FlushDiscards(t *testing.T) {
	mb := NewMailbox[int]()
	mb.Post(1)
	mb.Flush()

	_, ok := mb.Accept()
	assert.False(t, ok)

	mb.Flush()
	mb.Post(2)
	v, ok := mb.Accept()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, uint64(1), mb.Stats().Flushes)
}

func TestMailbox_PendTimeout(t *testing.T) {
	mb := NewMailbox[int]()
	_, err := mb.Pend(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMailbox_PendWakesOnPost(t *testing.T) {
	mb := NewMailbox[string]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		mb.Post("B3")
	}()

	v, err := mb.Pend(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "B3", v)
}

func TestMailbox_PendAfterFlushDoesNotSeeStaleWakeup(t *testing.T) {
	mb := NewMailbox[int]()
	mb.Post(1)
	mb.Flush()

	_, err := mb.Pend(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}
