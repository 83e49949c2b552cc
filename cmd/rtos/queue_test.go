package rtos

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q, err := NewQueue[int]("test", 8)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		require.NoError(t, q.Send(i))
	}
	assert.Equal(t, 8, q.Len())

	for i := 0; i < 8; i++ {
		v, ok := q.TryReceive()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := q.TryReceive()
	assert.False(t, ok)
}

func TestQueue_FullDoesNotCorrupt(t *testing.T) {
	q, err := NewQueue[string]("test", 4)
	require.NoError(t, err)

	sent := []string{"A0", "A1", "A2", "A3"}
	for _, s := range sent {
		require.NoError(t, q.Send(s))
	}

	err = q.Send("overflow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)

	for _, want := range sent {
		got, ok := q.TryReceive()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	stats := q.Stats()
	assert.Equal(t, uint64(4), stats.Sent)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(4), stats.Received)
}

func TestQueue_ReceiveReleasesSlot(t *testing.T) {
	q, err := NewQueue[int]("test", 1)
	require.NoError(t, err)

	// A one-slot queue only survives many round trips if every receive frees its slot.
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Send(i))
		v, ok := q.TryReceive()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.Equal(t, 1, q.pool.Available())
}

func TestQueue_ReceiveTimeout(t *testing.T) {
	q, err := NewQueue[int]("test", 2)
	require.NoError(t, err)

	start := time.Now()
	_, err = q.Receive(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueue_ReceiveWakesOnSend(t *testing.T) {
	q, err := NewQueue[int]("test", 2)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Send(42)
	}()

	v, err := q.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestQueue_ReceiveContextCancelled(t *testing.T) {
	q, err := NewQueue[int]("test", 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = q.Receive(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewQueue_InvalidCapacity(t *testing.T) {
	_, err := NewQueue[int]("bad", 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

// TestQueue_IndependentStress runs two producer/consumer pairs on separate
// queues with random delays and checks each side sees exactly its own
// sequence, in order, with nothing lost or duplicated.
func TestQueue_IndependentStress(t *testing.T) {
	const messages = 1000

	type msg struct {
		queue int
		seq   int
	}

	queues := make([]*Queue[msg], 2)
	for i := range queues {
		q, err := NewQueue[msg]("stress", 4)
		require.NoError(t, err)
		queues[i] = q
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 4)

	for i, q := range queues {
		wg.Add(2)

		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(i) + 1))
			for seq := 0; seq < messages; {
				err := q.Send(msg{queue: i, seq: seq})
				if errors.Is(err, ErrQueueFull) {
					time.Sleep(time.Duration(rng.Intn(50)) * time.Microsecond)
					continue
				}
				if err != nil {
					errs <- err
					return
				}
				seq++
				if rng.Intn(4) == 0 {
					time.Sleep(time.Duration(rng.Intn(100)) * time.Microsecond)
				}
			}
		}()

		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(i) + 100))
			for want := 0; want < messages; want++ {
				got, err := q.Receive(ctx, 0)
				if err != nil {
					errs <- err
					return
				}
				if got.queue != i || got.seq != want {
					errs <- errors.New("out of order or cross-queue message")
					return
				}
				if rng.Intn(4) == 0 {
					time.Sleep(time.Duration(rng.Intn(100)) * time.Microsecond)
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	for _, q := range queues {
		assert.Equal(t, 0, q.Len())
		assert.Equal(t, uint64(messages), q.Stats().Received)
		assert.Equal(t, q.Cap(), q.pool.Available())
	}
}
