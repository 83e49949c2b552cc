package tasksync

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/deck/cmd/rtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKernel(t *testing.T) *rtos.Kernel {
	t.Helper()
	k, err := rtos.NewKernel(1000, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return k
}

func TestRun_AllChecksPass(t *testing.T) {
	var out bytes.Buffer
	report, err := Run(context.Background(), newKernel(t), Options{
		Rounds: 3,
		Out:    &out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	assert.True(t, report.OK(), report.Problems())
	assert.Equal(t, 3, report.Rounds)
	assert.Equal(t, Consumer{Received: 3}, report.Mailbox["RxA"])
	assert.Equal(t, Consumer{Received: 3}, report.Mailbox["RxB"])
	assert.Zero(t, report.OutOfSyncAt)
	assert.Equal(t, map[string]int{"A0": 1, "A1": 1, "A2": 1, "B0": 1, "B1": 1, "B2": 1}, report.QueueCounts)

	text := out.String()
	assert.Contains(t, text, "TaskRxFlags: Done!")
	assert.Contains(t, text, "TaskQRx: Done! Received 6 messages")
	assert.NotContains(t, text, "**ERROR")
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		assert.True(t, strings.HasPrefix(line, "Task"), "interleaved line %q", line)
	}
}

func TestRun_SingleSlotQueueDeliversOnce(t *testing.T) {
	report, err := Run(context.Background(), newKernel(t), Options{
		Rounds:    2,
		QueueSize: 1,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Problems())
}

func TestMessage_UniquePerRound(t *testing.T) {
	seen := map[string]int{}
	for i := 0; i < 25; i++ {
		m := message('A', i)
		if prev, dup := seen[m]; dup {
			t.Fatalf("rounds %d and %d both produce %q", prev, i, m)
		}
		seen[m] = i
	}
	assert.Equal(t, "A10", message('A', 10))
}

func TestRun_MoreThanTenRounds(t *testing.T) {
	report, err := Run(context.Background(), newKernel(t), Options{
		Rounds: 11,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	assert.True(t, report.OK(), report.Problems())
	assert.Len(t, report.QueueCounts, 22)
	assert.Equal(t, 1, report.QueueCounts["A0"])
	assert.Equal(t, 1, report.QueueCounts["A10"])
	assert.Equal(t, Consumer{Received: 11}, report.Mailbox["RxB"])
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	report, err := Run(ctx, newKernel(t), Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, DefaultRounds, report.Rounds)
}

func TestRun_KernelAlreadyUsed(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.Create(rtos.Task{Name: "x", Priority: 10, Run: func(context.Context) error { return nil }}))

	_, err := Run(context.Background(), k, Options{})
	assert.ErrorIs(t, err, rtos.ErrPriorityTaken)
}

func TestReport_Problems(t *testing.T) {
	r := Report{
		Rounds: 2,
		Mailbox: map[string]Consumer{
			"RxA": {Received: 2, Errors: 1},
			"RxB": {Received: 2},
		},
		OutOfSyncAt:   2,
		QueueCounts:   map[string]int{"A0": 1, "A1": 2, "B0": 0, "B1": 1},
		QueueTimeouts: 1,
	}

	assert.False(t, r.OK())
	assert.Equal(t, []string{
		"RxA: 1 of 2 messages wrong",
		"RxFlags: out of sync beginning at message 2",
		"QRx: msg=A1: expected to receive 1 instance, actual=2",
		"QRx: msg=B0: expected to receive 1 instance, actual=0",
		"QRx: 1 receives timed out",
	}, r.Problems())
}
