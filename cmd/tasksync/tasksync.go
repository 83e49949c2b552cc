// Package tasksync is a self-check of the kernel primitives: a mailbox
// pair kept in lockstep by a flag-group barrier, and two producers sharing
// one bounded queue into a single consumer.
package tasksync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gigurra/deck/cmd/rtos"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultRounds    = 5
	DefaultQueueSize = 4
	DefaultTimeout   = rtos.Tick(200)

	bitA rtos.Flags = 0x1
	bitB rtos.Flags = 0x2
)

type Options struct {
	Rounds    int       // Messages per producer
	QueueSize int       // Capacity of the shared queue
	Timeout   rtos.Tick // Pend timeout
	Out       io.Writer // Progress lines
	Logger    *slog.Logger
}

// Consumer is one mailbox receiver's tally.
type Consumer struct {
	Received int
	Errors   int
}

// Report is the outcome of a run.
type Report struct {
	Rounds        int
	Mailbox       map[string]Consumer // by task name
	OutOfSyncAt   int                 // first barrier round with unequal counters, 0 if none
	QueueCounts   map[string]int      // times each expected queue message arrived
	QueueTimeouts int
}

// Problems lists every check that failed.
func (r Report) Problems() []string {
	var out []string
	for _, name := range []string{"RxA", "RxB"} {
		c := r.Mailbox[name]
		if c.Errors > 0 {
			out = append(out, fmt.Sprintf("%s: %d of %d messages wrong", name, c.Errors, c.Received))
		}
	}
	if r.OutOfSyncAt > 0 {
		out = append(out, fmt.Sprintf("RxFlags: out of sync beginning at message %d", r.OutOfSyncAt))
	}
	msgs := make([]string, 0, len(r.QueueCounts))
	for m := range r.QueueCounts {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	for _, m := range msgs {
		if n := r.QueueCounts[m]; n != 1 {
			out = append(out, fmt.Sprintf("QRx: msg=%s: expected to receive 1 instance, actual=%d", m, n))
		}
	}
	if r.QueueTimeouts > 0 {
		out = append(out, fmt.Sprintf("QRx: %d receives timed out", r.QueueTimeouts))
	}
	return out
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return len(r.Problems()) == 0
}

type exercise struct {
	opts  Options
	k     *rtos.Kernel
	log   *slog.Logger
	print *semaphore.Weighted

	boxA, boxB *rtos.Mailbox[string]
	flags      *rtos.FlagGroup
	queue      *rtos.Queue[string]

	countA, countB atomic.Int64

	mu     sync.Mutex
	report Report
}

// Run registers the exercise tasks on k, runs them to completion and
// returns what they observed. k must not have been started.
func Run(ctx context.Context, k *rtos.Kernel, opts Options) (Report, error) {
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultRounds
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	queue, err := rtos.NewQueue[string]("qMsg", opts.QueueSize)
	if err != nil {
		return Report{}, err
	}

	e := &exercise{
		opts:  opts,
		k:     k,
		log:   opts.Logger,
		print: semaphore.NewWeighted(1),
		boxA:  rtos.NewMailbox[string](),
		boxB:  rtos.NewMailbox[string](),
		flags: rtos.NewFlagGroup(0),
		queue: queue,
		report: Report{
			Rounds:      opts.Rounds,
			Mailbox:     map[string]Consumer{},
			QueueCounts: map[string]int{},
		},
	}
	for i := 0; i < opts.Rounds; i++ {
		e.report.QueueCounts[message('A', i)] = 0
		e.report.QueueCounts[message('B', i)] = 0
	}

	tasks := []rtos.Task{
		{Name: "MBTx", Priority: 10, Run: e.mailboxSender},
		{Name: "MBRxA", Priority: 11, Run: func(ctx context.Context) error {
			return e.mailboxReceiver(ctx, "RxA", 'A', e.boxA, bitA, &e.countA, 30)
		}},
		{Name: "MBRxB", Priority: 12, Run: func(ctx context.Context) error {
			return e.mailboxReceiver(ctx, "RxB", 'B', e.boxB, bitB, &e.countB, 10)
		}},
		{Name: "QTxA", Priority: 13, Run: func(ctx context.Context) error {
			return e.queueSender(ctx, "QTxA", 'A', 90)
		}},
		{Name: "QTxB", Priority: 14, Run: func(ctx context.Context) error {
			return e.queueSender(ctx, "QTxB", 'B', 30)
		}},
		{Name: "QRx", Priority: 15, Run: e.queueReceiver},
		{Name: "RxFlags", Priority: 16, Run: e.barrier},
	}
	for _, t := range tasks {
		if err := k.Create(t); err != nil {
			return Report{}, err
		}
	}

	if err := k.Run(ctx); err != nil {
		return e.snapshot(), err
	}
	if err := ctx.Err(); err != nil {
		return e.snapshot(), err
	}
	return e.snapshot(), nil
}

func message(prefix byte, i int) string {
	return fmt.Sprintf("%c%d", prefix, i)
}

func (e *exercise) snapshot() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// printf writes one line, one task at a time.
func (e *exercise) printf(ctx context.Context, format string, args ...any) {
	if err := e.print.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.print.Release(1)
	fmt.Fprintf(e.opts.Out, format+"\n", args...)
}

func (e *exercise) timeout() time.Duration {
	return e.k.Duration(e.opts.Timeout)
}

func (e *exercise) mailboxSender(ctx context.Context) error {
	e.printf(ctx, "TaskMBTx: starting")
	for i := 0; i < e.opts.Rounds; i++ {
		e.boxA.Post(message('A', i))
		if err := e.k.Sleep(ctx, 90); err != nil {
			return err
		}
		e.boxB.Post(message('B', i))
		if err := e.k.Sleep(ctx, 90); err != nil {
			return err
		}
	}
	e.printf(ctx, "TaskMBTx: Done! Sent %d messages", 2*e.opts.Rounds)
	return nil
}

func (e *exercise) mailboxReceiver(ctx context.Context, name string, prefix byte, box *rtos.Mailbox[string], bit rtos.Flags, count *atomic.Int64, delay rtos.Tick) error {
	e.printf(ctx, "Task%s: starting", name)
	var errs int
	for i := 0; i < e.opts.Rounds; i++ {
		if _, err := e.flags.Pend(ctx, bit, rtos.WaitClearAll, e.timeout()); err != nil {
			if !errors.Is(err, rtos.ErrTimeout) {
				return err
			}
			e.log.Debug("flag wait timed out", "task", name, "round", i)
		}

		got, err := box.Pend(ctx, e.timeout())
		if err != nil && !errors.Is(err, rtos.ErrTimeout) {
			return err
		}
		received := count.Add(1)
		want := message(prefix, i)
		if got != want {
			errs++
		}
		e.flags.Post(bit, rtos.FlagSet)

		e.mu.Lock()
		e.report.Mailbox[name] = Consumer{Received: int(received), Errors: errs}
		e.mu.Unlock()

		e.printf(ctx, "Task%s: actual=%s, expected=%s, received=%d errors=%d", name, got, want, received, errs)
		if err := e.k.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	prefixErr := ""
	if errs > 0 {
		prefixErr = "**ERROR:"
	}
	e.printf(ctx, "%sTask%s: Done! Received %d messages, errors=%d", prefixErr, name, e.opts.Rounds, errs)
	return nil
}

func (e *exercise) barrier(ctx context.Context) error {
	e.printf(ctx, "TaskRxFlags: starting")
	outOfSync := 0
	for i := 1; i <= e.opts.Rounds; i++ {
		if _, err := e.flags.Pend(ctx, bitA|bitB, rtos.WaitSetAll, e.timeout()); err != nil {
			if !errors.Is(err, rtos.ErrTimeout) {
				return err
			}
			e.log.Debug("barrier timed out", "round", i)
		}

		a, b := e.countA.Load(), e.countB.Load()
		if (a != int64(i) || b != int64(i)) && outOfSync == 0 {
			outOfSync = i
			e.mu.Lock()
			e.report.OutOfSyncAt = i
			e.mu.Unlock()
		}
		e.printf(ctx, "TaskRxFlags: (TaskMBRxA_msgCount expected=%d actual=%d) (TaskMBRxB_msgCount expected=%d actual=%d)", i, a, i, b)

		e.flags.Post(bitA|bitB, rtos.FlagClear)
		if err := e.k.Sleep(ctx, 10); err != nil {
			return err
		}
	}
	if outOfSync > 0 {
		e.printf(ctx, "**ERROR: TaskRxFlags: Done! Out of sync beginning at message %d", outOfSync)
	} else {
		e.printf(ctx, "TaskRxFlags: Done!")
	}
	return nil
}

func (e *exercise) queueSender(ctx context.Context, name string, prefix byte, delay rtos.Tick) error {
	e.printf(ctx, "Task%s: starting", name)
	for i := 0; i < e.opts.Rounds; i++ {
		msg := message(prefix, i)
		for {
			if err := e.k.Sleep(ctx, 5); err != nil {
				return err
			}
			err := e.queue.Send(msg)
			if err == nil {
				break
			}
			if !errors.Is(err, rtos.ErrQueueFull) {
				return err
			}
		}
		e.printf(ctx, "Task%s: sent msg %s", name, msg)
		if err := e.k.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	e.printf(ctx, "Task%s: Done! Sent %d messages", name, e.opts.Rounds)
	return nil
}

func (e *exercise) queueReceiver(ctx context.Context) error {
	e.printf(ctx, "TaskQRx: starting")
	for i := 0; i < 2*e.opts.Rounds; i++ {
		msg, err := e.queue.Receive(ctx, e.timeout())
		switch {
		case errors.Is(err, rtos.ErrTimeout):
			e.mu.Lock()
			e.report.QueueTimeouts++
			e.mu.Unlock()
			e.log.Debug("queue receive timed out", "round", i)
			continue
		case err != nil:
			return err
		}

		e.mu.Lock()
		e.report.QueueCounts[msg]++
		e.mu.Unlock()
		e.printf(ctx, "TaskQRx: received msg %s", msg)

		if err := e.k.Sleep(ctx, 10); err != nil {
			return err
		}
	}
	e.printf(ctx, "TaskQRx: Done! Received %d messages", 2*e.opts.Rounds)
	return nil
}
