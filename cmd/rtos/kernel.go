package rtos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tick counts scheduler ticks since the kernel was created.
type Tick uint32

// Clock is the monotonic tick source tasks sleep on.
type Clock interface {
	Now() Tick
	Sleep(ctx context.Context, n Tick) error
}

// Scheduler is what a task body needs from the kernel.
type Scheduler interface {
	Clock
	// Critical runs fn to completion without any other critical section
	// interleaving with it.
	Critical(fn func())
	// Duration converts ticks to wall time, for timeouts.
	Duration(n Tick) time.Duration
}

// Task is one entry of the fixed task table.
type Task struct {
	Name     string
	Priority uint8 // lower value is more urgent
	Run      func(ctx context.Context) error
}

// Kernel owns the task table and the tick clock. Tasks are registered with
// Create during startup; once Run is called the table is frozen.
type Kernel struct {
	tick     time.Duration
	epoch    time.Time
	logger   *slog.Logger
	critical sync.Mutex

	mu      sync.Mutex
	tasks   []Task
	started bool
}

// NewKernel creates a kernel ticking ticksPerSecond times a second.
func NewKernel(ticksPerSecond int, logger *slog.Logger) (*Kernel, error) {
	if ticksPerSecond <= 0 {
		return nil, fmt.Errorf("tick rate %d: %w", ticksPerSecond, ErrInvalidCapacity)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kernel{
		tick:   time.Second / time.Duration(ticksPerSecond),
		epoch:  time.Now(),
		logger: logger,
	}, nil
}

// Create adds a task to the table. It fails once the kernel is running,
// when the task is incomplete, or when its priority is already used.
func (k *Kernel) Create(t Task) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		return fmt.Errorf("create %q: %w", t.Name, ErrKernelStarted)
	}
	if t.Run == nil {
		return fmt.Errorf("create %q: task has no body", t.Name)
	}
	for _, existing := range k.tasks {
		if existing.Priority == t.Priority {
			return fmt.Errorf("create %q at %d (held by %q): %w", t.Name, t.Priority, existing.Name, ErrPriorityTaken)
		}
	}

	k.tasks = append(k.tasks, t)
	return nil
}

// Run starts every task, most urgent first, and blocks until all of them
// return or ctx is done. The first task failure cancels the others and is
// returned. Tasks ending because ctx was cancelled are not failures.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrKernelStarted
	}
	k.started = true
	tasks := append([]Task(nil), k.tasks...)
	k.mu.Unlock()

	if len(tasks) == 0 {
		return ErrNoTasks
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		k.logger.Info("task starting", "task", t.Name, "priority", t.Priority)
		g.Go(func() error {
			err := t.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				k.logger.Error("task failed", "task", t.Name, "error", err)
				return fmt.Errorf("task %s: %w", t.Name, err)
			}
			k.logger.Debug("task finished", "task", t.Name)
			return nil
		})
	}
	return g.Wait()
}

// Now returns the ticks elapsed since the kernel was created.
func (k *Kernel) Now() Tick {
	return Tick(time.Since(k.epoch) / k.tick)
}

// Sleep suspends the caller for n ticks. Sleeping zero ticks yields.
func (k *Kernel) Sleep(ctx context.Context, n Tick) error {
	if n == 0 {
		runtime.Gosched()
		return ctx.Err()
	}

	timer := time.NewTimer(k.Duration(n))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Critical runs fn while holding the kernel's critical section.
func (k *Kernel) Critical(fn func()) {
	k.critical.Lock()
	defer k.critical.Unlock()
	fn()
}

// Duration converts ticks to wall time.
func (k *Kernel) Duration(n Tick) time.Duration {
	return time.Duration(n) * k.tick
}

// Ticks converts wall time to whole ticks.
func (k *Kernel) Ticks(d time.Duration) Tick {
	return Tick(d / k.tick)
}

// TickDuration returns the length of one tick.
func (k *Kernel) TickDuration() time.Duration {
	return k.tick
}
