package touch

import (
	"context"
	"log/slog"

	"github.com/gigurra/deck/cmd/rtos"
)

// DefaultPeriod is the sampling period in ticks.
const DefaultPeriod rtos.Tick = 10

// DefaultReleaseTimeout is the number of untouched samples before RELEASE.
const DefaultReleaseTimeout = 4

// Task samples the sensor once per period and sends state-machine events
// to the event queue. A full queue drops the event.
type Task struct {
	Sensor  Sensor
	Machine *Machine
	Events  *rtos.Queue[Event]
	Clock   rtos.Clock
	Period  rtos.Tick
	Logger  *slog.Logger
}

// Poll takes one sample. It reports whether an event was produced and
// whether it made it into the queue.
func (t *Task) Poll() (produced, sent bool) {
	ev, ok := t.Machine.Step(t.Sensor.Touched(), t.Sensor.RawPoint)
	if !ok {
		return false, false
	}

	if err := t.Events.Send(ev); err != nil {
		t.Logger.Warn("touch event dropped", "event", ev.Kind, "x", ev.Point.X, "y", ev.Point.Y, "error", err)
		return true, false
	}
	t.Logger.Debug("touch event", "event", ev.Kind, "x", ev.Point.X, "y", ev.Point.Y)
	return true, true
}

// Run polls until ctx is done.
func (t *Task) Run(ctx context.Context) error {
	period := t.Period
	if period == 0 {
		period = DefaultPeriod
	}

	t.Logger.Info("touch input task starting", "period", period)
	for {
		t.Poll()
		if err := t.Clock.Sleep(ctx, period); err != nil {
			return err
		}
	}
}
