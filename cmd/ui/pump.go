// Package ui runs the touch panel: it turns input events into transport
// commands and renders the published playback state once per frame.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gigurra/deck/cmd/playback"
	"github.com/gigurra/deck/cmd/rtos"
	"github.com/gigurra/deck/cmd/touch"
)

// DefaultFramePeriod is the frame cadence in ticks.
const DefaultFramePeriod rtos.Tick = 20

// Display receives finished frames.
type Display interface {
	Draw(frame string)
}

type Options struct {
	Events      *rtos.Queue[touch.Event]
	Commands    *rtos.Queue[playback.Command]
	SongBox     *rtos.Mailbox[playback.Song]
	ProgressBox *rtos.Mailbox[time.Duration]
	DurationBox *rtos.Mailbox[time.Duration]
	Scheduler   rtos.Scheduler
	Display     Display
	View        *View
	Period      rtos.Tick
	Logger      *slog.Logger

	// TransportBox, when set, overrides the locally toggled play state with
	// what the controller actually did.
	TransportBox *rtos.Mailbox[bool]
}

// Pump is the body of the display task.
type Pump struct {
	opts    Options
	log     *slog.Logger
	gesture Gesture
	screen  Screen
	last    rtos.Tick
}

func NewPump(opts Options) (*Pump, error) {
	switch {
	case opts.Events == nil || opts.Commands == nil:
		return nil, errors.New("ui: event and command queues are required")
	case opts.SongBox == nil || opts.ProgressBox == nil || opts.DurationBox == nil:
		return nil, errors.New("ui: song, progress and duration mailboxes are required")
	case opts.Scheduler == nil || opts.Display == nil || opts.View == nil:
		return nil, errors.New("ui: scheduler, display and view are required")
	}
	if opts.Period == 0 {
		opts.Period = DefaultFramePeriod
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pump{
		opts:    opts,
		log:     opts.Logger,
		gesture: Gesture{layout: opts.View.Layout()},
		last:    opts.Scheduler.Now(),
	}, nil
}

// Screen returns a copy of the displayed state.
func (p *Pump) Screen() Screen {
	return p.screen
}

// Step runs one frame.
func (p *Pump) Step(ctx context.Context) error {
	for {
		ev, ok := p.opts.Events.TryReceive()
		if !ok {
			break
		}
		if w, clicked := p.gesture.Input(ev); clicked {
			p.click(w)
		}
	}
	p.screen.Pressed = p.gesture.Pressed()

	if song, ok := p.opts.SongBox.Accept(); ok {
		p.screen.SetSong(song)
		p.log.Debug("now showing", "title", song.Meta.Title)
	}
	if d, ok := p.opts.DurationBox.Accept(); ok {
		p.screen.Duration = d
	}
	if prog, ok := p.opts.ProgressBox.Accept(); ok {
		p.screen.SetProgress(prog)
	}
	if p.opts.TransportBox != nil {
		if playing, ok := p.opts.TransportBox.Accept(); ok {
			p.screen.Playing = playing
		}
	}

	now := p.opts.Scheduler.Now()
	p.screen.Advance(p.opts.Scheduler.Duration(now - p.last))
	p.last = now

	p.opts.Scheduler.Critical(func() {
		p.opts.Display.Draw(p.opts.View.Render(&p.screen))
	})
	return ctx.Err()
}

func (p *Pump) click(w WidgetID) {
	cmd := dispatch[w](p.screen.Playing)
	if err := p.opts.Commands.Send(cmd); err != nil {
		p.log.Warn("command dropped", "command", cmd, "error", err)
		return
	}
	if w == PlayPauseButton {
		p.screen.Playing = cmd == playback.Play
	}
	p.log.Debug("command sent", "widget", w, "command", cmd)
}

// Run draws a frame every period until ctx is done.
func (p *Pump) Run(ctx context.Context) error {
	p.log.Info("display task starting", "period", p.opts.Period)
	for {
		if err := p.Step(ctx); err != nil {
			return err
		}
		if err := p.opts.Scheduler.Sleep(ctx, p.opts.Period); err != nil {
			return err
		}
	}
}
