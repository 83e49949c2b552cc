// Package player wires the whole appliance together: every queue, mailbox
// and pool is created once at startup, then handed to the fixed task table.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gigurra/deck/cmd/audio"
	"github.com/gigurra/deck/cmd/bitmap"
	"github.com/gigurra/deck/cmd/config"
	"github.com/gigurra/deck/cmd/library"
	"github.com/gigurra/deck/cmd/playback"
	"github.com/gigurra/deck/cmd/rtos"
	"github.com/gigurra/deck/cmd/touch"
	"github.com/gigurra/deck/cmd/ui"
	"github.com/spf13/afero"
)

// Task priorities; lower is more urgent.
const (
	StreamPriority  uint8 = 5
	TouchPriority   uint8 = 6
	DisplayPriority uint8 = 7
	PanelPriority   uint8 = 8
)

// Panel is the display and touch hardware.
type Panel interface {
	ui.Display
	touch.Sensor
	Size() (width, height int)
	Run(ctx context.Context) error
}

type Options struct {
	Config *config.Config
	Fs     afero.Fs
	Output audio.Output
	Panel  Panel
	Logger *slog.Logger
}

// System is a started-up appliance, ready to Run.
type System struct {
	Kernel       *rtos.Kernel
	Songs        []playback.Song
	Events       *rtos.Queue[touch.Event]
	Commands     *rtos.Queue[playback.Command]
	SongBox      *rtos.Mailbox[playback.Song]
	ProgressBox  *rtos.Mailbox[time.Duration]
	DurationBox  *rtos.Mailbox[time.Duration]
	TransportBox *rtos.Mailbox[bool]
	Icons        ui.Icons

	log *slog.Logger
}

// Startup creates every shared resource and registers the tasks. Any
// failure aborts startup before a single task runs.
func Startup(ctx context.Context, opts Options) (*System, error) {
	if opts.Config == nil || opts.Fs == nil || opts.Output == nil || opts.Panel == nil {
		return nil, errors.New("player: config, fs, output and panel are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	chunk, err := cfg.ChunkBytes()
	if err != nil {
		return nil, fmt.Errorf("chunk size: %w", err)
	}

	log.Info("startup: creating kernel and channels", "tick_rate", cfg.TickRate)
	kernel, err := rtos.NewKernel(cfg.TickRate, log)
	if err != nil {
		return nil, fmt.Errorf("creating kernel: %w", err)
	}
	events, err := rtos.NewQueue[touch.Event]("event", cfg.EventQueueSize)
	if err != nil {
		return nil, fmt.Errorf("creating event queue: %w", err)
	}
	commands, err := rtos.NewQueue[playback.Command]("command", cfg.CommandQueueSize)
	if err != nil {
		return nil, fmt.Errorf("creating command queue: %w", err)
	}

	s := &System{
		Kernel:       kernel,
		Events:       events,
		Commands:     commands,
		SongBox:      rtos.NewMailbox[playback.Song](),
		ProgressBox:  rtos.NewMailbox[time.Duration](),
		DurationBox:  rtos.NewMailbox[time.Duration](),
		TransportBox: rtos.NewMailbox[bool](),
		log:          log,
	}

	log.Info("startup: scanning media", "dir", cfg.MediaDir, "extension", cfg.Extension)
	songs, err := library.Scan(opts.Fs, cfg.MediaDir, cfg.Extension, cfg.MaxSongs)
	if err != nil {
		return nil, err
	}
	s.Songs = library.WithBitRate(songs, cfg.BitRate)
	for i, song := range s.Songs {
		log.Info("startup: found song", "index", i, "path", song.Path,
			"title", song.Meta.Title, "artist", song.Meta.Artist, "duration", song.Duration)
	}
	if len(s.Songs) == 0 {
		log.Warn("startup: no songs found", "dir", cfg.MediaDir)
	}

	log.Info("startup: loading bitmap icons")
	s.Icons, err = loadIcons(opts.Fs, cfg.MediaDir, log)
	if err != nil {
		return nil, err
	}

	width, height := opts.Panel.Size()
	view := ui.NewView(width, height, s.Icons)

	ctrl, err := playback.NewController(playback.Options{
		Songs:        playback.NewSongList(s.Songs),
		Commands:     commands,
		SongBox:      s.SongBox,
		ProgressBox:  s.ProgressBox,
		DurationBox:  s.DurationBox,
		TransportBox: s.TransportBox,
		Streamer:     audio.NewFileStreamer(opts.Fs, chunk, opts.Output),
		Scheduler:    kernel,
		BitRate:      cfg.BitRate,
		StreamPeriod: rtos.Tick(cfg.StreamPeriod),
		IdlePeriod:   rtos.Tick(cfg.IdlePeriod),
		Logger:       log.With("task", "stream"),
	})
	if err != nil {
		return nil, err
	}

	input := &touch.Task{
		Sensor:  opts.Panel,
		Machine: touch.NewMachine(cfg.ReleaseTimeout, touch.InvertAxes(int16(width), int16(height))),
		Events:  events,
		Clock:   kernel,
		Period:  rtos.Tick(cfg.TouchPeriod),
		Logger:  log.With("task", "touch"),
	}

	pump, err := ui.NewPump(ui.Options{
		Events:       events,
		Commands:     commands,
		SongBox:      s.SongBox,
		ProgressBox:  s.ProgressBox,
		DurationBox:  s.DurationBox,
		TransportBox: s.TransportBox,
		Scheduler:    kernel,
		Display:      opts.Panel,
		View:         view,
		Period:       rtos.Tick(cfg.FramePeriod),
		Logger:       log.With("task", "display"),
	})
	if err != nil {
		return nil, err
	}

	log.Info("startup: creating application tasks")
	for _, t := range []rtos.Task{
		{Name: "stream", Priority: StreamPriority, Run: ctrl.Run},
		{Name: "touch", Priority: TouchPriority, Run: input.Run},
		{Name: "display", Priority: DisplayPriority, Run: pump.Run},
		{Name: "panel", Priority: PanelPriority, Run: opts.Panel.Run},
	} {
		if err := kernel.Create(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run runs the task table until ctx is done or a task fails, then
// releases the icon buffers.
func (s *System) Run(ctx context.Context) error {
	defer s.releaseIcons()
	return s.Kernel.Run(ctx)
}

func (s *System) releaseIcons() {
	for _, b := range []*bitmap.Bitmap{s.Icons.Play, s.Icons.Pause, s.Icons.Prev, s.Icons.Next} {
		if b == nil {
			continue
		}
		if err := b.Release(); err != nil {
			s.log.Warn("releasing icon", "icon", b.Name, "error", err)
		}
	}
}

// loadIcons loads icon/{play,pause,prev,next}.pgm under dir. Missing or
// broken icons fall back to text labels.
func loadIcons(fs afero.Fs, dir string, log *slog.Logger) (ui.Icons, error) {
	loader, err := bitmap.NewLoader(fs)
	if err != nil {
		return ui.Icons{}, fmt.Errorf("creating bitmap pool: %w", err)
	}

	var icons ui.Icons
	for name, dst := range map[string]**bitmap.Bitmap{
		"play":  &icons.Play,
		"pause": &icons.Pause,
		"prev":  &icons.Prev,
		"next":  &icons.Next,
	} {
		path := filepath.Join(dir, "icon", name+".pgm")
		if ok, _ := afero.Exists(fs, path); !ok {
			continue
		}
		b, err := loader.Load(path)
		if err != nil {
			log.Warn("startup: cannot load icon", "path", path, "error", err)
			continue
		}
		log.Info("startup: loaded icon", "path", path, "width", b.Width, "height", b.Height, "maxval", b.MaxVal)
		*dst = b
	}
	return icons, nil
}
