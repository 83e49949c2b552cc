package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/deck/cmd/rtos"
)

const (
	DefaultStreamPeriod rtos.Tick = 1
	DefaultIdlePeriod   rtos.Tick = 20
)

// Streamer moves one song's bytes to the audio output, one chunk per call.
type Streamer interface {
	// Open closes whatever was open and opens song from the beginning.
	Open(song Song) error
	// Stream moves at most one chunk. complete reports end of file.
	Stream(ctx context.Context) (complete bool, err error)
	SetPaused(paused bool)
	Close() error
}

// EndOfTrack decides what happens when the open song finishes. It reports
// whether the cursor now points at a song that must be (re)opened.
type EndOfTrack func(songs *SongList) (changed bool, err error)

// AdvanceOnEnd moves to the next song, wrapping after the last.
func AdvanceOnEnd(songs *SongList) (bool, error) {
	if _, err := songs.Next(); err != nil {
		return false, err
	}
	return true, nil
}

type Options struct {
	Songs       *SongList
	Commands    *rtos.Queue[Command]
	SongBox     *rtos.Mailbox[Song]
	ProgressBox *rtos.Mailbox[time.Duration]
	DurationBox *rtos.Mailbox[time.Duration]
	Streamer    Streamer
	Scheduler   rtos.Scheduler

	// TransportBox, when set, receives the transport state on every change,
	// including pauses the controller decides on its own.
	TransportBox *rtos.Mailbox[bool]

	BitRate      int       // Nominal bit rate for duration estimates
	StreamPeriod rtos.Tick // Sleep between chunks while playing
	IdlePeriod   rtos.Tick // Sleep between cycles while paused
	EndOfTrack   EndOfTrack
	Logger       *slog.Logger
}

// Controller is the body of the streaming task.
type Controller struct {
	opts Options
	log  *slog.Logger

	playing     bool
	wasPlaying  bool
	songChanged bool
	opened      bool
	failures    int

	elapsed time.Duration
	last    rtos.Tick
	posted  time.Duration
}

// NewController creates a controller that is paused and will publish the
// song under the cursor on its first cycle.
func NewController(opts Options) (*Controller, error) {
	switch {
	case opts.Songs == nil:
		return nil, errors.New("playback: song list is required")
	case opts.Commands == nil:
		return nil, errors.New("playback: command queue is required")
	case opts.SongBox == nil || opts.ProgressBox == nil || opts.DurationBox == nil:
		return nil, errors.New("playback: song, progress and duration mailboxes are required")
	case opts.Streamer == nil:
		return nil, errors.New("playback: streamer is required")
	case opts.Scheduler == nil:
		return nil, errors.New("playback: scheduler is required")
	}
	if opts.BitRate <= 0 {
		opts.BitRate = DefaultBitRate
	}
	if opts.StreamPeriod == 0 {
		opts.StreamPeriod = DefaultStreamPeriod
	}
	if opts.IdlePeriod == 0 {
		opts.IdlePeriod = DefaultIdlePeriod
	}
	if opts.EndOfTrack == nil {
		opts.EndOfTrack = AdvanceOnEnd
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		opts:        opts,
		log:         opts.Logger,
		songChanged: true,
	}, nil
}

// Playing reports the transport state.
func (c *Controller) Playing() bool {
	return c.playing
}

// Elapsed returns the play time of the open song.
func (c *Controller) Elapsed() time.Duration {
	return c.elapsed
}

// Step runs one cycle and returns how long to sleep before the next. The
// returned error is informational; the cycle has already recovered from it.
func (c *Controller) Step(ctx context.Context) (rtos.Tick, error) {
	var errs []error

	for {
		cmd, ok := c.opts.Commands.TryReceive()
		if !ok {
			break
		}
		if err := c.apply(cmd); err != nil {
			errs = append(errs, err)
		}
	}

	if c.songChanged {
		if err := c.changeSong(); err != nil {
			errs = append(errs, err)
		}
	}

	now := c.opts.Scheduler.Now()
	if c.wasPlaying && c.opened {
		c.elapsed += c.opts.Scheduler.Duration(now - c.last)
	}
	c.last = now
	if c.playing != c.wasPlaying {
		c.opts.Streamer.SetPaused(!c.playing)
		c.wasPlaying = c.playing
		c.publishTransport()
	}

	if whole := c.elapsed.Truncate(time.Second); whole != c.posted {
		c.opts.ProgressBox.Flush()
		c.opts.ProgressBox.Post(whole)
		c.posted = whole
	}

	if c.playing && c.opened {
		complete, err := c.opts.Streamer.Stream(ctx)
		if err != nil && ctx.Err() == nil {
			c.log.Warn("stream failed, skipping song", "error", err)
			errs = append(errs, err)
			complete = true
		}
		if complete {
			if err := c.trackEnded(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if c.playing {
		return c.opts.StreamPeriod, errors.Join(errs...)
	}
	return c.opts.IdlePeriod, errors.Join(errs...)
}

// Run cycles until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("streaming task starting", "songs", c.opts.Songs.Len())
	defer func() {
		if err := c.opts.Streamer.Close(); err != nil {
			c.log.Warn("closing streamer", "error", err)
		}
	}()

	for {
		sleep, err := c.Step(ctx)
		if err != nil {
			c.log.Debug("streaming cycle", "error", err)
		}
		if err := c.opts.Scheduler.Sleep(ctx, sleep); err != nil {
			return err
		}
	}
}

func (c *Controller) apply(cmd Command) error {
	c.log.Debug("command", "command", cmd)

	switch cmd {
	case Previous:
		if _, err := c.opts.Songs.Prev(); err != nil {
			return err
		}
		c.songChanged = true
	case Next:
		if _, err := c.opts.Songs.Next(); err != nil {
			return err
		}
		c.songChanged = true
	case Play:
		if c.opts.Songs.Len() == 0 {
			return ErrEmptySongList
		}
		c.playing = true
	case Pause:
		c.playing = false
	default:
		return fmt.Errorf("playback: unknown %v", cmd)
	}
	return nil
}

func (c *Controller) changeSong() error {
	c.songChanged = false

	song, err := c.opts.Songs.Current()
	if err != nil {
		return err
	}

	openErr := c.opts.Streamer.Open(song)
	c.opened = openErr == nil

	duration := song.Duration
	if duration == 0 {
		duration = EstimateDuration(song.Size, c.opts.BitRate)
	}

	c.opts.Scheduler.Critical(func() {
		c.opts.SongBox.Flush()
		c.opts.SongBox.Post(song)
		c.opts.ProgressBox.Flush()
		c.opts.ProgressBox.Post(0)
		c.opts.DurationBox.Flush()
		c.opts.DurationBox.Post(duration)
	})

	c.elapsed = 0
	c.posted = 0
	c.last = c.opts.Scheduler.Now()

	if openErr != nil {
		c.log.Warn("cannot open song", "path", song.Path, "error", openErr)
		c.failures++
		if c.failures >= c.opts.Songs.Len() {
			c.playing = false
			c.failures = 0
			c.publishTransport()
			return fmt.Errorf("no playable song: %w", openErr)
		}
		if err := c.trackEnded(); err != nil {
			return errors.Join(openErr, err)
		}
		return openErr
	}

	c.failures = 0
	c.log.Info("song selected", "title", song.Meta.Title, "artist", song.Meta.Artist, "duration", duration)
	return nil
}

func (c *Controller) publishTransport() {
	if c.opts.TransportBox != nil {
		c.opts.TransportBox.Post(c.playing)
	}
}

func (c *Controller) trackEnded() error {
	changed, err := c.opts.EndOfTrack(c.opts.Songs)
	if err != nil {
		c.opened = false
		return err
	}
	if changed {
		c.songChanged = true
	} else {
		c.opened = false
	}
	return nil
}
