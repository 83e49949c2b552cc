//go:build cgo

package audio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerAvailable reports whether this build can play sound.
const SpeakerAvailable = true

const speakerRate = beep.SampleRate(44100)

// SpeakerOutput decodes mp3 chunks and plays them on the default sound
// device. Each song gets a pipe into a decoding goroutine, which fills a
// bounded sample queue the speaker drains. A song starts playing only once
// the one before it has drained, so track ends are not clipped.
type SpeakerOutput struct {
	mu      sync.Mutex
	initErr error
	once    sync.Once
	cur     *song
	prev    *song // ended, possibly still playing out
	paused  bool
	log     *slog.Logger
}

type song struct {
	pw    *io.PipeWriter
	queue *sampleQueue
}

// NewOutput returns the speaker output. The bit rate is implied by the
// stream itself.
func NewOutput(_ int, logger *slog.Logger) Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeakerOutput{log: logger}
}

func (o *SpeakerOutput) init() error {
	o.once.Do(func() {
		o.initErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return o.initErr
}

func (o *SpeakerOutput) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	after := alreadyDrained
	if o.cur != nil {
		o.cur.pw.Close()
		o.prev = o.cur
		after = o.cur.queue.done()
	}

	pr, pw := io.Pipe()
	q := newSampleQueue(speakerRate.N(time.Second))
	q.setPaused(o.paused)
	o.cur = &song{pw: pw, queue: q}

	go o.decode(pr, q, after)
	return nil
}

var alreadyDrained = func() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func (o *SpeakerOutput) decode(pr *io.PipeReader, q *sampleQueue, after <-chan struct{}) {
	defer q.finish()

	stream, format, err := mp3.Decode(pr)
	if err != nil {
		o.log.Warn("cannot decode song", "error", err)
		pr.CloseWithError(err)
		q.stop()
		return
	}
	defer stream.Close()

	if err := o.init(); err != nil {
		o.log.Error("cannot initialize speaker", "error", err)
		pr.CloseWithError(err)
		q.stop()
		return
	}

	go func() {
		select {
		case <-after:
			speaker.Play(q)
		case <-q.done():
		}
	}()

	resampled := beep.Resample(4, format.SampleRate, speakerRate, stream)
	buf := make([][2]float64, 512)
	for {
		n, ok := resampled.Stream(buf)
		if n > 0 && !q.push(buf[:n]) {
			return
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		pr.CloseWithError(err)
	}
}

func (o *SpeakerOutput) Write(ctx context.Context, p []byte) error {
	o.mu.Lock()
	cur := o.cur
	o.mu.Unlock()
	if cur == nil {
		return ErrNotOpen
	}

	done := make(chan error, 1)
	go func() {
		_, err := cur.pw.Write(p)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cur.pw.CloseWithError(ctx.Err())
		<-done
		return ctx.Err()
	}
}

func (o *SpeakerOutput) End() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return nil
	}
	return o.cur.pw.Close()
}

func (o *SpeakerOutput) SetPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = paused
	for _, s := range []*song{o.prev, o.cur} {
		if s != nil {
			s.queue.setPaused(paused)
		}
	}
}

// Stop cuts off the current song and anything still playing out.
func (o *SpeakerOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *SpeakerOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	return nil
}

func (o *SpeakerOutput) stopLocked() {
	for _, s := range []*song{o.prev, o.cur} {
		if s != nil {
			s.pw.Close()
			s.queue.stop()
		}
	}
	o.prev, o.cur = nil, nil
}
