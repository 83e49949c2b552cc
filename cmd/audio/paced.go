package audio

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// PacedOutput discards audio at the nominal bit rate, so a song takes as
// long to stream as it would to play.
type PacedOutput struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	written int64
	paused  bool
}

// NewPacedOutput consumes bitRate bits per second.
func NewPacedOutput(bitRate int) *PacedOutput {
	bytesPerSecond := bitRate / 8
	if bytesPerSecond <= 0 {
		bytesPerSecond = 1
	}
	return &PacedOutput{limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)}
}

func (o *PacedOutput) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.written = 0
	return nil
}

func (o *PacedOutput) Write(ctx context.Context, p []byte) error {
	for len(p) > 0 {
		n := min(len(p), o.limiter.Burst())
		if err := o.limiter.WaitN(ctx, n); err != nil {
			return err
		}
		o.mu.Lock()
		o.written += int64(n)
		o.mu.Unlock()
		p = p[n:]
	}
	return nil
}

func (o *PacedOutput) End() error { return nil }

func (o *PacedOutput) Stop() {}

func (o *PacedOutput) SetPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = paused
}

func (o *PacedOutput) Close() error { return nil }

// Written returns the bytes consumed since the last Begin.
func (o *PacedOutput) Written() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.written
}

// Paused reports the last SetPaused value.
func (o *PacedOutput) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}
