package audio

import "sync"

// sampleQueue sits between the decoding goroutine and the speaker. The
// speaker never blocks on it: while paused or starved it plays silence.
// push blocks once capacity frames are buffered.
type sampleQueue struct {
	mu       sync.Mutex
	space    *sync.Cond
	samples  [][2]float64
	capacity int
	paused   bool
	finished bool
	stopped  bool

	drained     chan struct{} // closed once the speaker has played everything, or on stop
	drainedOnce sync.Once
}

func newSampleQueue(capacity int) *sampleQueue {
	q := &sampleQueue{capacity: capacity, drained: make(chan struct{})}
	q.space = sync.NewCond(&q.mu)
	return q
}

// done is closed when nothing more will come out of the queue.
func (q *sampleQueue) done() <-chan struct{} {
	return q.drained
}

func (q *sampleQueue) markDrained() {
	q.drainedOnce.Do(func() { close(q.drained) })
}

// push appends frames, waiting for room. It returns false once stopped.
func (q *sampleQueue) push(frames [][2]float64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.samples)+len(frames) > q.capacity && len(q.samples) > 0 && !q.stopped {
		q.space.Wait()
	}
	if q.stopped {
		return false
	}
	q.samples = append(q.samples, frames...)
	return true
}

// Stream implements beep.Streamer.
func (q *sampleQueue) Stream(out [][2]float64) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped || (q.finished && len(q.samples) == 0) {
		q.markDrained()
		return 0, false
	}

	n := 0
	if !q.paused {
		n = copy(out, q.samples)
		q.samples = q.samples[n:]
		if n > 0 {
			q.space.Broadcast()
		}
	}
	for i := n; i < len(out); i++ {
		out[i] = [2]float64{}
	}
	return len(out), true
}

// Err implements beep.Streamer.
func (q *sampleQueue) Err() error { return nil }

func (q *sampleQueue) setPaused(paused bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = paused
}

func (q *sampleQueue) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finished = true
}

func (q *sampleQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.samples = nil
	q.space.Broadcast()
	q.markDrained()
}

// buffered returns the number of frames waiting.
func (q *sampleQueue) buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples)
}
