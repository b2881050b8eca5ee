package logic

import "time"

// Recorder captures knock times during a listening window and produces the
// inter-knock intervals when the window closes. The window closes when
// either maxKnocks knocks have been captured or the silence timeout elapses
// after the last knock.
type Recorder struct {
	maxKnocks int
	silence   time.Duration
	times     []time.Time
	open      bool
}

// NewRecorder creates a Recorder. maxKnocks bounds the capture; silence is
// the inter-knock timeout that closes the window.
func NewRecorder(maxKnocks int, silence time.Duration) *Recorder {
	return &Recorder{
		maxKnocks: maxKnocks,
		silence:   silence,
		times:     make([]time.Time, 0, maxKnocks),
	}
}

// Open starts a new capture. The first knock is part of the capture.
func (r *Recorder) Open(first time.Time) {
	r.times = r.times[:0]
	r.times = append(r.times, first)
	r.open = true
}

// Add records a knock and reports whether the capture is full.
func (r *Recorder) Add(now time.Time) bool {
	if !r.open || len(r.times) >= r.maxKnocks {
		return true
	}
	r.times = append(r.times, now)
	return len(r.times) >= r.maxKnocks
}

// TimedOut reports whether the silence timeout has elapsed since the last
// knock in the capture.
func (r *Recorder) TimedOut(now time.Time) bool {
	if !r.open || len(r.times) == 0 {
		return false
	}
	return now.Sub(r.times[len(r.times)-1]) >= r.silence
}

// Count returns the number of knocks captured so far.
func (r *Recorder) Count() int {
	return len(r.times)
}

// Close ends the capture and returns the inter-knock intervals. A capture
// of fewer than two knocks yields no intervals.
func (r *Recorder) Close() []time.Duration {
	if len(r.times) < 2 {
		r.Discard()
		return nil
	}
	intervals := make([]time.Duration, len(r.times)-1)
	for i := 1; i < len(r.times); i++ {
		intervals[i-1] = r.times[i].Sub(r.times[i-1])
	}
	r.Discard()
	return intervals
}

// Discard drops the capture without producing intervals.
func (r *Recorder) Discard() {
	r.times = r.times[:0]
	r.open = false
}
