package gpio

import (
	"errors"
	"time"
)

// FakeSensor is a test double that returns scripted sensor readings.
type FakeSensor struct {
	// Samples contains scripted logical readings (true = sound detected).
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples []bool) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSensor) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the sensor to the beginning of samples.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeRelay records relay actuations for test assertions.
type FakeRelay struct {
	Engaged  bool
	Engages  int
	Releases int
}

// Engage marks the relay as engaged.
func (f *FakeRelay) Engage() {
	f.Engaged = true
	f.Engages++
}

// Release marks the relay as released.
func (f *FakeRelay) Release() {
	f.Engaged = false
	f.Releases++
}

// FakeBuzzer records requested tones for test assertions.
type FakeBuzzer struct {
	Tones []time.Duration
}

// Tone records the requested tone duration.
func (f *FakeBuzzer) Tone(d time.Duration) {
	f.Tones = append(f.Tones, d)
}
