package hw

import (
	"errors"
	"sync"
	"time"
)

// FakeADC is a test double that returns scripted conversions.
type FakeADC struct {
	mu sync.Mutex

	// Samples contains scripted raw values.
	// Each call to Read() consumes the next sample.
	Samples []uint32

	// index tracks current position in Samples
	index int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeADC creates a FakeADC with the given samples.
func NewFakeADC(samples ...uint32) *FakeADC {
	return &FakeADC{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeADC) Read() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// SetError makes subsequent reads fail with err (nil clears it).
func (f *FakeADC) SetError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// FakeInputs reports fixed input levels.
type FakeInputs struct {
	Pressed  bool
	Presence bool
	Err      error
}

// Read returns the configured levels, or Err when set.
func (f *FakeInputs) Read() (pressed, presence bool, err error) {
	if f.Err != nil {
		return false, false, f.Err
	}
	return f.Pressed, f.Presence, nil
}

// FakeTimer records Start/Stop calls and fires its callback only when told to.
type FakeTimer struct {
	fn func()

	// Starts holds the period of every Start call.
	Starts []time.Duration

	// Stops counts Stop calls.
	Stops int

	// Running reports whether the timer is started.
	Running bool
}

// NewFakeTimer creates a stopped fake timer calling fn on Fire.
func NewFakeTimer(fn func()) *FakeTimer {
	return &FakeTimer{fn: fn}
}

// Start records the period and marks the timer running.
func (f *FakeTimer) Start(period time.Duration) {
	f.Starts = append(f.Starts, period)
	f.Running = period > 0
}

// Stop marks the timer stopped.
func (f *FakeTimer) Stop() {
	f.Stops++
	f.Running = false
}

// Fire runs the callback once if the timer is running.
func (f *FakeTimer) Fire() {
	if f.Running && f.fn != nil {
		f.fn()
	}
}
