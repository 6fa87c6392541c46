package sensor

import (
	"context"
	"errors"
	"sync"
)

// FakeSampler is a test double that returns scripted readings.
type FakeSampler struct {
	mu sync.Mutex

	// Readings are returned in order. Once exhausted, the last reading
	// repeats.
	Readings []float64

	index int

	// Calls counts Sample invocations.
	Calls int

	// SampleError, if set, is returned by Sample.
	SampleError error

	// OnSample, if set, is called with the call count on every Sample.
	OnSample func(n int)

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSampler creates a FakeSampler with the given readings.
func NewFakeSampler(readings ...float64) *FakeSampler {
	return &FakeSampler{Readings: readings}
}

// Sample returns the next scripted reading.
func (f *FakeSampler) Sample(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.OnSample != nil {
		f.OnSample(f.Calls)
	}
	if f.SampleError != nil {
		return 0, f.SampleError
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}

	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset rewinds to the first reading.
func (f *FakeSampler) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Calls = 0
	f.Closed = false
	f.mu.Unlock()
}
