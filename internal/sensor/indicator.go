package sensor

import "sync"

// Indicator is a status light. The monitor lights it while the maintenance
// window is open.
type Indicator interface {
	Set(on bool) error
	Close() error
}

// IndicatorOptions configures a GPIO indicator LED.
type IndicatorOptions struct {
	Chip string
	Pin  int
	// ActiveLow lights the LED by driving the line low.
	ActiveLow bool
}

// level returns the raw line value for the requested light state.
func (o IndicatorOptions) level(on bool) int {
	if on != o.ActiveLow {
		return 1
	}
	return 0
}

// FakeIndicator records every state it is set to.
type FakeIndicator struct {
	mu sync.Mutex

	// States contains every value passed to Set.
	States []bool

	// SetError, if set, is returned by Set.
	SetError error

	Closed bool
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records on.
func (f *FakeIndicator) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.States = append(f.States, on)
	return f.SetError
}

// On reports the last state set.
func (f *FakeIndicator) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.States) > 0 && f.States[len(f.States)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
