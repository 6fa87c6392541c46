package wake

import (
	"context"
	"sync"
	"time"
)

// FakeTimer records arm and sleep calls and never blocks.
type FakeTimer struct {
	mu sync.Mutex

	// Armed contains every duration passed to Arm.
	Armed []time.Duration

	// Sleeps counts Sleep calls.
	Sleeps int

	// UnarmedSleeps counts Sleep calls made without a preceding Arm.
	UnarmedSleeps int

	// OnSleep, if set, runs with the 1-based sleep count before Sleep returns.
	OnSleep func(n int)

	armed bool
}

// NewFakeTimer creates a FakeTimer.
func NewFakeTimer() *FakeTimer {
	return &FakeTimer{}
}

// Arm records d.
func (f *FakeTimer) Arm(d time.Duration) {
	f.mu.Lock()
	f.Armed = append(f.Armed, d)
	f.armed = true
	f.mu.Unlock()
}

// Sleep returns immediately, or with ctx's error if it has ended.
func (f *FakeTimer) Sleep(ctx context.Context) error {
	f.mu.Lock()
	f.Sleeps++
	if !f.armed {
		f.UnarmedSleeps++
	}
	f.armed = false
	n := f.Sleeps
	hook := f.OnSleep
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}
