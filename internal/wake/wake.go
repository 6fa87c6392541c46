// Package wake models the low-power sleep entry and its wake timer.
// On a host without deep sleep, sleeping blocks the process until the armed
// timer fires; the caller then starts a fresh wake cycle from the store.
package wake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Timer arms a timed wake and enters sleep.
type Timer interface {
	// Arm sets the wake timer. It must be called before Sleep on every path
	// that intends a timed wake.
	Arm(d time.Duration)

	// Sleep suspends until the armed timer fires. Without Arm it returns
	// only when ctx ends, the equivalent of waiting for an external reset.
	Sleep(ctx context.Context) error
}

// Schedule returns the wake schedule. An empty expr wakes every fallback
// interval; otherwise expr is a standard five-field cron expression.
func Schedule(expr string, fallback time.Duration) (cron.Schedule, error) {
	if expr == "" {
		return cron.Every(fallback), nil
	}
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse wake schedule %q: %w", expr, err)
	}
	return s, nil
}

// Delay returns how long to sleep from now until the schedule's next wake.
// A fixed interval is returned as is; cron would round it to the second.
func Delay(s cron.Schedule, now time.Time) time.Duration {
	if every, ok := s.(cron.ConstantDelaySchedule); ok {
		return every.Delay
	}
	d := s.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RealTimer blocks the calling goroutine for the armed duration.
type RealTimer struct {
	mu       sync.Mutex
	deadline time.Time
	armed    bool
	now      func() time.Time
}

// NewRealTimer creates an unarmed timer.
func NewRealTimer() *RealTimer {
	return &RealTimer{now: time.Now}
}

// Arm sets the wake deadline d from now.
func (t *RealTimer) Arm(d time.Duration) {
	t.mu.Lock()
	t.deadline = t.now().Add(d)
	t.armed = true
	t.mu.Unlock()
}

// Deadline returns the armed wake time.
func (t *RealTimer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline, t.armed
}

// Sleep blocks until the deadline or until ctx ends. The timer is disarmed
// on return.
func (t *RealTimer) Sleep(ctx context.Context) error {
	t.mu.Lock()
	deadline, armed := t.deadline, t.armed
	t.armed = false
	t.mu.Unlock()

	if !armed {
		<-ctx.Done()
		return ctx.Err()
	}

	timer := time.NewTimer(deadline.Sub(t.now()))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
