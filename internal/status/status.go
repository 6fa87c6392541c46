// Package status provides a thread-safe view of the monitor's latest wake
// cycle. It is written by the cycle runner and read by the maintenance
// window's HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/bowl-monitor/internal/logic"
)

// HistorySize is how many recent readings the tracker keeps.
const HistorySize = 120

// Config contains monitor configuration for display.
type Config struct {
	Device           string
	EmptyThreshold   float64
	DebounceStreak   uint32
	ReminderPeriod   uint32
	SleepSeconds     int64
	WakeSchedule     string
	WindowIterations int
	Notifiers        []string
	HTTPAddr         string
}

// Cycle summarises one completed wake.
type Cycle struct {
	ID           string
	At           time.Time
	Reading      float64
	SampleError  string
	Record       logic.CounterRecord
	State        logic.State
	Phase        logic.Phase
	Notification logic.Notification
	NotifyError  string
}

// Window tracks progress through the cold-boot maintenance window.
type Window struct {
	Open      bool
	Iteration int
	Budget    int
}

// Snapshot is a point-in-time view of monitor state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	LastCycle *Cycle
	Window    Window
	History   []Reading
	Alerts    int
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the process started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable monitor state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	history *ringBuffer
	now     func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		history: newRingBuffer(HistorySize),
		now:     time.Now,
	}
}

// RecordCycle stores the outcome of a wake cycle. Successful samples are
// appended to the reading history.
func (t *Tracker) RecordCycle(c Cycle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.LastCycle = &c
	if c.Notification != logic.NotifyNone {
		t.snap.Alerts++
	}
	if c.SampleError == "" {
		t.history.push(Reading{Time: c.At, Value: c.Reading, Empty: c.State != logic.StateFull})
	}
}

// RecordReset replaces the last cycle's counters after the maintenance
// window resets them. It is a no-op before the first wake.
func (t *Tracker) RecordReset(rec logic.CounterRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.LastCycle == nil {
		return
	}
	c := *t.snap.LastCycle
	c.Record = rec
	c.State = logic.Classify(rec)
	t.snap.LastCycle = &c
}

// OpenWindow marks the maintenance window open with the given budget.
func (t *Tracker) OpenWindow(budget int) {
	t.mu.Lock()
	t.snap.Window = Window{Open: true, Budget: budget}
	t.mu.Unlock()
}

// RecordWindowSample stores an observability reading taken inside the window.
func (t *Tracker) RecordWindowSample(iteration int, r Reading) {
	t.mu.Lock()
	t.snap.Window.Iteration = iteration
	t.history.push(r)
	t.mu.Unlock()
}

// CloseWindow marks the maintenance window closed.
func (t *Tracker) CloseWindow() {
	t.mu.Lock()
	t.snap.Window.Open = false
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the monitor state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastCycle != nil {
		c := *s.LastCycle
		s.LastCycle = &c
	}
	s.History = t.history.all()
	s.Config.Notifiers = append([]string(nil), s.Config.Notifiers...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
