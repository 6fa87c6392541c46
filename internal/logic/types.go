// Package logic contains the pure decision logic for the water bowl monitor.
// This package has NO external dependencies (no GPIO, MQTT, storage, or time.Sleep).
// All cross-wake state is passed in and returned as a CounterRecord value.
package logic

import (
	"errors"
	"math"
)

// State is the debounce/alert state derived from a CounterRecord.
type State string

const (
	StateFull             State = "FULL"
	StateEmptyUnconfirmed State = "EMPTY_UNCONFIRMED"
	StateEmptyAlerted     State = "EMPTY_ALERTED"
)

// Notification is the notifier invocation decided for a single wake.
// At most one is produced per wake.
type Notification string

const (
	NotifyNone       Notification = ""
	NotifyFirstAlert Notification = "ALERT"
	NotifyReminder   Notification = "REMINDER"
)

// Phase is the scheduler decision taken after the state machine runs.
type Phase string

const (
	// PhaseColdBootWindow holds the device awake for the maintenance window.
	PhaseColdBootWindow Phase = "COLD_BOOT_WINDOW"
	// PhaseSleepArmed arms the wake timer and sleeps immediately.
	PhaseSleepArmed Phase = "SLEEP_ARMED"
)

// CounterRecord is the single record persisted across sleep.
// The zero value is the first-boot default.
type CounterRecord struct {
	// Wake cycles since first power-on. Never reset by the state machine.
	BootCount uint64
	// Consecutive wakes with an empty reading.
	NoWaterCount uint32
	// Wakes since the last notification while still empty.
	ReminderCount uint32
	// Whether the first alert of the current empty streak has fired.
	HaveAlerted bool
}

// Woken returns the record with BootCount advanced by one wake.
func (r CounterRecord) Woken() CounterRecord {
	if r.BootCount < math.MaxUint64 {
		r.BootCount++
	}
	return r
}

// Recovered returns the record with the debounce and alert counters reset.
// BootCount is preserved.
func (r CounterRecord) Recovered() CounterRecord {
	return CounterRecord{BootCount: r.BootCount}
}

// Config holds the fixed thresholds that drive the state machine.
type Config struct {
	// A reading strictly greater than this is "empty".
	EmptyThreshold float64
	// Consecutive empty readings required before any alert logic engages.
	DebounceStreak uint32
	// Wakes between repeat reminders once alerted.
	ReminderPeriod uint32
}

// ErrZeroDebounce is returned by Validate when DebounceStreak is zero.
var ErrZeroDebounce = errors.New("debounce streak must be at least 1")

// Validate reports configurations the state machine cannot run with.
func (c Config) Validate() error {
	if c.DebounceStreak == 0 {
		return ErrZeroDebounce
	}
	return nil
}

// Transition is the result of processing one reading.
type Transition struct {
	Record       CounterRecord
	State        State
	Notification Notification
	Empty        bool
}
