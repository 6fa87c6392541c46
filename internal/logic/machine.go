package logic

import "math"

// Step processes one reading against the persisted record and returns the
// next record together with the notification to send, if any.
//
// A full reading resets every debounce counter from any state. An empty
// reading advances the streak; once the streak exceeds DebounceStreak the
// first alert fires, and afterwards a reminder fires every time
// ReminderCount exceeds ReminderPeriod. The alert and reminder branches are
// exclusive on HaveAlerted, so a single wake never produces both.
func Step(rec CounterRecord, reading float64, cfg Config) Transition {
	if !IsEmpty(reading, cfg) {
		return Transition{
			Record: rec.Recovered(),
			State:  StateFull,
		}
	}

	if rec.NoWaterCount < math.MaxUint32 {
		rec.NoWaterCount++
	}

	if rec.NoWaterCount <= cfg.DebounceStreak {
		return Transition{
			Record: rec,
			State:  StateEmptyUnconfirmed,
			Empty:  true,
		}
	}

	t := Transition{Record: rec, State: StateEmptyAlerted, Empty: true}

	if !rec.HaveAlerted {
		t.Record.HaveAlerted = true
		t.Record.ReminderCount = 0
		t.Notification = NotifyFirstAlert
		return t
	}

	t.Record.ReminderCount++
	if t.Record.ReminderCount > cfg.ReminderPeriod {
		t.Record.ReminderCount = 0
		t.Notification = NotifyReminder
	}
	return t
}

// IsEmpty classifies a reading. Strictly greater than the threshold is empty.
func IsEmpty(reading float64, cfg Config) bool {
	return reading > cfg.EmptyThreshold
}

// Classify derives the state a stored record is in.
func Classify(rec CounterRecord) State {
	switch {
	case rec.NoWaterCount == 0:
		return StateFull
	case rec.HaveAlerted:
		return StateEmptyAlerted
	default:
		return StateEmptyUnconfirmed
	}
}

// Plan decides what the scheduler does after the state machine has run.
// Only the first wake after a cold boot holds the maintenance window open.
func Plan(rec CounterRecord) Phase {
	if rec.BootCount <= 1 {
		return PhaseColdBootWindow
	}
	return PhaseSleepArmed
}
