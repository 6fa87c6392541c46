package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string        `json:"state"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	AlertsSent    int           `json:"alerts_sent"`
	Counters      CountersJSON  `json:"counters"`
	LastCycle     *CycleJSON    `json:"last_cycle,omitempty"`
	Window        WindowJSON    `json:"window"`
	History       []ReadingJSON `json:"history"`
	Config        ConfigJSON    `json:"config"`
}

// CountersJSON is the JSON representation of the persisted record.
type CountersJSON struct {
	Boot        uint64 `json:"boot"`
	NoWater     uint32 `json:"no_water"`
	Reminder    uint32 `json:"reminder"`
	HaveAlerted bool   `json:"have_alerted"`
}

// CycleJSON is the JSON representation of the last wake.
type CycleJSON struct {
	ID           string  `json:"id"`
	At           string  `json:"at"`
	Reading      float64 `json:"reading"`
	SampleError  string  `json:"sample_error,omitempty"`
	Phase        string  `json:"phase"`
	Notification string  `json:"notification,omitempty"`
	NotifyError  string  `json:"notify_error,omitempty"`
}

// WindowJSON is the JSON representation of the maintenance window.
type WindowJSON struct {
	Open      bool `json:"open"`
	Iteration int  `json:"iteration"`
	Budget    int  `json:"budget"`
}

// ReadingJSON is one history entry.
type ReadingJSON struct {
	At    string  `json:"at"`
	Value float64 `json:"value"`
	Empty bool    `json:"empty"`
}

// ConfigJSON is the JSON representation of monitor config.
type ConfigJSON struct {
	Device           string   `json:"device,omitempty"`
	EmptyThreshold   float64  `json:"empty_threshold"`
	DebounceStreak   uint32   `json:"debounce_streak"`
	ReminderPeriod   uint32   `json:"reminder_period"`
	SleepSeconds     int64    `json:"sleep_seconds"`
	WakeSchedule     string   `json:"wake_schedule,omitempty"`
	WindowIterations int      `json:"window_iterations"`
	Notifiers        []string `json:"notifiers"`
	HTTPAddr         string   `json:"http_addr"`
}

// StateString returns the snapshot's state, or UNKNOWN before the first wake.
func (s Snapshot) StateString() string {
	if s.LastCycle == nil || s.LastCycle.State == "" {
		return "UNKNOWN"
	}
	return string(s.LastCycle.State)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         snap.StateString(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		AlertsSent:    snap.Alerts,
		Window:        WindowJSON{Open: snap.Window.Open, Iteration: snap.Window.Iteration, Budget: snap.Window.Budget},
		History:       []ReadingJSON{},
		Config: ConfigJSON{
			Device:           snap.Config.Device,
			EmptyThreshold:   snap.Config.EmptyThreshold,
			DebounceStreak:   snap.Config.DebounceStreak,
			ReminderPeriod:   snap.Config.ReminderPeriod,
			SleepSeconds:     snap.Config.SleepSeconds,
			WakeSchedule:     snap.Config.WakeSchedule,
			WindowIterations: snap.Config.WindowIterations,
			Notifiers:        snap.Config.Notifiers,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
	if inner.Config.Notifiers == nil {
		inner.Config.Notifiers = []string{}
	}

	if c := snap.LastCycle; c != nil {
		inner.Counters = CountersJSON{
			Boot:        c.Record.BootCount,
			NoWater:     c.Record.NoWaterCount,
			Reminder:    c.Record.ReminderCount,
			HaveAlerted: c.Record.HaveAlerted,
		}
		inner.LastCycle = &CycleJSON{
			ID:           c.ID,
			At:           c.At.UTC().Format(time.RFC3339),
			Reading:      c.Reading,
			SampleError:  c.SampleError,
			Phase:        string(c.Phase),
			Notification: string(c.Notification),
			NotifyError:  c.NotifyError,
		}
	}

	for _, r := range snap.History {
		inner.History = append(inner.History, ReadingJSON{
			At:    r.Time.UTC().Format(time.RFC3339),
			Value: r.Value,
			Empty: r.Empty,
		})
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
