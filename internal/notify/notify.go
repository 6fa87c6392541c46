// Package notify delivers water bowl alerts, with abstraction for testing.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/logic"
)

// Notifier sends a one-shot alert to a fixed, pre-configured target.
type Notifier interface {
	// Notify delivers the alert. Errors are non-fatal to the caller and are
	// not retried within a wake.
	Notify(ctx context.Context, alert Alert) error
}

// Alert describes why a notification is being sent. It carries no routing
// information; the target is fixed by configuration.
type Alert struct {
	CycleID      string
	Kind         logic.Notification
	Timestamp    time.Time
	Device       string
	Reading      float64
	NoWaterCount uint32
	BootCount    uint64
}

// Payload is the JSON message body for an alert.
type Payload struct {
	Bowl BowlPayload `json:"bowl"`
}

// BowlPayload contains the alert details.
type BowlPayload struct {
	Timestamp  string  `json:"timestamp"`
	Event      string  `json:"event"`
	Device     string  `json:"device"`
	CycleID    string  `json:"cycle_id"`
	Reading    float64 `json:"reading"`
	EmptyWakes uint32  `json:"empty_wakes"`
	Boot       uint64  `json:"boot"`
}

// FormatPayload creates the JSON payload for an alert.
func FormatPayload(a Alert) ([]byte, error) {
	return json.Marshal(Payload{
		Bowl: BowlPayload{
			Timestamp:  a.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(a.Kind),
			Device:     a.Device,
			CycleID:    a.CycleID,
			Reading:    a.Reading,
			EmptyWakes: a.NoWaterCount,
			Boot:       a.BootCount,
		},
	})
}

// FormatMessage renders an alert as a short human-readable line.
func FormatMessage(a Alert) string {
	device := a.Device
	if device == "" {
		device = "water bowl"
	}
	switch a.Kind {
	case logic.NotifyReminder:
		return fmt.Sprintf("Reminder: %s is still empty (%d dry checks in a row).", device, a.NoWaterCount)
	default:
		return fmt.Sprintf("Alert: %s is empty (%d dry checks in a row).", device, a.NoWaterCount)
	}
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

// Notify calls every notifier, even after one fails.
func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only logs alerts. It is used when no transport is configured.
type LogNotifier struct{}

// Notify logs the alert at warn level.
func (LogNotifier) Notify(ctx context.Context, a Alert) error {
	logging.Named(logging.NameNotify).Warn(FormatMessage(a),
		zap.String("cycle_id", a.CycleID),
		zap.String("event", string(a.Kind)),
		zap.Float64("reading", a.Reading),
	)
	return nil
}
