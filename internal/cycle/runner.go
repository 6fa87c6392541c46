// Package cycle runs wake cycles: load the counter record, sample, step the
// state machine, persist, notify, then hold the maintenance window or arm
// the wake timer. Nothing survives between wakes except what the store holds.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/logic"
	"github.com/sweeney/bowl-monitor/internal/notify"
	"github.com/sweeney/bowl-monitor/internal/sensor"
	"github.com/sweeney/bowl-monitor/internal/status"
	"github.com/sweeney/bowl-monitor/internal/store"
	"github.com/sweeney/bowl-monitor/internal/wake"
)

// Window is the maintenance channel kept reachable during the cold-boot window.
type Window interface {
	Open() error
	Close(ctx context.Context) error
}

// Options wires a Runner. Store, Sampler, Notifier, Timer and Schedule are
// required; the rest may be left zero.
type Options struct {
	Store    store.Store
	Sampler  sensor.Sampler
	Notifier notify.Notifier
	Timer    wake.Timer
	Schedule cron.Schedule

	Tracker *status.Tracker
	Window  Window
	// Indicator is lit while the maintenance window is open.
	Indicator sensor.Indicator

	Logic  logic.Config
	Device string

	// WindowIterations is the cold-boot window's sample budget.
	WindowIterations int
	// WindowPoll paces window samples. Zero means unpaced.
	WindowPoll time.Duration
	// WindowResetsCounters clears the debounce counters when the window ends.
	WindowResetsCounters bool
	// NotifyTimeout bounds each notification. Zero means DefaultNotifyTimeout.
	NotifyTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// DefaultNotifyTimeout bounds a notification when Options leaves it zero.
const DefaultNotifyTimeout = time.Minute

// Runner executes wake cycles.
type Runner struct {
	opts Options
	log  *zap.Logger
}

// New validates opts and returns a Runner.
func New(opts Options) (*Runner, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("cycle: store is required")
	case opts.Sampler == nil:
		return nil, errors.New("cycle: sampler is required")
	case opts.Notifier == nil:
		return nil, errors.New("cycle: notifier is required")
	case opts.Timer == nil:
		return nil, errors.New("cycle: timer is required")
	case opts.Schedule == nil:
		return nil, errors.New("cycle: schedule is required")
	case opts.WindowIterations < 0:
		return nil, fmt.Errorf("cycle: negative window iterations %d", opts.WindowIterations)
	case opts.NotifyTimeout < 0:
		return nil, fmt.Errorf("cycle: negative notify timeout %s", opts.NotifyTimeout)
	}
	if err := opts.Logic.Validate(); err != nil {
		return nil, fmt.Errorf("cycle: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.NotifyTimeout == 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Runner{opts: opts, log: logging.Named(logging.NameCycle)}, nil
}

// Outcome reports what one wake did.
type Outcome struct {
	ID      string
	At      time.Time
	Record  logic.CounterRecord
	State   logic.State
	Phase   logic.Phase
	Reading float64
	// LoadErr is set when the stored record could not be read. The wake ran
	// from defaults and nothing was saved.
	LoadErr error
	// SampleErr is set when the sampler failed and the state machine was skipped.
	SampleErr    error
	Notification logic.Notification
	NotifyErr    error
	SaveErr      error
}

// Wake runs one wake cycle up to, but not including, the scheduler's action.
// Collaborator failures are logged and reported in the Outcome, never returned.
func (r *Runner) Wake(ctx context.Context) Outcome {
	out := Outcome{ID: r.opts.NewID(), At: r.opts.Now()}
	log := r.log.With(zap.String("cycle_id", out.ID))

	rec, err := r.opts.Store.Load(ctx)
	if err != nil {
		log.Warn("load counters failed, using defaults", zap.Error(err))
		out.LoadErr = err
		rec = logic.CounterRecord{}
	}
	rec = rec.Woken()

	reading, err := r.opts.Sampler.Sample(ctx)
	if err != nil {
		log.Warn("sample failed, skipping state machine", zap.Error(err))
		out.SampleErr = err
		out.State = logic.Classify(rec)
	} else {
		tr := logic.Step(rec, reading, r.opts.Logic)
		rec = tr.Record
		out.Reading = reading
		out.State = tr.State
		out.Notification = tr.Notification
	}
	out.Record = rec

	// Persist before notifying so a reset mid-notify cannot repeat the alert.
	// A record that failed to load is left alone rather than overwritten
	// with one rebuilt from zero.
	if out.LoadErr == nil {
		if err := r.opts.Store.Save(ctx, rec); err != nil {
			log.Error("save counters failed", zap.Error(err))
			out.SaveErr = err
		}
	} else {
		log.Warn("skipping save after load failure")
	}

	if out.Notification != logic.NotifyNone {
		out.NotifyErr = r.notify(ctx, notify.Alert{
			CycleID:      out.ID,
			Kind:         out.Notification,
			Timestamp:    out.At,
			Device:       r.opts.Device,
			Reading:      out.Reading,
			NoWaterCount: rec.NoWaterCount,
			BootCount:    rec.BootCount,
		})
		if out.NotifyErr != nil {
			log.Warn("notify failed", zap.String("notification", string(out.Notification)), zap.Error(out.NotifyErr))
		}
	}

	out.Phase = logic.Plan(rec)

	log.Info("wake",
		zap.Uint64("boot", rec.BootCount),
		zap.Float64("reading", out.Reading),
		zap.String("state", string(out.State)),
		zap.Uint32("no_water", rec.NoWaterCount),
		zap.Uint32("reminder", rec.ReminderCount),
		zap.Bool("alerted", rec.HaveAlerted),
		zap.String("notification", string(out.Notification)),
		zap.String("phase", string(out.Phase)),
	)

	if r.opts.Tracker != nil {
		c := status.Cycle{
			ID:           out.ID,
			At:           out.At,
			Reading:      out.Reading,
			Record:       rec,
			State:        out.State,
			Phase:        out.Phase,
			Notification: out.Notification,
		}
		if out.SampleErr != nil {
			c.SampleError = out.SampleErr.Error()
		}
		if out.NotifyErr != nil {
			c.NotifyError = out.NotifyErr.Error()
		}
		r.opts.Tracker.RecordCycle(c)
	}
	return out
}

func (r *Runner) notify(ctx context.Context, a notify.Alert) error {
	nctx, cancel := context.WithTimeout(ctx, r.opts.NotifyTimeout)
	defer cancel()
	return r.opts.Notifier.Notify(nctx, a)
}

// Cycle runs a wake, the cold-boot window when the scheduler asks for it,
// and arms the wake timer. It returns the armed delay. The only error is
// ctx ending inside the window; the timer is armed regardless.
func (r *Runner) Cycle(ctx context.Context) (Outcome, time.Duration, error) {
	out := r.Wake(ctx)

	var err error
	if out.Phase == logic.PhaseColdBootWindow {
		err = r.maintenance(ctx)
	}

	delay := wake.Delay(r.opts.Schedule, r.opts.Now())
	r.opts.Timer.Arm(delay)
	r.log.Debug("wake timer armed", zap.String("cycle_id", out.ID), zap.Duration("delay", delay))
	return out, delay, err
}

// Run loops Cycle and Sleep until ctx ends, which is not an error.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if _, _, err := r.Cycle(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		if err := r.opts.Timer.Sleep(ctx); err != nil {
			if ctx.Err() != nil {
				r.log.Info("stopping", zap.Error(ctx.Err()))
				return nil
			}
			return fmt.Errorf("sleep: %w", err)
		}
	}
}
