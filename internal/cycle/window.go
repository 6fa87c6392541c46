package cycle

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sweeney/bowl-monitor/internal/logic"
	"github.com/sweeney/bowl-monitor/internal/status"
)

const windowCloseTimeout = 5 * time.Second

// maintenance holds the monitor awake for the cold-boot window. Samples
// taken here are for observability only and never touch the counters.
func (r *Runner) maintenance(ctx context.Context) error {
	budget := r.opts.WindowIterations
	log := r.log.With(zap.Int("budget", budget))

	if r.opts.Window != nil {
		if err := r.opts.Window.Open(); err != nil {
			log.Warn("maintenance window unavailable", zap.Error(err))
		} else {
			defer r.closeWindow(ctx)
		}
	}
	if r.opts.Tracker != nil {
		r.opts.Tracker.OpenWindow(budget)
		defer r.opts.Tracker.CloseWindow()
	}
	if r.opts.Indicator != nil {
		r.setIndicator(true)
		defer r.setIndicator(false)
	}

	limit := rate.Inf
	if r.opts.WindowPoll > 0 {
		limit = rate.Every(r.opts.WindowPoll)
	}
	limiter := rate.NewLimiter(limit, 1)

	log.Info("cold boot window started", zap.Duration("poll", r.opts.WindowPoll))
	for i := 1; i <= budget; i++ {
		if err := limiter.Wait(ctx); err != nil {
			log.Info("cold boot window interrupted", zap.Int("iteration", i))
			return err
		}

		v, err := r.opts.Sampler.Sample(ctx)
		if err != nil {
			log.Warn("window sample failed", zap.Int("iteration", i), zap.Error(err))
			continue
		}
		empty := logic.IsEmpty(v, r.opts.Logic)
		log.Debug("window sample", zap.Int("iteration", i), zap.Float64("reading", v), zap.Bool("empty", empty))
		if r.opts.Tracker != nil {
			r.opts.Tracker.RecordWindowSample(i, status.Reading{Time: r.opts.Now(), Value: v, Empty: empty})
		}
	}
	log.Info("cold boot window finished")

	if r.opts.WindowResetsCounters {
		r.resetCounters(ctx)
	}
	return nil
}

func (r *Runner) closeWindow(ctx context.Context) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), windowCloseTimeout)
	defer cancel()
	if err := r.opts.Window.Close(cctx); err != nil {
		r.log.Warn("close maintenance window", zap.Error(err))
	}
}

func (r *Runner) setIndicator(on bool) {
	if err := r.opts.Indicator.Set(on); err != nil {
		r.log.Warn("set window indicator", zap.Bool("on", on), zap.Error(err))
	}
}

// resetCounters clears the debounce state after the window, keeping BootCount.
func (r *Runner) resetCounters(ctx context.Context) {
	rec, err := r.opts.Store.Load(ctx)
	if err != nil {
		r.log.Warn("load counters for window reset", zap.Error(err))
		return
	}
	rec = rec.Recovered()
	if err := r.opts.Store.Save(ctx, rec); err != nil {
		r.log.Error("save counters after window reset", zap.Error(err))
		return
	}
	if r.opts.Tracker != nil {
		r.opts.Tracker.RecordReset(rec)
	}
	r.log.Info("counters reset after cold boot window", zap.Uint64("boot", rec.BootCount))
}
