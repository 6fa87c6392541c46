package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/bowl-monitor/internal/config"
	"github.com/sweeney/bowl-monitor/internal/cycle"
	"github.com/sweeney/bowl-monitor/internal/notify"
	"github.com/sweeney/bowl-monitor/internal/sensor"
	"github.com/sweeney/bowl-monitor/internal/status"
	"github.com/sweeney/bowl-monitor/internal/store"
	"github.com/sweeney/bowl-monitor/internal/wake"
	"github.com/sweeney/bowl-monitor/internal/web"
)

// Hardware and timer constructors, replaced in tests.
var (
	newSampler = func(opts sensor.Options) (sensor.Sampler, error) {
		return sensor.NewGPIOSampler(opts)
	}
	newIndicator = func(opts sensor.IndicatorOptions) (sensor.Indicator, error) {
		return sensor.NewGPIOIndicator(opts)
	}
	newTimer = func() wake.Timer {
		return wake.NewRealTimer()
	}
)

// monitor is a fully wired runner and the resources it owns.
type monitor struct {
	runner    *cycle.Runner
	store     store.Store
	sampler   sensor.Sampler
	indicator sensor.Indicator
}

func (m *monitor) Close() error {
	var errs []error
	if m.indicator != nil {
		errs = append(errs, m.indicator.Close())
	}
	return errors.Join(append(errs, m.sampler.Close(), m.store.Close())...)
}

func buildMonitor(cfg config.Config) (*monitor, error) {
	schedule, err := wake.Schedule(cfg.WakeSchedule, cfg.SleepDuration)
	if err != nil {
		return nil, err
	}

	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	sampler, err := newSampler(cfg.SensorOptions())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init sensor: %w", err)
	}

	var indicator sensor.Indicator
	if ledOpts, ok := cfg.IndicatorOptions(); ok {
		indicator, err = newIndicator(ledOpts)
		if err != nil {
			sampler.Close()
			st.Close()
			return nil, fmt.Errorf("init indicator: %w", err)
		}
	}

	tracker := status.NewTracker(time.Now(), cfg.Status())

	opts := cycle.Options{
		Store:                st,
		Sampler:              sampler,
		Notifier:             buildNotifier(cfg),
		Timer:                newTimer(),
		Schedule:             schedule,
		Tracker:              tracker,
		Logic:                cfg.Logic(),
		Device:               cfg.Device,
		WindowIterations:     cfg.WindowIterations,
		WindowPoll:           cfg.WindowPoll,
		WindowResetsCounters: cfg.WindowResetsCounters,
		NotifyTimeout:        cfg.Notify.Timeout,
		Indicator:            indicator,
	}
	if cfg.HTTPAddr != "" {
		opts.Window = web.New(cfg.HTTPAddr, tracker)
	}

	m := &monitor{store: st, sampler: sampler, indicator: indicator}
	m.runner, err = cycle.New(opts)
	if err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// buildNotifier fans out to every configured transport. Alerts are always
// logged as well.
func buildNotifier(cfg config.Config) notify.Notifier {
	var multi notify.Multi
	n := cfg.Notify
	if n.MQTT.Broker != "" {
		multi = append(multi, notify.NewMQTTNotifier(notify.MQTTOptions{
			Broker:   n.MQTT.Broker,
			Topic:    n.MQTT.Topic,
			Username: n.MQTT.Username,
			Password: n.MQTT.Password,
		}))
	}
	if n.Webhook.URL != "" {
		multi = append(multi, notify.NewWebhookNotifier(n.Webhook.URL, n.Webhook.Timeout))
	}
	if n.Telegram.Token != "" {
		multi = append(multi, notify.NewTelegramNotifier(n.Telegram.Token, n.Telegram.ChatID, n.Telegram.Timeout))
	}
	if len(multi) == 0 {
		return notify.LogNotifier{}
	}
	return append(multi, notify.LogNotifier{})
}
