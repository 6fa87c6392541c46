package config

import (
	"fmt"
	"strconv"
	"time"
)

type lookupFunc func(key string) (string, bool)

// applyEnv overrides cfg from BOWL_* variables.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("BOWL_DEVICE", &cfg.Device)
	e.float("BOWL_EMPTY_THRESHOLD", &cfg.EmptyThreshold)
	e.int("BOWL_DEBOUNCE_STREAK", &cfg.DebounceStreak)
	e.int("BOWL_REMINDER_PERIOD", &cfg.ReminderPeriod)
	e.duration("BOWL_SLEEP_DURATION", &cfg.SleepDuration)
	e.str("BOWL_WAKE_SCHEDULE", &cfg.WakeSchedule)
	e.int("BOWL_WINDOW_ITERATIONS", &cfg.WindowIterations)
	e.duration("BOWL_WINDOW_POLL", &cfg.WindowPoll)
	e.bool("BOWL_WINDOW_RESETS_COUNTERS", &cfg.WindowResetsCounters)
	e.str("BOWL_DB_PATH", &cfg.DBPath)
	e.str("BOWL_HTTP_ADDR", &cfg.HTTPAddr)

	e.str("BOWL_LOG_DIR", &cfg.Log.Dir)
	e.str("BOWL_LOG_LEVEL", &cfg.Log.Level)
	if v, ok := lookup("GO_ENV"); ok {
		cfg.Log.Production = v == "production"
	}

	e.str("BOWL_SENSOR_CHIP", &cfg.Sensor.Chip)
	e.int("BOWL_SENSOR_PIN", &cfg.Sensor.Pin)
	e.int("BOWL_SENSOR_LED_PIN", &cfg.Sensor.LEDPin)

	e.duration("BOWL_NOTIFY_TIMEOUT", &cfg.Notify.Timeout)

	e.str("BOWL_MQTT_BROKER", &cfg.Notify.MQTT.Broker)
	e.str("BOWL_MQTT_TOPIC", &cfg.Notify.MQTT.Topic)
	e.str("BOWL_MQTT_USERNAME", &cfg.Notify.MQTT.Username)
	e.str("BOWL_MQTT_PASSWORD", &cfg.Notify.MQTT.Password)
	e.str("BOWL_WEBHOOK_URL", &cfg.Notify.Webhook.URL)
	e.str("BOWL_TELEGRAM_TOKEN", &cfg.Notify.Telegram.Token)
	e.int64("BOWL_TELEGRAM_CHAT_ID", &cfg.Notify.Telegram.ChatID)
	e.duration("BOWL_TELEGRAM_TIMEOUT", &cfg.Notify.Telegram.Timeout)

	return e.err
}

// envReader records the first parse failure and ignores later variables.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(key, v string, err error) {
	e.err = fmt.Errorf("env %s=%q: %w", key, v, err)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}
