// Package config loads monitor settings from a YAML file, an optional .env
// file and BOWL_* environment variables, in that order of precedence
// (later wins), and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/logic"
	"github.com/sweeney/bowl-monitor/internal/notify"
	"github.com/sweeney/bowl-monitor/internal/sensor"
	"github.com/sweeney/bowl-monitor/internal/status"
	"github.com/sweeney/bowl-monitor/internal/wake"
)

// Default file locations, relative to the working directory.
const (
	DefaultPath    = "bowl-monitor.yaml"
	DefaultEnvFile = ".env"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full monitor configuration.
type Config struct {
	Device         string  `yaml:"device"`
	EmptyThreshold float64 `yaml:"empty_threshold"`
	DebounceStreak int     `yaml:"debounce_streak"`
	ReminderPeriod int     `yaml:"reminder_period"`

	SleepDuration time.Duration `yaml:"sleep_duration"`
	// WakeSchedule is an optional cron expression. When set, the monitor
	// sleeps until its next activation instead of SleepDuration.
	WakeSchedule string `yaml:"wake_schedule"`

	WindowIterations int           `yaml:"window_iterations"`
	WindowPoll       time.Duration `yaml:"window_poll"`
	// WindowResetsCounters clears the debounce counters when the cold-boot
	// window ends. Off by default: only the state machine moves them.
	WindowResetsCounters bool `yaml:"window_resets_counters"`

	DBPath   string `yaml:"db_path"`
	HTTPAddr string `yaml:"http_addr"`

	Log    LogConfig    `yaml:"log"`
	Sensor SensorConfig `yaml:"sensor"`
	Notify NotifyConfig `yaml:"notify"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	Production bool   `yaml:"production"`
}

// SensorConfig wires the GPIO sensor.
type SensorConfig struct {
	Chip         string        `yaml:"chip"`
	Pin          int           `yaml:"pin"`
	Samples      int           `yaml:"samples"`
	Interval     time.Duration `yaml:"interval"`
	DryActiveLow bool          `yaml:"dry_active_low"`
	// LEDPin lights while the maintenance window is open. -1 disables it.
	LEDPin       int  `yaml:"led_pin"`
	LEDActiveLow bool `yaml:"led_active_low"`
}

// NotifyConfig enables notifiers. A notifier is enabled when its target is set.
type NotifyConfig struct {
	// Timeout bounds the whole notification step of a wake.
	Timeout  time.Duration  `yaml:"timeout"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	Token   string        `yaml:"token"`
	ChatID  int64         `yaml:"chat_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:           "water bowl",
		EmptyThreshold:   50,
		DebounceStreak:   2,
		ReminderPeriod:   2,
		SleepDuration:    10 * time.Minute,
		WindowIterations: 60,
		WindowPoll:       time.Second,
		DBPath:           "data/bowl.db",
		HTTPAddr:         ":8080",
		Log: LogConfig{
			Dir:   "logs",
			Level: "info",
		},
		Sensor: SensorConfig{
			Chip:         sensor.DefaultChip,
			Pin:          sensor.DefaultPin,
			Samples:      sensor.DefaultSamples,
			Interval:     sensor.DefaultInterval,
			LEDPin:       -1,
			LEDActiveLow: true,
		},
		Notify: NotifyConfig{
			Timeout:  time.Minute,
			MQTT:     MQTTConfig{Topic: notify.DefaultTopic},
			Webhook:  WebhookConfig{Timeout: 10 * time.Second},
			Telegram: TelegramConfig{Timeout: 10 * time.Second},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path, the
// env file and the process environment. Missing files are not errors.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Named(logging.NameConfig).Debug("config loaded")
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// limits is the flat view of Config checked by the zog schema.
// The counters are uint32, so the streak and period are checked as float64
// to keep the upper bound representable where int is 32 bits.
type limits struct {
	EmptyThreshold   float64
	DebounceStreak   float64
	ReminderPeriod   float64
	SleepSeconds     float64
	NotifySeconds    float64
	WindowIterations int
	WindowPollMs     int
	DBPath           string
	SensorPin        int
	SensorSamples    int
	LEDPin           int
}

var limitsSchema = z.Struct(z.Shape{
	"EmptyThreshold":   z.Float64().GTE(0).LTE(100),
	"DebounceStreak":   z.Float64().Required().GTE(1).LTE(math.MaxUint32),
	"ReminderPeriod":   z.Float64().GTE(0).LTE(math.MaxUint32),
	"SleepSeconds":     z.Float64().Required().GT(0),
	"NotifySeconds":    z.Float64().Required().GT(0),
	"WindowIterations": z.Int().GTE(0),
	"WindowPollMs":     z.Int().GTE(0),
	"DBPath":           z.String().Required(),
	"SensorPin":        z.Int().GTE(0),
	"SensorSamples":    z.Int().GTE(1),
	"LEDPin":           z.Int().GTE(-1),
})

// Validate reports every configuration the monitor cannot run with.
func (c Config) Validate() error {
	l := limits{
		EmptyThreshold:   c.EmptyThreshold,
		DebounceStreak:   float64(c.DebounceStreak),
		ReminderPeriod:   float64(c.ReminderPeriod),
		SleepSeconds:     c.SleepDuration.Seconds(),
		NotifySeconds:    c.Notify.Timeout.Seconds(),
		WindowIterations: c.WindowIterations,
		WindowPollMs:     int(c.WindowPoll.Milliseconds()),
		DBPath:           c.DBPath,
		SensorPin:        c.Sensor.Pin,
		SensorSamples:    c.Sensor.Samples,
		LEDPin:           c.Sensor.LEDPin,
	}

	var problems []string
	if issues := limitsSchema.Validate(&l); len(issues) > 0 {
		keys := make([]string, 0, len(issues))
		for k := range issues {
			// zog adds a "$first" convenience key
			if strings.HasPrefix(k, "$") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, iss := range issues[k] {
				problems = append(problems, fmt.Sprintf("%s: %s", k, iss.Message))
			}
		}
	}

	if _, err := wake.Schedule(c.WakeSchedule, c.SleepDuration); err != nil {
		problems = append(problems, err.Error())
	}
	if url := c.Notify.Webhook.URL; url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		problems = append(problems, fmt.Sprintf("webhook url %q must be http or https", url))
	}
	if tg := c.Notify.Telegram; (tg.Token == "") != (tg.ChatID == 0) {
		problems = append(problems, "telegram needs both token and chat_id")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Logic returns the state machine thresholds.
func (c Config) Logic() logic.Config {
	return logic.Config{
		EmptyThreshold: c.EmptyThreshold,
		DebounceStreak: uint32(c.DebounceStreak),
		ReminderPeriod: uint32(c.ReminderPeriod),
	}
}

// Notifiers names the enabled notifiers in a fixed order.
func (c Config) Notifiers() []string {
	var names []string
	if c.Notify.MQTT.Broker != "" {
		names = append(names, "mqtt")
	}
	if c.Notify.Webhook.URL != "" {
		names = append(names, "webhook")
	}
	if c.Notify.Telegram.Token != "" {
		names = append(names, "telegram")
	}
	return names
}

// Logging returns the logger options.
func (c Config) Logging() logging.Options {
	return logging.Options{
		Dir:        c.Log.Dir,
		Level:      c.Log.Level,
		Production: c.Log.Production,
	}
}

// SensorOptions returns the GPIO sampler options.
func (c Config) SensorOptions() sensor.Options {
	return sensor.Options{
		Chip:         c.Sensor.Chip,
		Pin:          c.Sensor.Pin,
		Samples:      c.Sensor.Samples,
		Interval:     c.Sensor.Interval,
		DryActiveLow: c.Sensor.DryActiveLow,
	}
}

// IndicatorOptions returns the maintenance LED options, or false when no
// LED is configured.
func (c Config) IndicatorOptions() (sensor.IndicatorOptions, bool) {
	if c.Sensor.LEDPin < 0 {
		return sensor.IndicatorOptions{}, false
	}
	return sensor.IndicatorOptions{
		Chip:      c.Sensor.Chip,
		Pin:       c.Sensor.LEDPin,
		ActiveLow: c.Sensor.LEDActiveLow,
	}, true
}

// Status returns the display config for the status tracker.
func (c Config) Status() status.Config {
	return status.Config{
		Device:           c.Device,
		EmptyThreshold:   c.EmptyThreshold,
		DebounceStreak:   uint32(c.DebounceStreak),
		ReminderPeriod:   uint32(c.ReminderPeriod),
		SleepSeconds:     int64(c.SleepDuration.Seconds()),
		WakeSchedule:     c.WakeSchedule,
		WindowIterations: c.WindowIterations,
		Notifiers:        c.Notifiers(),
		HTTPAddr:         c.HTTPAddr,
	}
}
