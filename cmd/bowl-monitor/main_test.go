package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/bowl-monitor/internal/config"
	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/notify"
	"github.com/sweeney/bowl-monitor/internal/sensor"
	"github.com/sweeney/bowl-monitor/internal/wake"
)

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bowl-monitor", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"run", "once", "status", "clear"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := newRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "bowl-monitor.yaml", configFlag.DefValue)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)

	statusCmd, _, err := cmd.Find([]string{"status"})
	require.NoError(t, err)
	formatFlag := statusCmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

// setup writes a config that needs no hardware, network or HTTP port, and
// swaps in a scripted sampler.
func setup(t *testing.T, readings ...float64) (configPath, dbPath string, sampler *sensor.FakeSampler) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "bowl.db")
	configPath = filepath.Join(dir, "bowl-monitor.yaml")
	cfg := "db_path: " + dbPath + "\n" +
		"http_addr: \"\"\n" +
		"window_iterations: 2\n" +
		"window_poll: 1ms\n" +
		"log:\n  dir: \"\"\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	sampler = sensor.NewFakeSampler(readings...)
	oldSampler, oldTimer, oldIndicator := newSampler, newTimer, newIndicator
	newSampler = func(sensor.Options) (sensor.Sampler, error) { return sampler, nil }
	newTimer = func() wake.Timer { return wake.NewFakeTimer() }
	t.Cleanup(func() {
		newSampler, newTimer, newIndicator = oldSampler, oldTimer, oldIndicator
		logging.SetNop()
	})
	return configPath, dbPath, sampler
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOnceAdvancesPersistedCounters(t *testing.T) {
	configPath, _, sampler := setup(t, 80)

	out, err := execute(t, "once", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "boot=1")
	assert.Contains(t, out, "next_wake_in=10m0s")
	assert.Equal(t, 3, sampler.Calls, "wake sample plus two window samples")

	for i := 0; i < 3; i++ {
		_, err = execute(t, "once", "-c", configPath, "--env-file", "")
		require.NoError(t, err)
	}

	out, err = execute(t, "status", "-c", configPath, "--env-file", "", "--format", "json")
	require.NoError(t, err)

	var st statusJSON
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, uint64(4), st.Counters.Boot)
	// Alerted on wake 3, one wake into the reminder period.
	assert.Equal(t, uint32(4), st.Counters.NoWater)
	assert.Equal(t, uint32(1), st.Counters.Reminder)
	assert.True(t, st.Counters.HaveAlerted)
	assert.Equal(t, "EMPTY_ALERTED", st.State)
	assert.Equal(t, "SLEEP_ARMED", st.Phase)
}

func TestOnceAlertsOnThirdEmptyWakeWithDefaults(t *testing.T) {
	configPath, _, _ := setup(t, 80)

	var outputs []string
	for i := 0; i < 3; i++ {
		out, err := execute(t, "once", "-c", configPath, "--env-file", "")
		require.NoError(t, err)
		outputs = append(outputs, out)
	}
	assert.Contains(t, outputs[0], "notification=NONE")
	assert.Contains(t, outputs[1], "notification=NONE")
	assert.Contains(t, outputs[2], "notification=ALERT")
}

func TestOnceDrivesIndicatorDuringWindow(t *testing.T) {
	configPath, _, _ := setup(t, 10)
	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("sensor:\n  led_pin: 27\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	led := sensor.NewFakeIndicator()
	var got sensor.IndicatorOptions
	newIndicator = func(opts sensor.IndicatorOptions) (sensor.Indicator, error) {
		got = opts
		return led, nil
	}

	_, err = execute(t, "once", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Equal(t, 27, got.Pin)
	assert.True(t, got.ActiveLow)
	assert.Equal(t, []bool{true, false}, led.States)
	assert.True(t, led.Closed)

	// Warm wakes leave the LED dark.
	_, err = execute(t, "once", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, led.States)
}

func TestStatusTextOnEmptyStore(t *testing.T) {
	configPath, _, _ := setup(t)

	out, err := execute(t, "status", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "state:       FULL")
	assert.Contains(t, out, "boot:        0")
	assert.Contains(t, out, "next_phase:  COLD_BOOT_WINDOW")
}

func TestStatusRejectsUnknownFormat(t *testing.T) {
	configPath, _, _ := setup(t)
	_, err := execute(t, "status", "-c", configPath, "--env-file", "", "--format", "xml")
	assert.Error(t, err)
}

func TestClearRestartsAtColdBoot(t *testing.T) {
	configPath, _, _ := setup(t, 10)

	for i := 0; i < 2; i++ {
		_, err := execute(t, "once", "-c", configPath, "--env-file", "")
		require.NoError(t, err)
	}

	out, err := execute(t, "clear", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "counters cleared")

	out, err = execute(t, "once", "-c", configPath, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "boot=1")
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	configPath, _, sampler := setup(t, 10)
	require.NoError(t, os.WriteFile(configPath, []byte("debounce_streak: 0\n"), 0o644))

	_, err := execute(t, "once", "-c", configPath, "--env-file", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid config"))
	assert.Zero(t, sampler.Calls)
}

func TestBuildNotifier(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, notify.LogNotifier{}, buildNotifier(cfg), "no transport configured")

	cfg.Notify.MQTT.Broker = "tcp://broker:1883"
	cfg.Notify.Webhook.URL = "https://example.com/hook"
	multi, ok := buildNotifier(cfg).(notify.Multi)
	require.True(t, ok)
	assert.Len(t, multi, 3, "two transports plus the log")
}
