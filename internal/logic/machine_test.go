package logic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{EmptyThreshold: 10, DebounceStreak: 2, ReminderPeriod: 2}

// run feeds readings through Step starting from rec and returns every transition.
func run(rec CounterRecord, cfg Config, readings ...float64) []Transition {
	out := make([]Transition, 0, len(readings))
	for _, r := range readings {
		rec = rec.Woken()
		tr := Step(rec, r, cfg)
		out = append(out, tr)
		rec = tr.Record
	}
	return out
}

func notifications(trs []Transition) []Notification {
	var out []Notification
	for _, tr := range trs {
		if tr.Notification != NotifyNone {
			out = append(out, tr.Notification)
		}
	}
	return out
}

func TestStepFullResetsFromAnyState(t *testing.T) {
	starts := map[string]CounterRecord{
		"default":     {},
		"unconfirmed": {BootCount: 4, NoWaterCount: 2},
		"alerted":     {BootCount: 9, NoWaterCount: 7, ReminderCount: 1, HaveAlerted: true},
		"saturated":   {BootCount: 11, NoWaterCount: math.MaxUint32, ReminderCount: 2, HaveAlerted: true},
	}

	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			for _, reading := range []float64{-3, 0, 9.99, 10} {
				tr := Step(start, reading, testConfig)
				assert.Equal(t, StateFull, tr.State)
				assert.Equal(t, NotifyNone, tr.Notification)
				assert.False(t, tr.Empty)
				assert.Zero(t, tr.Record.NoWaterCount)
				assert.Zero(t, tr.Record.ReminderCount)
				assert.False(t, tr.Record.HaveAlerted)
				assert.Equal(t, start.BootCount, tr.Record.BootCount, "boot count must survive recovery")
			}
		})
	}
}

func TestStepFullIsIdempotent(t *testing.T) {
	rec := CounterRecord{BootCount: 3}
	for i := 0; i < 50; i++ {
		tr := Step(rec, 5, testConfig)
		require.Equal(t, CounterRecord{BootCount: 3}, tr.Record, "iteration %d", i)
		rec = tr.Record
	}
}

func TestStepThresholdIsStrict(t *testing.T) {
	assert.False(t, IsEmpty(10, testConfig))
	assert.True(t, IsEmpty(10.0001, testConfig))
}

func TestStepFirstAlertAfterDebounceStreak(t *testing.T) {
	trs := run(CounterRecord{}, testConfig, 15, 15, 15)

	assert.Equal(t, StateEmptyUnconfirmed, trs[0].State)
	assert.Equal(t, NotifyNone, trs[0].Notification)
	assert.Equal(t, uint32(1), trs[0].Record.NoWaterCount)

	assert.Equal(t, StateEmptyUnconfirmed, trs[1].State)
	assert.Equal(t, NotifyNone, trs[1].Notification)
	assert.Equal(t, uint32(2), trs[1].Record.NoWaterCount)

	assert.Equal(t, StateEmptyAlerted, trs[2].State)
	assert.Equal(t, NotifyFirstAlert, trs[2].Notification)
	assert.True(t, trs[2].Record.HaveAlerted)
	assert.Zero(t, trs[2].Record.ReminderCount)
}

func TestStepHaveAlertedHoldsUntilRecovery(t *testing.T) {
	trs := run(CounterRecord{}, testConfig, 15, 15, 15, 15, 15, 15, 15, 15, 15)
	for i, tr := range trs[2:] {
		assert.True(t, tr.Record.HaveAlerted, "wake %d", i+3)
	}
	assert.Equal(t, []Notification{NotifyFirstAlert}, notifications(trs[:3]))
}

func TestStepReminderAfterPeriod(t *testing.T) {
	// Alert on wake 3, then ReminderPeriod+1 more empty wakes fire one reminder.
	trs := run(CounterRecord{}, testConfig, 15, 15, 15, 15, 15, 15)

	assert.Equal(t, uint32(1), trs[3].Record.ReminderCount)
	assert.Equal(t, uint32(2), trs[4].Record.ReminderCount)
	assert.Equal(t, NotifyNone, trs[4].Notification)

	assert.Equal(t, NotifyReminder, trs[5].Notification)
	assert.Zero(t, trs[5].Record.ReminderCount)
	assert.Equal(t, StateEmptyAlerted, trs[5].State)

	assert.Equal(t, []Notification{NotifyFirstAlert, NotifyReminder}, notifications(trs))
}

func TestStepRemindersRepeatEveryPeriod(t *testing.T) {
	readings := make([]float64, 15)
	for i := range readings {
		readings[i] = 15
	}
	trs := run(CounterRecord{}, testConfig, readings...)

	var fired []int
	for i, tr := range trs {
		if tr.Notification != NotifyNone {
			fired = append(fired, i+1)
		}
	}
	// Alert on wake 3, reminders every ReminderPeriod+1 wakes after that.
	assert.Equal(t, []int{3, 6, 9, 12, 15}, fired)
}

func TestStepZeroReminderPeriodRemindsEveryWake(t *testing.T) {
	cfg := Config{EmptyThreshold: 10, DebounceStreak: 1, ReminderPeriod: 0}
	trs := run(CounterRecord{}, cfg, 11, 11, 11, 11)
	assert.Equal(t, []Notification{NotifyFirstAlert, NotifyReminder, NotifyReminder}, notifications(trs))
}

func TestStepNeverFiresTwiceInOneWake(t *testing.T) {
	// A record one short of alerting, with a reminder count already past the
	// period, still only produces the first alert.
	rec := CounterRecord{BootCount: 5, NoWaterCount: 2, ReminderCount: 9}
	tr := Step(rec, 15, testConfig)
	assert.Equal(t, NotifyFirstAlert, tr.Notification)
	assert.Zero(t, tr.Record.ReminderCount)
}

func TestStepSaturatesNoWaterCount(t *testing.T) {
	rec := CounterRecord{NoWaterCount: math.MaxUint32, HaveAlerted: true}
	tr := Step(rec, 15, testConfig)
	assert.Equal(t, uint32(math.MaxUint32), tr.Record.NoWaterCount)
	assert.True(t, tr.Empty)
}

func TestScenarioFiveEmptyWakes(t *testing.T) {
	trs := run(CounterRecord{}, testConfig, 15, 15, 15, 15, 15)

	assert.Equal(t, []Notification{NotifyFirstAlert}, notifications(trs))

	last := trs[4].Record
	assert.Equal(t, uint64(5), last.BootCount)
	assert.Equal(t, uint32(5), last.NoWaterCount)
	assert.Equal(t, uint32(2), last.ReminderCount)
	assert.True(t, last.HaveAlerted)
}

func TestScenarioAlertThenRecovery(t *testing.T) {
	trs := run(CounterRecord{}, testConfig, 15, 15, 15, 5)

	assert.Equal(t, NotifyFirstAlert, trs[2].Notification)
	assert.Equal(t, StateFull, trs[3].State)
	assert.Equal(t, CounterRecord{BootCount: 4}, trs[3].Record)

	// More full wakes after recovery never remind.
	more := run(trs[3].Record, testConfig, 5, 5, 5, 5)
	assert.Empty(t, notifications(more))
}

func TestScenarioFlappingNeverAlerts(t *testing.T) {
	trs := run(CounterRecord{}, testConfig, 15, 15, 5, 15, 15, 5, 15, 15, 5)
	assert.Empty(t, notifications(trs))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StateFull, Classify(CounterRecord{BootCount: 7}))
	assert.Equal(t, StateEmptyUnconfirmed, Classify(CounterRecord{NoWaterCount: 1}))
	assert.Equal(t, StateEmptyAlerted, Classify(CounterRecord{NoWaterCount: 3, HaveAlerted: true}))
}

func TestWoken(t *testing.T) {
	assert.Equal(t, uint64(1), CounterRecord{}.Woken().BootCount)
	assert.Equal(t, uint64(math.MaxUint64), CounterRecord{BootCount: math.MaxUint64}.Woken().BootCount)

	rec := CounterRecord{BootCount: 2, NoWaterCount: 3, ReminderCount: 1, HaveAlerted: true}
	woken := rec.Woken()
	assert.Equal(t, rec.NoWaterCount, woken.NoWaterCount)
	assert.Equal(t, rec.ReminderCount, woken.ReminderCount)
	assert.Equal(t, rec.HaveAlerted, woken.HaveAlerted)
}

func TestPlan(t *testing.T) {
	assert.Equal(t, PhaseColdBootWindow, Plan(CounterRecord{}))
	assert.Equal(t, PhaseColdBootWindow, Plan(CounterRecord{BootCount: 1}))
	assert.Equal(t, PhaseSleepArmed, Plan(CounterRecord{BootCount: 2}))
	assert.Equal(t, PhaseSleepArmed, Plan(CounterRecord{BootCount: 1 << 40, NoWaterCount: 4}))
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, Config{EmptyThreshold: 10}.Validate(), ErrZeroDebounce)
	assert.NoError(t, testConfig.Validate())
}
