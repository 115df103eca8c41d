package logic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepN calls Step n times at the same timestamp and returns the states visited.
func stepN(m *Model, cfg Config, now time.Time, n int) []State {
	var visited []State
	for i := 0; i < n; i++ {
		Step(m, cfg, now)
		visited = append(visited, m.State)
	}
	return visited
}

func TestNewModel(t *testing.T) {
	m := NewModel(t0)

	assert.Equal(t, StateInit, m.State)
	assert.Equal(t, ModeAuto, m.Mode)
	assert.Equal(t, t0, m.StateEnteredAt)
	assert.Equal(t, t0, m.OutputsUpdatedAt)
	assert.Equal(t, Sensors{LInt: 500, LExt: 800, Hum: 500}, m.Sensors)
	assert.Equal(t, Outputs{}, m.Outputs)
}

func TestStep_DayCycle(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)

	visited := stepN(&m, cfg, t0, 4)

	assert.Equal(t, []State{StateCheckDayNight, StateDayLight, StateDayHum, StateWait}, visited)
	// No time has passed, so nothing has ramped yet.
	assert.Equal(t, Outputs{}, m.Outputs)

	win, lamp := DayLightTargets(m.Sensors, cfg)
	assert.Equal(t, 134, win)
	assert.Equal(t, 0, lamp)
	assert.Equal(t, 13, DayHumidTarget(m.Sensors, cfg))
}

func TestStep_NightCycle(t *testing.T) {
	for _, pressed := range []bool{false, true} {
		cfg := DefaultConfig()
		m := NewModel(t0)
		m.Sensors = Sensors{LInt: 500, LExt: 100, Hum: 500, BtnPressed: pressed}

		visited := stepN(&m, cfg, t0, 4)

		assert.Equal(t, []State{StateCheckDayNight, StateNightLight, StateNightHum, StateWait}, visited)

		want := Outputs{Win: 0, Lamp: cfg.LNight, Humid: cfg.HNight}
		if pressed {
			want = Outputs{Win: 0, Lamp: cfg.LNightAlt, Humid: cfg.HNightAlt}
		}
		assert.Equal(t, want, NightTargets(m.Sensors, cfg), "pressed=%v", pressed)
	}
}

func TestStep_DayThresholdIsExclusive(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	m.Sensors.LExt = cfg.DayThreshold

	stepN(&m, cfg, t0, 2)

	assert.Equal(t, StateNightLight, m.State)
}

func TestStep_InitZeroesOutputsImmediately(t *testing.T) {
	m := NewModel(t0)
	m.Outputs = Outputs{Win: 200, Lamp: 200, Humid: 200}
	now := t0.Add(time.Minute)

	Step(&m, DefaultConfig(), now)

	assert.Equal(t, Outputs{}, m.Outputs)
	assert.Equal(t, now, m.OutputsUpdatedAt)
	assert.Equal(t, now, m.StateEnteredAt)
}

func TestStep_WaitGate(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	stepN(&m, cfg, t0, 4)
	require.Equal(t, StateWait, m.State)

	for _, d := range []time.Duration{0, time.Second, 299999 * time.Millisecond} {
		Step(&m, cfg, t0.Add(d))
		assert.Equal(t, StateWait, m.State, "elapsed %v", d)
		assert.Equal(t, t0, m.StateEnteredAt)
	}

	Step(&m, cfg, t0.Add(300000*time.Millisecond))
	assert.Equal(t, StateCheckDayNight, m.State)
	assert.Equal(t, t0.Add(5*time.Minute), m.StateEnteredAt)
}

func TestStep_WaitGateScaled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = 60 // 5 minutes become 5 seconds
	m := NewModel(t0)
	stepN(&m, cfg, t0, 4)

	Step(&m, cfg, t0.Add(4999*time.Millisecond))
	assert.Equal(t, StateWait, m.State)

	Step(&m, cfg, t0.Add(5*time.Second))
	assert.Equal(t, StateCheckDayNight, m.State)
}

func TestStep_WaitIgnoresTimeGoingBackwards(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	stepN(&m, cfg, t0, 4)

	Step(&m, cfg, t0.Add(-time.Hour))

	assert.Equal(t, StateWait, m.State)
}

func TestStep_OutputsRampAcrossCycles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = 600 // WAIT lasts 500ms
	m := NewModel(t0)

	want := Outputs{Win: 134, Lamp: 0, Humid: 13}
	now := t0
	prev := m.Outputs
	for i := 0; i < 1000 && m.Outputs != want; i++ {
		now = now.Add(100 * time.Millisecond)
		Step(&m, cfg, now)

		assert.LessOrEqual(t, m.Outputs.Win-prev.Win, 55, "window jumped at call %d", i)
		assert.LessOrEqual(t, m.Outputs.Humid-prev.Humid, 60, "humidifier jumped at call %d", i)
		assert.GreaterOrEqual(t, m.Outputs.Win, prev.Win)
		assert.GreaterOrEqual(t, m.Outputs.Humid, prev.Humid)
		assert.LessOrEqual(t, m.Outputs.Win, want.Win)
		assert.LessOrEqual(t, m.Outputs.Humid, want.Humid)
		prev = m.Outputs
	}

	assert.Equal(t, want, m.Outputs)
}

func TestStep_ManualModeIsolation(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	stepN(&m, cfg, t0, 2)
	require.Equal(t, StateDayLight, m.State)

	m.SetManualOutputs(Outputs{Win: 255, Lamp: 0, Humid: 300})
	assert.Equal(t, ModeManual, m.Mode)
	assert.Equal(t, Outputs{Win: 255, Lamp: 0, Humid: 255}, m.Outputs)

	for i := 1; i <= 10; i++ {
		Step(&m, cfg, t0.Add(time.Duration(i)*time.Minute))
	}

	assert.Equal(t, StateDayLight, m.State)
	assert.Equal(t, Outputs{Win: 255, Lamp: 0, Humid: 255}, m.Outputs)
	assert.Equal(t, t0, m.StateEnteredAt)
	assert.Equal(t, t0, m.OutputsUpdatedAt)

	// Manual writes jump arbitrarily.
	m.SetManualOutputs(Outputs{})
	assert.Equal(t, Outputs{}, m.Outputs)
}

func TestStep_ResumesAfterManual(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	stepN(&m, cfg, t0, 2)
	m.SetManualOutputs(Outputs{Win: 255})

	m.SetMode(ModeAuto)
	Step(&m, cfg, t0.Add(time.Hour))

	// DAY_LIGHT ramps the window down from the manual value at the capped rate.
	assert.Equal(t, StateDayHum, m.State)
	assert.Equal(t, 200, m.Outputs.Win)
}

// HUM_ON is not reachable through any transition; these tests place the model
// there directly.
func TestStep_HumOnGate(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(t0)
	m.State = StateHumOn
	m.Sensors.Hum = 100 // target 186

	Step(&m, cfg, t0.Add(100*time.Millisecond))
	assert.Equal(t, StateHumOn, m.State)
	assert.Equal(t, 24, m.Outputs.Humid)

	Step(&m, cfg, t0.Add(time.Minute))
	assert.Equal(t, StateWait, m.State)
	assert.Equal(t, 84, m.Outputs.Humid)
	assert.Equal(t, t0.Add(time.Minute), m.StateEnteredAt)
}

func TestStep_NoTransitionEntersHumOn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = 6000
	m := NewModel(t0)

	now := t0
	for i := 0; i < 500; i++ {
		now = now.Add(10 * time.Millisecond)
		m.Sensors.LExt = (i * 37) % 1024
		m.Sensors.Hum = (i * 53) % 1024
		Step(&m, cfg, now)
		require.NotEqual(t, StateHumOn, m.State)
		require.True(t, m.State.Valid())
	}
}

func TestStep_UnknownStateResets(t *testing.T) {
	m := NewModel(t0)
	m.State = "BOGUS"

	Step(&m, DefaultConfig(), t0.Add(time.Second))

	assert.Equal(t, StateInit, m.State)
	assert.Equal(t, t0.Add(time.Second), m.StateEnteredAt)
}

func TestStep_TimestampsNonDecreasing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = 3000
	m := NewModel(t0)

	now := t0
	for i := 0; i < 200; i++ {
		prevEntered, prevUpdated := m.StateEnteredAt, m.OutputsUpdatedAt
		now = now.Add(time.Duration(i%3) * 7 * time.Millisecond)
		Step(&m, cfg, now)
		assert.False(t, m.StateEnteredAt.Before(prevEntered))
		assert.False(t, m.OutputsUpdatedAt.Before(prevUpdated))
	}
}

func TestConfigGate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5*time.Minute, cfg.Gate(cfg.TCheck))

	cfg.TimeScale = 60
	assert.Equal(t, 5*time.Second, cfg.Gate(cfg.TCheck))
	assert.Equal(t, time.Second, cfg.Gate(cfg.THum))

	cfg.TimeScale = 0
	assert.Equal(t, 5*time.Minute, cfg.Gate(cfg.TCheck))

	cfg.TimeScale = math.NaN()
	assert.Equal(t, 5*time.Minute, cfg.Gate(cfg.TCheck))

	cfg.TimeScale = math.Inf(1)
	assert.Equal(t, 5*time.Minute, cfg.Gate(cfg.TCheck))
}

func TestStep_WaitGateHoldsWithNaNScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = math.NaN()

	m := NewModel(t0)
	now := t0
	for m.State != StateWait {
		now = now.Add(time.Millisecond)
		Step(&m, cfg, now)
	}

	Step(&m, cfg, now.Add(time.Millisecond))
	assert.Equal(t, StateWait, m.State)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero time scale", func(c *Config) { c.TimeScale = 0 }, ErrInvalidTimeScale},
		{"negative time scale", func(c *Config) { c.TimeScale = -1 }, ErrInvalidTimeScale},
		{"NaN time scale", func(c *Config) { c.TimeScale = math.NaN() }, ErrInvalidTimeScale},
		{"infinite time scale", func(c *Config) { c.TimeScale = math.Inf(1) }, ErrInvalidTimeScale},
		{"negative gate", func(c *Config) { c.TCheck = -time.Second }, ErrInvalidGate},
		{"threshold too high", func(c *Config) { c.LMax = 2000 }, ErrInvalidThreshold},
		{"negative threshold", func(c *Config) { c.HMin = -1 }, ErrInvalidThreshold},
		{"night pwm too high", func(c *Config) { c.HNightAlt = 256 }, ErrInvalidNightPWM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestStateValid(t *testing.T) {
	for _, s := range States {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, State("").Valid())
	assert.False(t, State("HUM_OFF").Valid())
}
