package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/room-controller/internal/logic"
)

func TestExteriorLight(t *testing.T) {
	assert.Equal(t, 0, ExteriorLight(0), "midnight")
	assert.Equal(t, 0, ExteriorLight(6*60), "sunrise")
	assert.Equal(t, 1023, ExteriorLight(12*60), "noon")
	assert.Equal(t, 0, ExteriorLight(18*60), "sunset")
	assert.Equal(t, 0, ExteriorLight(22*60), "night")
	assert.InDelta(t, 641, ExteriorLight(9*60), 2)

	prev := -1
	for m := 6 * 60; m <= 12*60; m += 10 {
		v := ExteriorLight(float64(m))
		assert.GreaterOrEqual(t, v, prev, "morning light must not fall at minute %d", m)
		prev = v
	}
}

func TestHumidityBaseline(t *testing.T) {
	assert.Equal(t, 520, HumidityBaseline(0))
	assert.Equal(t, 260, HumidityBaseline(12*60))
	assert.Equal(t, 520, HumidityBaseline(20*60))
}

func TestInteriorLight(t *testing.T) {
	assert.Equal(t, 40, InteriorLight(0, 0))
	assert.Equal(t, 82, InteriorLight(100, 0))
	assert.Equal(t, 860, InteriorLight(0, 255))
	assert.Equal(t, 1023, InteriorLight(1023, 255), "clamped")
	assert.Equal(t, 860, InteriorLight(0, 400), "lamp beyond full")
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "00:00"},
		{480, "08:00"},
		{725.9, "12:05"},
		{1439, "23:59"},
		{1440 + 61, "01:01"},
		{-1, "23:59"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.minutes), "minutes %v", tt.minutes)
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510.0, m)

	m, err = ParseClock(" 23:59 ")
	require.NoError(t, err)
	assert.Equal(t, 1439.0, m)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "-1:00"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrBadClock, "input %q", bad)
	}
}

func TestEnvironment_Defaults(t *testing.T) {
	e := NewEnvironment()
	assert.Equal(t, logic.Sensors{LInt: 500, LExt: 800, Hum: 500}, e.Sliders())

	tl := e.Timelapse()
	assert.False(t, tl.Enabled)
	assert.False(t, tl.Playing)
	assert.True(t, tl.AutoLInt)
	assert.Equal(t, DefaultSpeed, tl.Speed)
	assert.Equal(t, float64(DefaultStart), tl.Minutes)
	assert.Equal(t, 1.0, e.Rate())
}

func TestEnvironment_SlidersPassThrough(t *testing.T) {
	e := NewEnvironment()
	require.NoError(t, e.SetSensor(SensorLExt, 2000))
	require.NoError(t, e.SetSensor(SensorLInt, -5))
	require.NoError(t, e.SetSensor(SensorHum, 321))
	e.SetButton(true)

	want := logic.Sensors{LExt: 1023, LInt: 0, Hum: 321, BtnPressed: true}
	assert.Equal(t, want, e.Advance(time.Second, logic.Outputs{Humid: 255, Lamp: 255}))
}

func TestEnvironment_UnknownSensor(t *testing.T) {
	e := NewEnvironment()
	assert.ErrorIs(t, e.SetSensor("temp", 1), ErrUnknownSensor)
}

func TestEnvironment_Rate(t *testing.T) {
	e := NewEnvironment()
	e.SetPlaying(true)
	assert.Equal(t, 1.0, e.Rate(), "playing without timelapse")

	e.SetTimelapse(true)
	e.SetPlaying(true)
	assert.Equal(t, DefaultSpeed, e.Rate())

	e.SetPlaying(false)
	assert.Equal(t, 1.0, e.Rate(), "paused")

	e.SetPlaying(true)
	e.SetTimelapse(false)
	assert.False(t, e.Timelapse().Playing, "disabling stops playback")
}

func TestEnvironment_SpeedAndSeekClamp(t *testing.T) {
	e := NewEnvironment()
	e.SetSpeed(0)
	assert.Equal(t, MinSpeed, e.Timelapse().Speed)
	e.SetSpeed(1e6)
	assert.Equal(t, MaxSpeed, e.Timelapse().Speed)

	e.Seek(-10)
	assert.Equal(t, 0.0, e.Timelapse().Minutes)
	e.Seek(5000)
	assert.Equal(t, float64(DayMinutes-1), e.Timelapse().Minutes)
}

func TestEnvironment_PlaybackAdvancesDay(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.SetPlaying(true)
	e.Seek(12 * 60)

	s := e.Advance(time.Second, logic.Outputs{})
	assert.InDelta(t, 12*60+1, e.Timelapse().Minutes, 1e-9)
	assert.Equal(t, ExteriorLight(12*60+1), s.LExt)
}

func TestEnvironment_PlaybackWrapsMidnight(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.SetPlaying(true)
	e.Seek(DayMinutes - 1)

	e.Advance(2*time.Second, logic.Outputs{})
	assert.InDelta(t, 1, e.Timelapse().Minutes, 1e-9)
}

func TestEnvironment_PausedHoldsClock(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.Seek(600)

	e.Advance(time.Minute, logic.Outputs{})
	assert.Equal(t, 600.0, e.Timelapse().Minutes)
}

func TestEnvironment_HumidityRelaxesToBaseline(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.Seek(12 * 60)

	// A full relaxation constant of simulated time lands on the baseline.
	s := e.Advance(humidityTau, logic.Outputs{})
	assert.Equal(t, 260, s.Hum)
}

func TestEnvironment_HumidifierRaisesHumidity(t *testing.T) {
	e := NewEnvironment()
	require.NoError(t, e.SetSensor(SensorHum, 520))
	e.Seek(0)
	e.SetTimelapse(true)

	s := e.Advance(10*time.Second, logic.Outputs{Humid: 255})
	assert.Equal(t, 542, s.Hum)
}

func TestEnvironment_SmallDriftAccumulates(t *testing.T) {
	e := NewEnvironment()
	require.NoError(t, e.SetSensor(SensorHum, 270))
	e.Seek(12 * 60)
	e.SetTimelapse(true)

	// Each step moves less than half a unit; the fractional state keeps it.
	var s logic.Sensors
	for i := 0; i < 100; i++ {
		s = e.Advance(time.Second, logic.Outputs{})
	}
	assert.Less(t, s.Hum, 270)
}

func TestEnvironment_InteriorLightFollowsLamp(t *testing.T) {
	e := NewEnvironment()
	e.Seek(0)
	e.SetTimelapse(true)

	s := e.Advance(interiorTau, logic.Outputs{Lamp: 255})
	assert.Equal(t, InteriorLight(0, 255), s.LInt)

	s = e.Advance(interiorTau, logic.Outputs{})
	assert.Equal(t, InteriorLight(0, 0), s.LInt)
}

func TestEnvironment_ManualInteriorLight(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.SetAutoLInt(false)
	require.NoError(t, e.SetSensor(SensorLInt, 123))

	s := e.Advance(time.Minute, logic.Outputs{Lamp: 255})
	assert.Equal(t, 123, s.LInt)
}

func TestEnvironment_DisableKeepsLastSample(t *testing.T) {
	e := NewEnvironment()
	e.Seek(12 * 60)
	e.SetTimelapse(true)
	last := e.Advance(humidityTau, logic.Outputs{})

	e.SetTimelapse(false)
	s := e.Advance(time.Second, logic.Outputs{})
	assert.Equal(t, last, s)
}

func TestEnvironment_ButtonDuringTimelapse(t *testing.T) {
	e := NewEnvironment()
	e.SetTimelapse(true)
	e.SetButton(true)
	assert.True(t, e.Advance(time.Second, logic.Outputs{}).BtnPressed)
}
