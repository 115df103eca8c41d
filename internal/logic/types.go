// Package logic contains the pure control logic of the room controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters: the controller never reads
// a clock, so real and accelerated time are interchangeable.
package logic

import (
	"errors"
	"math"
	"time"
)

// Sensor and actuator ranges.
const (
	SensorMax = 1023 // 10-bit ADC reading
	PWMMax    = 255  // 8-bit duty cycle
)

// Mode selects who owns the outputs.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// State is one of the eight controller states.
type State string

const (
	StateInit          State = "INIT"
	StateCheckDayNight State = "CHECK_DAY_NIGHT"
	StateDayLight      State = "DAY_LIGHT"
	StateDayHum        State = "DAY_HUM"
	StateHumOn         State = "HUM_ON"
	StateNightLight    State = "NIGHT_LIGHT"
	StateNightHum      State = "NIGHT_HUM"
	StateWait          State = "WAIT"
)

// States lists every controller state in table order.
var States = []State{
	StateInit,
	StateCheckDayNight,
	StateDayLight,
	StateDayHum,
	StateHumOn,
	StateNightLight,
	StateNightHum,
	StateWait,
}

// Valid reports whether s is one of the enumerated states.
func (s State) Valid() bool {
	for _, v := range States {
		if s == v {
			return true
		}
	}
	return false
}

// Sensors is a single sample of the inputs.
type Sensors struct {
	LInt       int // interior light, 0..1023
	LExt       int // exterior light, 0..1023
	Hum        int // humidity, 0..1023
	BtnPressed bool
}

// Outputs holds the actuator duty cycles, each 0..255.
type Outputs struct {
	Win   int // window covering
	Lamp  int
	Humid int // humidifier
}

// Clamped returns o with every channel bounded to [0, PWMMax].
func (o Outputs) Clamped() Outputs {
	return Outputs{
		Win:   Clamp(o.Win, 0, PWMMax),
		Lamp:  Clamp(o.Lamp, 0, PWMMax),
		Humid: Clamp(o.Humid, 0, PWMMax),
	}
}

// Config holds the static tunables of the controller.
type Config struct {
	DayThreshold int // LExt above this is day
	LMin         int // interior light floor
	LMax         int // exterior light at which the window starts closing
	HMin         int // humidity floor

	// Fixed night targets, normal and with the button held.
	LNight    int
	HNight    int
	LNightAlt int
	HNightAlt int

	TCheck time.Duration // WAIT gate
	THum   time.Duration // HUM_ON gate

	// TimeScale divides the gates; 60 makes a 5 minute wait last 5 seconds.
	TimeScale float64
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		DayThreshold: 400,
		LMin:         300,
		LMax:         700,
		HMin:         400,
		LNight:       120,
		HNight:       120,
		LNightAlt:    200,
		HNightAlt:    200,
		TCheck:       5 * time.Minute,
		THum:         1 * time.Minute,
		TimeScale:    1,
	}
}

// Gate returns d compressed by TimeScale. A scale that is not a positive
// finite number is treated as 1.
func (c Config) Gate(d time.Duration) time.Duration {
	if !validScale(c.TimeScale) {
		return d
	}
	return time.Duration(float64(d) / c.TimeScale)
}

// validScale is false for NaN, infinities and values <= 0.
func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 1)
}

// Config validation errors.
var (
	ErrInvalidTimeScale = errors.New("time scale must be a positive finite number")
	ErrInvalidGate      = errors.New("gate durations must not be negative")
	ErrInvalidThreshold = errors.New("light and humidity thresholds must be within 0..1023")
	ErrInvalidNightPWM  = errors.New("night targets must be within 0..255")
)

// Validate checks the tunables for values the controller cannot use.
func (c Config) Validate() error {
	if !validScale(c.TimeScale) {
		return ErrInvalidTimeScale
	}
	if c.TCheck < 0 || c.THum < 0 {
		return ErrInvalidGate
	}
	for _, v := range []int{c.DayThreshold, c.LMin, c.LMax, c.HMin} {
		if v < 0 || v > SensorMax {
			return ErrInvalidThreshold
		}
	}
	for _, v := range []int{c.LNight, c.HNight, c.LNightAlt, c.HNightAlt} {
		if v < 0 || v > PWMMax {
			return ErrInvalidNightPWM
		}
	}
	return nil
}

// Model is the complete controller state for one session. It is owned by a
// single caller; Step and the manual override methods are the only mutators.
type Model struct {
	Sensors Sensors
	Outputs Outputs
	Mode    Mode
	State   State

	StateEnteredAt   time.Time // last transition
	OutputsUpdatedAt time.Time // last smoother application
}

// NewModel returns a model in INIT with the simulator's default sensor sample.
func NewModel(now time.Time) Model {
	return Model{
		Sensors: Sensors{
			LInt: 500,
			LExt: 800,
			Hum:  500,
		},
		Mode:             ModeAuto,
		State:            StateInit,
		StateEnteredAt:   now,
		OutputsUpdatedAt: now,
	}
}

// SetMode switches between automatic control and manual override.
func (m *Model) SetMode(mode Mode) {
	m.Mode = mode
}

// SetManualOutputs switches to manual mode and writes o directly, bypassing
// the smoother. The state is left untouched.
func (m *Model) SetManualOutputs(o Outputs) {
	m.Mode = ModeManual
	m.Outputs = o.Clamped()
}
