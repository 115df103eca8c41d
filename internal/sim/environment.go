// Package sim provides the simulated room the controller runs against: a
// timelapse day with a sun curve, humidity and interior light that respond
// to the actuators, plus the manual sensor sliders.
package sim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

// DayMinutes is the length of the simulated day.
const DayMinutes = 24 * 60

// Player limits and defaults.
const (
	MinSpeed     = 1.0
	MaxSpeed     = 2000.0
	DefaultSpeed = 60.0
	DefaultStart = 8 * 60 // 08:00
)

// Room physics.
const (
	humidityTau      = 8 * time.Minute  // relaxation toward the daily baseline
	interiorTau      = 25 * time.Second // sensor inertia of the interior light
	humidRisePerSec  = 2.2              // sensor units per simulated second at full humidifier
	humidityBase     = 520.0
	humidityDip      = 260.0 // drier at midday
	interiorBase     = 40.0
	sunlightInside   = 0.42
	lampInsideAtFull = 820.0
)

// Sensor names a slider.
type Sensor string

const (
	SensorLExt Sensor = "lext"
	SensorLInt Sensor = "lint"
	SensorHum  Sensor = "hum"
)

// ErrUnknownSensor is returned by SetSensor for a name it does not know.
var ErrUnknownSensor = errors.New("unknown sensor")

// Timelapse describes the player state.
type Timelapse struct {
	Enabled  bool
	Playing  bool
	Speed    float64
	Minutes  float64 // minute of the simulated day
	AutoLInt bool
}

// Environment produces sensor samples, either from the sliders or from the
// timelapse model. Not safe for concurrent use.
type Environment struct {
	sliders logic.Sensors
	tl      Timelapse

	hum  float64 // simulated humidity
	lInt float64 // simulated interior light
}

// NewEnvironment returns an environment with the default sliders and a
// paused, disabled timelapse at 08:00.
func NewEnvironment() *Environment {
	e := &Environment{
		sliders: logic.Sensors{LInt: 500, LExt: 800, Hum: 500},
		tl: Timelapse{
			Speed:    DefaultSpeed,
			Minutes:  DefaultStart,
			AutoLInt: true,
		},
	}
	e.seed()
	return e
}

func (e *Environment) seed() {
	e.hum = float64(e.sliders.Hum)
	e.lInt = float64(e.sliders.LInt)
}

// Sliders returns the manual sensor values.
func (e *Environment) Sliders() logic.Sensors {
	return e.sliders
}

// SetSensor moves a slider, clamped to the sensor range.
func (e *Environment) SetSensor(s Sensor, v int) error {
	v = logic.Clamp(v, 0, logic.SensorMax)
	switch s {
	case SensorLExt:
		e.sliders.LExt = v
	case SensorLInt:
		e.sliders.LInt = v
	case SensorHum:
		e.sliders.Hum = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSensor, s)
	}
	return nil
}

// SetButton sets the button level.
func (e *Environment) SetButton(pressed bool) {
	e.sliders.BtnPressed = pressed
}

// Timelapse returns the player state.
func (e *Environment) Timelapse() Timelapse {
	return e.tl
}

// SetTimelapse enables or disables the timelapse. Enabling seeds the
// simulated humidity and interior light from the sliders; disabling stops
// playback.
func (e *Environment) SetTimelapse(enabled bool) {
	if enabled && !e.tl.Enabled {
		e.seed()
	}
	e.tl.Enabled = enabled
	if !enabled {
		e.tl.Playing = false
	}
}

// SetPlaying starts or pauses the player.
func (e *Environment) SetPlaying(playing bool) {
	e.tl.Playing = playing
}

// SetSpeed sets the playback multiplier, clamped to [MinSpeed, MaxSpeed].
func (e *Environment) SetSpeed(speed float64) {
	e.tl.Speed = logic.Clamp(speed, MinSpeed, MaxSpeed)
}

// Seek moves the player to a minute of the day, clamped to the day.
func (e *Environment) Seek(minutes float64) {
	e.tl.Minutes = logic.Clamp(minutes, 0, DayMinutes-1)
}

// SetAutoLInt selects whether interior light is simulated or taken from its slider.
func (e *Environment) SetAutoLInt(auto bool) {
	if auto && !e.tl.AutoLInt {
		e.lInt = float64(e.sliders.LInt)
	}
	e.tl.AutoLInt = auto
}

// Rate is how fast simulated time runs relative to wall time.
func (e *Environment) Rate() float64 {
	if e.tl.Enabled && e.tl.Playing {
		return e.tl.Speed
	}
	return 1
}

// Advance moves the environment forward by dt of wall time, given the
// current actuator outputs, and returns the new sensor sample.
func (e *Environment) Advance(dt time.Duration, out logic.Outputs) logic.Sensors {
	if !e.tl.Enabled {
		return e.sliders
	}
	if dt < 0 {
		dt = 0
	}

	rate := e.Rate()
	if e.tl.Playing {
		e.tl.Minutes = math.Mod(e.tl.Minutes+dt.Minutes()*rate, DayMinutes)
	}
	simDt := time.Duration(float64(dt) * rate)

	baseline := float64(HumidityBaseline(e.tl.Minutes))
	e.hum += (baseline - e.hum) * relax(simDt, humidityTau)
	humidFactor := logic.Clamp(float64(out.Humid)/logic.PWMMax, 0, 1)
	e.hum += humidFactor * humidRisePerSec * simDt.Seconds()
	e.hum = logic.Clamp(e.hum, 0, logic.SensorMax)

	lExt := ExteriorLight(e.tl.Minutes)
	if e.tl.AutoLInt {
		target := float64(InteriorLight(lExt, out.Lamp))
		e.lInt += (target - e.lInt) * relax(simDt, interiorTau)
		e.lInt = logic.Clamp(e.lInt, 0, logic.SensorMax)
	}

	s := logic.Sensors{
		LExt:       lExt,
		LInt:       e.sliders.LInt,
		Hum:        round(e.hum),
		BtnPressed: e.sliders.BtnPressed,
	}
	if e.tl.AutoLInt {
		s.LInt = round(e.lInt)
	}

	// Sliders follow the simulation, so disabling the timelapse keeps the
	// last sample instead of jumping back.
	e.sliders.LExt, e.sliders.LInt, e.sliders.Hum = s.LExt, s.LInt, s.Hum
	return s
}

func relax(dt, tau time.Duration) float64 {
	return logic.Clamp(float64(dt)/float64(tau), 0, 1)
}

func round(v float64) int {
	return int(math.Round(v))
}

// sun returns the sun height for a minute of the day: 0 before 06:00 and
// after 18:00, 1 at noon.
func sun(minutes float64) float64 {
	t := minutes / DayMinutes
	phase := (t - 0.25) * math.Pi * 2
	return math.Max(0, math.Sin(phase))
}

// ExteriorLight returns the simulated exterior light reading.
func ExteriorLight(minutes float64) int {
	shaped := math.Pow(sun(minutes), 1.35)
	return logic.Clamp(round(shaped*logic.SensorMax), 0, logic.SensorMax)
}

// HumidityBaseline returns the humidity the room drifts toward with the
// humidifier off.
func HumidityBaseline(minutes float64) int {
	dip := humidityDip * math.Pow(sun(minutes), 1.1)
	return logic.Clamp(round(humidityBase-dip), 0, logic.SensorMax)
}

// InteriorLight estimates the interior light reading from sunlight and the
// lamp. The window covering does not feed back into it.
func InteriorLight(lExt, lampPWM int) int {
	lamp := logic.Clamp(float64(lampPWM)/logic.PWMMax, 0, 1)
	v := interiorBase + float64(lExt)*sunlightInside + lamp*lampInsideAtFull
	return logic.Clamp(round(v), 0, logic.SensorMax)
}

// FormatClock renders a minute of the day as HH:MM, wrapping around midnight.
func FormatClock(minutes float64) string {
	m := int(math.Floor(math.Mod(math.Mod(minutes, DayMinutes)+DayMinutes, DayMinutes)))
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ErrBadClock is returned by ParseClock for input that is not HH:MM.
var ErrBadClock = errors.New("expected HH:MM")

// ParseClock parses HH:MM into a minute of the day.
func ParseClock(s string) (float64, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return float64(h*60 + m), nil
}
