package logic

import (
	"math"
	"time"
)

// Channel selects which outputs a smoother call targets.
type Channel uint8

const (
	ChannelWindow Channel = 1 << iota
	ChannelLamp
	ChannelHumid

	ChannelAll = ChannelWindow | ChannelLamp | ChannelHumid
)

// Ramp rates in PWM units per second.
const (
	WindowRate = 220.0
	LampRate   = 320.0
	HumidRate  = 240.0
)

// MaxSmoothingStep caps the elapsed time credited to a single smoother call,
// so a stalled caller does not snap the outputs when it resumes.
const MaxSmoothingStep = 250 * time.Millisecond

// MinSmoothingStep is the shortest interval between calls at which every
// channel still moves at least one PWM step (window: 220/s × 5ms = 1.1).
const MinSmoothingStep = 5 * time.Millisecond

// Smooth moves the selected outputs of m toward target by at most their ramp
// rate times the time elapsed since the previous call. Channels not selected
// keep their current value.
//
// Outputs are whole PWM steps, so a call whose allowance rounds to zero moves
// nothing: callers must not advance by less than MinSmoothingStep at a time.
func Smooth(m *Model, now time.Time, target Outputs, channels Channel) {
	dt := Clamp(now.Sub(m.OutputsUpdatedAt), 0, MaxSmoothingStep)
	m.OutputsUpdatedAt = now

	if channels&ChannelWindow == 0 {
		target.Win = m.Outputs.Win
	}
	if channels&ChannelLamp == 0 {
		target.Lamp = m.Outputs.Lamp
	}
	if channels&ChannelHumid == 0 {
		target.Humid = m.Outputs.Humid
	}

	m.Outputs.Win = approach(m.Outputs.Win, target.Win, dt, WindowRate)
	m.Outputs.Lamp = approach(m.Outputs.Lamp, target.Lamp, dt, LampRate)
	m.Outputs.Humid = approach(m.Outputs.Humid, target.Humid, dt, HumidRate)
}

func approach(current, target int, dt time.Duration, ratePerSec float64) int {
	maxDelta := ratePerSec * float64(dt) / float64(time.Second)
	next := float64(current) + Clamp(float64(target-current), -maxDelta, maxDelta)
	return Clamp(int(math.Round(next)), 0, PWMMax)
}
