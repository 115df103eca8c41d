package logic

import "math"

// Shape of the piecewise-linear day curves.
const (
	winDeadband = 60  // exterior light band below LMax where the window eases in
	winKnee     = 80  // window PWM at LMax
	lampFadeOff = 110 // interior light band above LMin where the lamp fades out
	lampMaxPWM  = 220
	lampMinPWM  = 45
	humFadeOff  = 130 // humidity band above HMin where the humidifier fades out
	humMaxPWM   = 230
	humMinPWM   = 55
)

// DayLightTargets returns the window and lamp targets for daytime. The window
// depends only on exterior light, the lamp only on interior light.
func DayLightTargets(s Sensors, cfg Config) (win, lamp int) {
	ext := float64(s.LExt)
	lMax := float64(cfg.LMax)

	var w float64
	switch {
	case ext <= lMax-winDeadband:
		w = 0
	case ext >= lMax:
		w = MapRangeClamped(ext, lMax, SensorMax, winKnee, PWMMax)
	default:
		w = MapRangeClamped(ext, lMax-winDeadband, lMax, 0, winKnee)
	}

	in := float64(s.LInt)
	lMin := float64(cfg.LMin)

	var l float64
	switch {
	case in <= lMin:
		l = MapRangeClamped(in, 0, lMin, lampMaxPWM, lampMinPWM)
	case in < lMin+lampFadeOff:
		l = MapRangeClamped(in, lMin, lMin+lampFadeOff, lampMinPWM, 0)
	default:
		l = 0
	}

	return toPWM(w), toPWM(l)
}

// DayHumidTarget returns the humidifier target for daytime.
func DayHumidTarget(s Sensors, cfg Config) int {
	h := float64(s.Hum)
	hMin := float64(cfg.HMin)

	switch {
	case h <= hMin:
		return toPWM(MapRangeClamped(h, 0, hMin, humMaxPWM, humMinPWM))
	case h < hMin+humFadeOff:
		return toPWM(MapRangeClamped(h, hMin, hMin+humFadeOff, humMinPWM, 0))
	default:
		return 0
	}
}

// NightTargets returns the fixed night profile. Holding the button selects
// the alternate lamp and humidifier levels; the window is always open.
func NightTargets(s Sensors, cfg Config) Outputs {
	if s.BtnPressed {
		return Outputs{Win: 0, Lamp: cfg.LNightAlt, Humid: cfg.HNightAlt}
	}
	return Outputs{Win: 0, Lamp: cfg.LNight, Humid: cfg.HNight}
}

func toPWM(v float64) int {
	return Clamp(int(math.Round(v)), 0, PWMMax)
}
