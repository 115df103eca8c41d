package logic

import "time"

// Step advances m by one logical step at time now. Every state except WAIT and
// HUM_ON completes in a single call; WAIT and HUM_ON hold until their gate has
// elapsed. Step does nothing in manual mode.
//
// Calls for one model must be sequential with non-decreasing timestamps.
func Step(m *Model, cfg Config, now time.Time) {
	if m.Mode == ModeManual {
		return
	}

	elapsed := now.Sub(m.StateEnteredAt)

	switch m.State {
	case StateInit:
		m.Outputs = Outputs{}
		m.OutputsUpdatedAt = now
		m.enter(StateCheckDayNight, now)

	case StateCheckDayNight:
		if m.Sensors.LExt > cfg.DayThreshold {
			m.enter(StateDayLight, now)
		} else {
			m.enter(StateNightLight, now)
		}

	case StateDayLight:
		win, lamp := DayLightTargets(m.Sensors, cfg)
		Smooth(m, now, Outputs{Win: win, Lamp: lamp}, ChannelWindow|ChannelLamp)
		m.enter(StateDayHum, now)

	case StateDayHum:
		Smooth(m, now, Outputs{Humid: DayHumidTarget(m.Sensors, cfg)}, ChannelHumid)
		m.enter(StateWait, now)

	case StateHumOn:
		// Not entered by any transition; kept so a model placed here still ramps
		// the humidifier and returns to WAIT after THum.
		Smooth(m, now, Outputs{Humid: DayHumidTarget(m.Sensors, cfg)}, ChannelHumid)
		if elapsed >= cfg.Gate(cfg.THum) {
			m.enter(StateWait, now)
		}

	case StateNightLight:
		night := NightTargets(m.Sensors, cfg)
		Smooth(m, now, night, ChannelWindow|ChannelLamp)
		m.enter(StateNightHum, now)

	case StateNightHum:
		night := NightTargets(m.Sensors, cfg)
		Smooth(m, now, night, ChannelHumid)
		m.enter(StateWait, now)

	case StateWait:
		if elapsed >= cfg.Gate(cfg.TCheck) {
			m.enter(StateCheckDayNight, now)
		}

	default:
		m.enter(StateInit, now)
	}
}

func (m *Model) enter(s State, now time.Time) {
	m.State = s
	m.StateEnteredAt = now
}
