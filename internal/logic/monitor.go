package logic

import "time"

// EventType identifies what changed between two model snapshots.
type EventType string

const (
	EventMode       EventType = "MODE"
	EventTransition EventType = "TRANSITION"
	EventOutputs    EventType = "OUTPUTS"
)

// Event represents a change to be logged or published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      State // TRANSITION only
	State     State
	Mode      Mode
	Sensors   Sensors
	Outputs   Outputs
}

// EventCounts tracks the number of each event kind since startup.
type EventCounts struct {
	Transitions   int
	DayCycles     int
	NightCycles   int
	ModeChanges   int
	OutputChanges int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Monitor compares consecutive model snapshots and reports what changed.
type Monitor struct {
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor. The startTime is used for calculating uptime
// in heartbeat events.
func NewMonitor(startTime time.Time) *Monitor {
	return &Monitor{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process returns the events between prev and next, stamped with now.
// Order: MODE, then TRANSITION, then OUTPUTS.
func (m *Monitor) Process(prev, next Model, now time.Time) []Event {
	var events []Event

	event := func(t EventType) Event {
		return Event{
			Timestamp: now,
			Type:      t,
			State:     next.State,
			Mode:      next.Mode,
			Sensors:   next.Sensors,
			Outputs:   next.Outputs,
		}
	}

	if prev.Mode != next.Mode {
		events = append(events, event(EventMode))
		m.eventCounts.ModeChanges++
	}

	if prev.State != next.State {
		e := event(EventTransition)
		e.From = prev.State
		events = append(events, e)

		m.eventCounts.Transitions++
		if prev.State == StateCheckDayNight {
			switch next.State {
			case StateDayLight:
				m.eventCounts.DayCycles++
			case StateNightLight:
				m.eventCounts.NightCycles++
			}
		}
	}

	if prev.Outputs != next.Outputs {
		events = append(events, event(EventOutputs))
		m.eventCounts.OutputChanges++
	}

	return events
}

// Counts returns a copy of the event counters.
func (m *Monitor) Counts() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
