// Package status provides a thread-safe status tracker for the room-controller daemon.
// It is read by the HTTP handlers, the console and the shutdown path while the run
// loop writes to it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Timelapse mirrors the simulated day player.
type Timelapse struct {
	Enabled bool
	Playing bool
	Speed   float64
	Minutes float64
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	Controller  logic.Config
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	SessionID     string
	State         logic.State
	Mode          logic.Mode
	Sensors       logic.Sensors
	Outputs       logic.Outputs
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	SimTime       time.Time // controller clock, accelerated while the timelapse plays
	Timelapse     Timelapse
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the wall-clock duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker for one session.
func NewTracker(sessionID string, startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			SessionID: sessionID,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the controller model, event counts and player state.
// Called from runLoop on every tick.
func (t *Tracker) Update(m logic.Model, counts logic.EventCounts, simTime time.Time, tl Timelapse) {
	t.mu.Lock()
	t.snap.State = m.State
	t.snap.Mode = m.Mode
	t.snap.Sensors = m.Sensors
	t.snap.Outputs = m.Outputs
	t.snap.Counts = counts
	t.snap.SimTime = simTime
	t.snap.Timelapse = tl
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
