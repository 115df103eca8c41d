package status

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/sim"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	SessionID     string        `json:"session_id"`
	State         string        `json:"state"`
	Mode          string        `json:"mode"`
	Sensors       SensorsJSON   `json:"sensors"`
	Outputs       OutputsJSON   `json:"outputs"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	SimTime       string        `json:"sim_time,omitempty"`
	Timelapse     TimelapseJSON `json:"timelapse"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// SensorsJSON is the JSON representation of a sensor sample.
type SensorsJSON struct {
	LInt int  `json:"l_int"`
	LExt int  `json:"l_ext"`
	Hum  int  `json:"hum"`
	Btn  bool `json:"btn"`
}

// OutputsJSON is the JSON representation of the actuator outputs.
type OutputsJSON struct {
	Win   int `json:"win"`
	Lamp  int `json:"lamp"`
	Humid int `json:"humid"`
}

// TimelapseJSON is the JSON representation of the player.
type TimelapseJSON struct {
	Enabled bool    `json:"enabled"`
	Playing bool    `json:"playing"`
	Speed   float64 `json:"speed"`
	Clock   string  `json:"clock"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Transitions   int `json:"transitions"`
	DayCycles     int `json:"day_cycles"`
	NightCycles   int `json:"night_cycles"`
	ModeChanges   int `json:"mode_changes"`
	OutputChanges int `json:"output_changes"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64          `json:"tick_ms"`
	HeartbeatMs int64          `json:"heartbeat_ms"`
	Broker      string         `json:"broker"`
	HTTPPort    string         `json:"http_port"`
	WSBroker    string         `json:"ws_broker,omitempty"`
	Controller  ControllerJSON `json:"controller"`
}

// ControllerJSON lists the controller tunables.
type ControllerJSON struct {
	DayThreshold int     `json:"day_threshold"`
	LMin         int     `json:"l_min"`
	LMax         int     `json:"l_max"`
	HMin         int     `json:"h_min"`
	LNight       int     `json:"l_night"`
	HNight       int     `json:"h_night"`
	LNightAlt    int     `json:"l_night_alt"`
	HNightAlt    int     `json:"h_night_alt"`
	TCheckMs     int64   `json:"t_check_ms"`
	THumMs       int64   `json:"t_hum_ms"`
	TimeScale    float64 `json:"time_scale"`
}

func controllerJSON(c logic.Config) ControllerJSON {
	return ControllerJSON{
		DayThreshold: c.DayThreshold,
		LMin:         c.LMin,
		LMax:         c.LMax,
		HMin:         c.HMin,
		LNight:       c.LNight,
		HNight:       c.HNight,
		LNightAlt:    c.LNightAlt,
		HNightAlt:    c.HNightAlt,
		TCheckMs:     c.TCheck.Milliseconds(),
		THumMs:       c.THum.Milliseconds(),
		TimeScale:    c.TimeScale,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		SessionID: snap.SessionID,
		State:     orUnknown(string(snap.State)),
		Mode:      orUnknown(string(snap.Mode)),
		Sensors: SensorsJSON{
			LInt: snap.Sensors.LInt,
			LExt: snap.Sensors.LExt,
			Hum:  snap.Sensors.Hum,
			Btn:  snap.Sensors.BtnPressed,
		},
		Outputs: OutputsJSON{
			Win:   snap.Outputs.Win,
			Lamp:  snap.Outputs.Lamp,
			Humid: snap.Outputs.Humid,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Timelapse: TimelapseJSON{
			Enabled: snap.Timelapse.Enabled,
			Playing: snap.Timelapse.Playing,
			Speed:   snap.Timelapse.Speed,
			Clock:   sim.FormatClock(snap.Timelapse.Minutes),
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Transitions:   snap.Counts.Transitions,
			DayCycles:     snap.Counts.DayCycles,
			NightCycles:   snap.Counts.NightCycles,
			ModeChanges:   snap.Counts.ModeChanges,
			OutputChanges: snap.Counts.OutputChanges,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			WSBroker:    snap.Config.WSBroker,
			Controller:  controllerJSON(snap.Config.Controller),
		},
	}
	if !snap.SimTime.IsZero() {
		inner.SimTime = snap.SimTime.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatText renders the snapshot for the console.
func FormatText(snap Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STATE=%s MODE=%s\n", orUnknown(string(snap.State)), orUnknown(string(snap.Mode)))
	fmt.Fprintf(&b, "IN  L_int=%d L_ext=%d Hum=%d Btn=%t\n",
		snap.Sensors.LInt, snap.Sensors.LExt, snap.Sensors.Hum, snap.Sensors.BtnPressed)
	fmt.Fprintf(&b, "OUT WIN=%d LAMP=%d HUMID=%d\n", snap.Outputs.Win, snap.Outputs.Lamp, snap.Outputs.Humid)

	tl := "off"
	if snap.Timelapse.Enabled {
		tl = "paused"
		if snap.Timelapse.Playing {
			tl = fmt.Sprintf("playing x%g", snap.Timelapse.Speed)
		}
	}
	fmt.Fprintf(&b, "DAY %s (%s)\n", sim.FormatClock(snap.Timelapse.Minutes), tl)
	fmt.Fprintf(&b, "CYCLES day=%d night=%d transitions=%d uptime=%s mqtt=%t",
		snap.Counts.DayCycles, snap.Counts.NightCycles, snap.Counts.Transitions,
		snap.Uptime().Truncate(time.Second), snap.MQTTConnected)
	return b.String()
}
