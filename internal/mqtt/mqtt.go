// Package mqtt publishes controller telemetry over MQTT, with a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
)

// Topic is the MQTT topic for controller events.
const Topic = "home/room-controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/room-controller/system"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Controller ControllerPayload `json:"controller"`
}

// ControllerPayload contains the controller event details.
type ControllerPayload struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	State     string         `json:"state"`
	From      string         `json:"from,omitempty"`
	Mode      string         `json:"mode"`
	Outputs   OutputsPayload `json:"outputs"`
	Sensors   SensorsPayload `json:"sensors"`
}

// OutputsPayload carries the actuator PWM values.
type OutputsPayload struct {
	Win   int `json:"win"`
	Lamp  int `json:"lamp"`
	Humid int `json:"humid"`
}

// SensorsPayload carries the sensor sample the event was computed from.
type SensorsPayload struct {
	LInt int  `json:"l_int"`
	LExt int  `json:"l_ext"`
	Hum  int  `json:"hum"`
	Btn  bool `json:"btn"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Controller: ControllerPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
			From:      string(event.From),
			Mode:      string(event.Mode),
			Outputs: OutputsPayload{
				Win:   event.Outputs.Win,
				Lamp:  event.Outputs.Lamp,
				Humid: event.Outputs.Humid,
			},
			Sensors: SensorsPayload{
				LInt: event.Sensors.LInt,
				LExt: event.Sensors.LExt,
				Hum:  event.Sensors.Hum,
				Btn:  event.Sensors.BtnPressed,
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
