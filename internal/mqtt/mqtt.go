// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/requireiot/button-sensor/internal/button"
)

// Topic is the MQTT topic for button gesture events.
const Topic = "home/button/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/button/sensor/system"

// Event is a gesture event enriched with wall-clock time and the state
// observed by the run loop when it fired.
type Event struct {
	Timestamp time.Time
	Gesture   button.Gesture
	Down      bool
	HoldMs    uint16
	Counts    button.Counts
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gesture event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

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
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the gesture event details.
type ButtonPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	State     string        `json:"state"` // "DOWN" or "UP"
	HoldMs    uint16        `json:"hold_ms"`
	Counts    CountsPayload `json:"counts"`
}

// CountsPayload carries the saturating gesture counters.
type CountsPayload struct {
	Pressed     uint8 `json:"pressed"`
	Released    uint8 `json:"released"`
	ShortPress  uint8 `json:"short_press"`
	LongPress   uint8 `json:"long_press"`
	DoublePress uint8 `json:"double_press"`
}

// FormatPayload creates the JSON payload for a gesture event.
func FormatPayload(event Event) ([]byte, error) {
	state := "UP"
	if event.Down {
		state = "DOWN"
	}
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Gesture),
			State:     state,
			HoldMs:    event.HoldMs,
			Counts: CountsPayload{
				Pressed:     event.Counts.Pressed,
				Released:    event.Counts.Released,
				ShortPress:  event.Counts.ShortPress,
				LongPress:   event.Counts.LongPress,
				DoublePress: event.Counts.DoublePress,
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
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
