// Package mqtt publishes alarm and thermostat transitions and daemon
// lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/home-automaton/internal/logic"
)

// Topic is the MQTT topic for alarm and thermostat transitions.
const Topic = "home/automaton/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/automaton/system"

// Publisher is implemented by RealPublisher and FakePublisher. Errors are
// reported to the caller and never fatal to the polling loop.
type Publisher interface {
	Publish(event logic.Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is satisfied by publishers that track their broker link.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a daemon lifecycle message on TopicSystem.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED
	Reason    string // shutdown cause

	// RawPayload replaces the generated body when set; the controller uses
	// it to send a full status snapshot.
	RawPayload []byte
	Retained   bool
}

// Payload is the body published on Topic.
type Payload struct {
	Automaton AutomatonPayload `json:"automaton"`
}

// AutomatonPayload carries the event, both machine states and the
// temperature the thermostat saw.
type AutomatonPayload struct {
	Timestamp string       `json:"timestamp"`
	Millis    uint32       `json:"millis"`
	Event     string       `json:"event"`
	Alarm     ChannelState `json:"alarm"`
	Heat      ChannelState `json:"heat"`
	Celsius   float64      `json:"celsius"`
}

// ChannelState is one machine's ON/OFF state.
type ChannelState struct {
	State string `json:"state"`
}

// FormatPayload encodes a transition.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Automaton: AutomatonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Millis:    event.Millis,
			Event:     string(event.Type),
			Alarm:     ChannelState{State: string(event.AlarmState)},
			Heat:      ChannelState{State: string(event.HeatState)},
			Celsius:   event.Celsius,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the body of lifecycle events that carry no snapshot,
// such as the LWT and RECONNECTED.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload encodes a lifecycle event, or returns RawPayload
// untouched when it is set.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}
