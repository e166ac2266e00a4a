// Package logic turns polled machine states into published transition events.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State is the logical state of a machine as reported on the wire.
type State string

const (
	StateOn      State = "ON"
	StateOff     State = "OFF"
	StateUnknown State = "UNKNOWN"
)

// EventType names a state transition.
type EventType string

const (
	EventAlarmOn  EventType = "ALARM_ON"
	EventAlarmOff EventType = "ALARM_OFF"
	EventHeatOn   EventType = "HEAT_ON"
	EventHeatOff  EventType = "HEAT_OFF"
)

// Event is a transition to be published.
type Event struct {
	Timestamp  time.Time
	Millis     uint32 // surface clock at detection
	Type       EventType
	AlarmState State
	HeatState  State
	Celsius    float64
}

// Input is one poll of the machines, taken after they fired.
type Input struct {
	Alarm   bool // alarm machine is ON
	Heating bool // thermostat machine is ON
	Celsius float64
	Millis  uint32
	Time    time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	AlarmOn  int
	AlarmOff int
	HeatOn   int
	HeatOff  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
