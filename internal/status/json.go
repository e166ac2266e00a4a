package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Ready         bool           `json:"ready"`
	Millis        uint32         `json:"millis"`
	Alarm         AlarmJSON      `json:"alarm"`
	Thermostat    ThermostatJSON `json:"thermostat"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"event_counts"`
	Config        ConfigJSON     `json:"config"`
}

// AlarmJSON is the JSON representation of the alarm machine.
type AlarmJSON struct {
	State       string `json:"state"`
	LastTrigger uint32 `json:"last_trigger_ms"`
}

// ThermostatJSON is the JSON representation of the thermostat machine.
type ThermostatJSON struct {
	State            string        `json:"state"`
	Celsius          float64       `json:"celsius"`
	LastEvent        string        `json:"last_event"`
	LastActivation   uint32        `json:"last_activation_ms"`
	LastDeactivation uint32        `json:"last_deactivation_ms"`
	History          []HistoryJSON `json:"history,omitempty"`
}

// HistoryJSON is one history slot.
type HistoryJSON struct {
	Kind   string `json:"kind"`
	Millis uint32 `json:"ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	AlarmOn  int `json:"alarm_on"`
	AlarmOff int `json:"alarm_off"`
	HeatOn   int `json:"heat_on"`
	HeatOff  int `json:"heat_off"`
}

// TimerJSON is the JSON representation of a timer register pair.
type TimerJSON struct {
	Name      string `json:"name"`
	Prescaler uint32 `json:"prescaler"`
	Period    uint32 `json:"period"`
	ActualUs  int64  `json:"actual_us"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs           int64       `json:"poll_ms"`
	HeartbeatMs      int64       `json:"heartbeat_ms"`
	Broker           string      `json:"broker"`
	HTTPAddr         string      `json:"http_addr"`
	ThresholdCelsius float64     `json:"threshold_celsius"`
	SamplingMs       int64       `json:"sampling_ms"`
	BlinkMs          int64       `json:"blink_ms"`
	Timers           []TimerJSON `json:"timers,omitempty"`
}

func stateOrUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:  snap.Ready,
		Millis: snap.Millis,
		Alarm: AlarmJSON{
			State:       stateOrUnknown(string(snap.Alarm.State)),
			LastTrigger: snap.Alarm.LastTrigger,
		},
		Thermostat: ThermostatJSON{
			State:            stateOrUnknown(string(snap.Thermostat.State)),
			Celsius:          snap.Thermostat.Celsius,
			LastEvent:        stateOrUnknown(snap.Thermostat.LastEvent),
			LastActivation:   snap.Thermostat.LastActivation,
			LastDeactivation: snap.Thermostat.LastDeactivation,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			AlarmOn:  snap.Counts.AlarmOn,
			AlarmOff: snap.Counts.AlarmOff,
			HeatOn:   snap.Counts.HeatOn,
			HeatOff:  snap.Counts.HeatOff,
		},
		Config: ConfigJSON{
			PollMs:           snap.Config.PollMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
			ThresholdCelsius: snap.Config.ThresholdCelsius,
			SamplingMs:       snap.Config.SamplingMs,
			BlinkMs:          snap.Config.BlinkMs,
		},
	}

	for _, h := range snap.Thermostat.History {
		inner.Thermostat.History = append(inner.Thermostat.History, HistoryJSON{Kind: h.Kind, Millis: h.Millis})
	}
	for _, tm := range snap.Config.Timers {
		inner.Config.Timers = append(inner.Config.Timers, TimerJSON{
			Name:      tm.Name,
			Prescaler: tm.Prescaler,
			Period:    tm.Period,
			ActualUs:  tm.Actual.Microseconds(),
		})
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
