// Package status provides a thread-safe status tracker for the home-automaton
// daemon. The controller writes it; HTTP handlers and MQTT lifecycle events
// read snapshots. Nothing here touches the state machines directly.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/home-automaton/internal/logic"
)

// TimerInfo is a prescaler/period pair reported for a configured timer.
type TimerInfo struct {
	Name      string
	Prescaler uint32
	Period    uint32
	Actual    time.Duration
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs           int64
	HeartbeatMs      int64
	Broker           string
	HTTPAddr         string
	ThresholdCelsius float64
	SamplingMs       int64
	BlinkMs          int64
	Timers           []TimerInfo
}

// AlarmState is the alarm part of a snapshot.
type AlarmState struct {
	State       logic.State
	LastTrigger uint32 // surface millis of the last activation
}

// HistoryEntry is one thermostat history slot.
type HistoryEntry struct {
	Kind   string `json:"kind"`
	Millis uint32 `json:"ms"`
}

// ThermostatState is the thermostat part of a snapshot.
type ThermostatState struct {
	State            logic.State
	Celsius          float64
	LastEvent        string
	LastActivation   uint32
	LastDeactivation uint32
	History          []HistoryEntry
}

// Machines is what the controller reports after every poll.
type Machines struct {
	Alarm      AlarmState
	Thermostat ThermostatState
	Millis     uint32
	Counts     logic.EventCounts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Machines
	Ready         bool // at least one poll has completed
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Machines: Machines{
				Alarm:      AlarmState{State: logic.StateUnknown},
				Thermostat: ThermostatState{State: logic.StateUnknown},
			},
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the wall clock used for Snapshot.Now.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update records the machine states after a poll.
func (t *Tracker) Update(m Machines) {
	hist := make([]HistoryEntry, len(m.Thermostat.History))
	copy(hist, m.Thermostat.History)
	m.Thermostat.History = hist

	t.mu.Lock()
	t.snap.Machines = m
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()

	s.Thermostat.History = append([]HistoryEntry(nil), s.Thermostat.History...)
	s.Config.Timers = append([]TimerInfo(nil), s.Config.Timers...)
	s.Now = now()
	return s
}
