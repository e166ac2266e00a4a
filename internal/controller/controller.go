// Package controller runs the polling loop: on every tick it fires the alarm
// and then the thermostat, publishes their transitions, and keeps the status
// tracker current.
package controller

import (
	"context"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/home-automaton/internal/logic"
	"github.com/sweeney/home-automaton/internal/mqtt"
	"github.com/sweeney/home-automaton/internal/status"
	"github.com/sweeney/home-automaton/internal/thermostat"
)

// Alarm is the alarm machine as seen by the loop.
type Alarm interface {
	Fire() bool
	Status() bool
	LastTriggerTime() uint32
}

// Thermostat is the thermostat machine as seen by the loop.
type Thermostat interface {
	Fire() bool
	Heating() bool
	Temperature() float64
	Status() thermostat.EventKind
	LastTimeEvent(kind thermostat.EventKind) uint32
	History() []thermostat.Record
}

// Clock returns milliseconds since boot.
type Clock interface {
	Millis() uint32
}

// Deps are the collaborators of a Controller. Tracker and MQTTStatus may be nil.
type Deps struct {
	Alarm      Alarm
	Thermostat Thermostat
	Clock      Clock
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Heartbeat  time.Duration
	Now        func() time.Time
	Log        *zap.SugaredLogger
}

// Controller owns the detector and is the only goroutine that fires the
// machines.
type Controller struct {
	d        Deps
	detector *logic.Detector
}

// New creates a controller. The detector's uptime starts at Now().
func New(d Deps) *Controller {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	return &Controller{
		d:        d,
		detector: logic.NewDetector(d.Now()),
	}
}

// Startup publishes the retained STARTUP event with a status snapshot.
func (c *Controller) Startup() {
	event := mqtt.SystemEvent{
		Timestamp: c.d.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}
	if c.d.Tracker != nil {
		c.refreshConnection()
		event.RawPayload = status.FormatStatusEvent(c.d.Tracker.Snapshot(), "STARTUP", "")
	}
	if err := c.d.Publisher.PublishSystem(event); err != nil {
		c.d.Log.Warnw("failed to publish startup event", "error", err)
		return
	}
	c.d.Log.Info("published startup event")
}

// Run polls on every tick until a signal arrives or ctx is done, then
// publishes the retained SHUTDOWN event.
func (c *Controller) Run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			c.d.Log.Infow("received signal, shutting down", "signal", s)
			c.shutdown(signalName(s))
			return nil

		case <-ctx.Done():
			c.d.Log.Info("context done, shutting down")
			c.shutdown("CONTEXT")
			return nil

		case <-tick:
			c.Poll()
		}
	}
}

// Poll fires both machines once and handles the resulting transitions.
func (c *Controller) Poll() []logic.Event {
	t := c.d.Now()

	c.d.Alarm.Fire()
	c.d.Thermostat.Fire()

	events := c.detector.Process(logic.Input{
		Alarm:   c.d.Alarm.Status(),
		Heating: c.d.Thermostat.Heating(),
		Celsius: c.d.Thermostat.Temperature(),
		Millis:  c.d.Clock.Millis(),
		Time:    t,
	})

	for _, event := range events {
		c.d.Log.Infow("transition",
			"event", event.Type,
			"millis", event.Millis,
			"alarm", event.AlarmState,
			"heat", event.HeatState,
			"celsius", event.Celsius)
		if err := c.d.Publisher.Publish(event); err != nil {
			c.d.Log.Warnw("publish error", "event", event.Type, "error", err)
		}
	}

	c.updateTracker()

	if hb := c.detector.CheckHeartbeat(t, c.d.Heartbeat); hb != nil {
		c.heartbeat(hb)
	}

	return events
}

func (c *Controller) heartbeat(hb *logic.HeartbeatData) {
	c.d.Log.Infow("heartbeat",
		"uptime", hb.Uptime,
		"alarm_on", hb.Counts.AlarmOn,
		"alarm_off", hb.Counts.AlarmOff,
		"heat_on", hb.Counts.HeatOn,
		"heat_off", hb.Counts.HeatOff)

	event := mqtt.SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     "HEARTBEAT",
	}
	if c.d.Tracker != nil {
		event.RawPayload = status.FormatStatusEvent(c.d.Tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := c.d.Publisher.PublishSystem(event); err != nil {
		c.d.Log.Warnw("heartbeat publish error", "error", err)
	}
}

func (c *Controller) shutdown(reason string) {
	event := mqtt.SystemEvent{
		Timestamp: c.d.Now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if c.d.Tracker != nil {
		c.refreshConnection()
		event.RawPayload = status.FormatStatusEvent(c.d.Tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := c.d.Publisher.PublishSystem(event); err != nil {
		c.d.Log.Warnw("failed to publish shutdown event", "error", err)
		return
	}
	c.d.Log.Info("published shutdown event")
}

func (c *Controller) refreshConnection() {
	if c.d.MQTTStatus != nil {
		c.d.Tracker.SetMQTTConnected(c.d.MQTTStatus.IsConnected())
	}
}

func (c *Controller) updateTracker() {
	if c.d.Tracker == nil {
		return
	}

	alarm, heat := c.detector.CurrentState()
	th := c.d.Thermostat

	records := th.History()
	hist := make([]status.HistoryEntry, len(records))
	for i, r := range records {
		hist[i] = status.HistoryEntry{Kind: r.Kind.String(), Millis: r.Millis}
	}

	c.d.Tracker.Update(status.Machines{
		Alarm: status.AlarmState{
			State:       alarm,
			LastTrigger: c.d.Alarm.LastTriggerTime(),
		},
		Thermostat: status.ThermostatState{
			State:            heat,
			Celsius:          th.Temperature(),
			LastEvent:        th.Status().String(),
			LastActivation:   th.LastTimeEvent(thermostat.Activation),
			LastDeactivation: th.LastTimeEvent(thermostat.Deactivation),
			History:          hist,
		},
		Millis: c.d.Clock.Millis(),
		Counts: c.detector.EventCounts(),
	})
	c.refreshConnection()
}

// EventCounts returns the transition counts since startup.
func (c *Controller) EventCounts() logic.EventCounts {
	return c.detector.EventCounts()
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
