// Package alarm is the intrusion alarm state machine.
//
// The alarm is OFF until the motion sensor reports presence, then ON with a
// blinking indicator until the user completes a press and release of the
// button. Like the rest of the machine layer it does not log and does not
// block; it only reads the latched inputs handed to New.
package alarm

import (
	"errors"

	"github.com/sweeney/home-automaton/internal/fsm"
)

// Alarm states.
const (
	Off fsm.State = iota // not signaling
	On                   // intrusion signaled, indicator blinking
)

// Button is the edge latch of the deactivation button.
type Button interface {
	Latch() (pressed, released bool)
	Clear()
}

// Motion is the presence latch of the motion sensor.
type Motion interface {
	Active() bool
}

// Indicator is the alarm light with its blink timer.
type Indicator interface {
	On()
	Off()
	StartBlink()
	StopBlink()
}

// Clock returns milliseconds since boot.
type Clock interface {
	Millis() uint32
}

// ErrMissingCapability is returned when New is called with a nil capability.
var ErrMissingCapability = errors.New("alarm: missing capability")

// Alarm is the alarm state machine.
type Alarm struct {
	machine *fsm.Machine

	button Button
	led    Indicator
	motion Motion
	clock  Clock

	armed       bool
	lastTrigger uint32
}

// New builds an alarm wired to the given capabilities. It starts OFF.
func New(button Button, led Indicator, motion Motion, clock Clock) (*Alarm, error) {
	if button == nil || led == nil || motion == nil || clock == nil {
		return nil, ErrMissingCapability
	}

	a := &Alarm{
		button: button,
		led:    led,
		motion: motion,
		clock:  clock,
	}

	m, err := fsm.New([]fsm.Transition{
		{From: Off, Guard: fsm.GuardFunc(a.newPresence), To: On, Action: fsm.ActionFunc(a.activate)},
		{From: On, Guard: fsm.GuardFunc(a.deactivation), To: Off, Action: fsm.ActionFunc(a.deactivate)},
	})
	if err != nil {
		return nil, err
	}
	a.machine = m

	return a, nil
}

// newPresence holds when the sensor sees someone and the alarm is not
// already signaling. Presence that persists while ON does not retrigger.
func (a *Alarm) newPresence() bool {
	return a.motion.Active() && !a.armed
}

// deactivation holds once a full press/release cycle has been latched.
func (a *Alarm) deactivation() bool {
	pressed, released := a.button.Latch()
	return released && !pressed
}

func (a *Alarm) activate() {
	a.led.On()
	a.led.StartBlink()
	a.armed = true
	a.lastTrigger = a.clock.Millis()
}

func (a *Alarm) deactivate() {
	a.led.StopBlink()
	a.led.Off()
	a.armed = false
	// Consume the press so it cannot fire a second transition.
	a.button.Clear()
}

// Fire evaluates the machine once. Returns true if a transition fired.
func (a *Alarm) Fire() bool {
	return a.machine.Fire()
}

// Machine returns the underlying engine.
func (a *Alarm) Machine() *fsm.Machine {
	return a.machine
}

// Status reports whether the alarm is signaling.
func (a *Alarm) Status() bool {
	return a.armed
}

// LastTriggerTime returns the clock value of the last activation, or 0.
func (a *Alarm) LastTriggerTime() uint32 {
	return a.lastTrigger
}
