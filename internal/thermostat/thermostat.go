// Package thermostat is the heating state machine.
//
// Heating switches on when the last sampled temperature drops below the
// threshold and off as soon as it is no longer below it. There is no
// hysteresis band. Every switch is appended to a fixed ten-slot history.
package thermostat

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/home-automaton/internal/fsm"
)

// Thermostat states.
const (
	Off fsm.State = iota // not heating
	On                   // heating
)

// Defaults.
const (
	DefaultThreshold      = 25.0
	DefaultSamplingPeriod = time.Second
)

// Indicator is a status light.
type Indicator interface {
	On()
	Off()
}

// Sensor returns the last converted temperature in degrees Celsius.
type Sensor interface {
	Celsius() float64
}

// Sampler refreshes the sensor periodically. It is started by New with the
// thermostat's sampling period.
type Sampler interface {
	Start(period time.Duration)
}

// Clock returns milliseconds since boot.
type Clock interface {
	Millis() uint32
}

var (
	// ErrMissingCapability is returned when New is called with a nil capability.
	ErrMissingCapability = errors.New("thermostat: missing capability")
	// ErrInvalidPeriod is returned for a non-positive sampling period.
	ErrInvalidPeriod = errors.New("thermostat: sampling period must be positive")
)

// Option configures a Thermostat.
type Option func(*Thermostat)

// WithThreshold sets the switching temperature.
func WithThreshold(celsius float64) Option {
	return func(t *Thermostat) { t.threshold = celsius }
}

// WithSamplingPeriod sets the sampling timer period.
func WithSamplingPeriod(d time.Duration) Option {
	return func(t *Thermostat) { t.samplingPeriod = d }
}

// WithSampler attaches the sampler driving the sensor.
func WithSampler(s Sampler) Option {
	return func(t *Thermostat) { t.sampler = s }
}

// Thermostat is the heating state machine.
type Thermostat struct {
	machine *fsm.Machine

	heat    Indicator
	comfort Indicator
	sensor  Sensor
	clock   Clock
	sampler Sampler

	threshold      float64
	samplingPeriod time.Duration
	history        History
}

// New builds a thermostat. It starts OFF with an empty history and, if a
// sampler was supplied, starts sampling.
func New(heat, comfort Indicator, sensor Sensor, clock Clock, opts ...Option) (*Thermostat, error) {
	if heat == nil || comfort == nil || sensor == nil || clock == nil {
		return nil, ErrMissingCapability
	}

	t := &Thermostat{
		heat:           heat,
		comfort:        comfort,
		sensor:         sensor,
		clock:          clock,
		threshold:      DefaultThreshold,
		samplingPeriod: DefaultSamplingPeriod,
		history:        NewHistory(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.samplingPeriod <= 0 {
		return nil, fmt.Errorf("%v: %w", t.samplingPeriod, ErrInvalidPeriod)
	}

	m, err := fsm.New([]fsm.Transition{
		{From: Off, Guard: fsm.GuardFunc(t.cold), To: On, Action: fsm.ActionFunc(t.heatOn)},
		{From: On, Guard: fsm.GuardFunc(t.comfortable), To: Off, Action: fsm.ActionFunc(t.heatOff)},
	})
	if err != nil {
		return nil, err
	}
	t.machine = m

	if t.sampler != nil {
		t.sampler.Start(t.samplingPeriod)
	}

	return t, nil
}

func (t *Thermostat) cold() bool {
	return t.sensor.Celsius() < t.threshold
}

func (t *Thermostat) comfortable() bool {
	return !t.cold()
}

func (t *Thermostat) heatOn() {
	t.heat.On()
	t.comfort.Off()
	t.history.Append(Activation, t.clock.Millis())
}

func (t *Thermostat) heatOff() {
	t.heat.Off()
	t.comfort.On()
	t.history.Append(Deactivation, t.clock.Millis())
}

// Fire evaluates the machine once. Returns true if a transition fired.
func (t *Thermostat) Fire() bool {
	return t.machine.Fire()
}

// Machine returns the underlying engine.
func (t *Thermostat) Machine() *fsm.Machine {
	return t.machine
}

// Heating reports whether the machine is ON.
func (t *Thermostat) Heating() bool {
	return t.machine.State() == On
}

// Status returns the kind of the most recent event, Unknown before the first.
func (t *Thermostat) Status() EventKind {
	return t.history.Latest()
}

// LastTimeEvent returns the timestamp of the lowest-index history slot
// holding kind, or 0.
func (t *Thermostat) LastTimeEvent(kind EventKind) uint32 {
	return t.history.FirstTime(kind)
}

// History returns a copy of the history slots in index order.
func (t *Thermostat) History() []Record {
	return t.history.Records()
}

// Temperature returns the value the guards currently see.
func (t *Thermostat) Temperature() float64 {
	return t.sensor.Celsius()
}

// Threshold returns the switching temperature.
func (t *Thermostat) Threshold() float64 {
	return t.threshold
}

// SamplingPeriod returns the sampling timer period.
func (t *Thermostat) SamplingPeriod() time.Duration {
	return t.samplingPeriod
}
