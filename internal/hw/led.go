package hw

import (
	"sync"
	"time"
)

// Pin is a digital output line. *gpiocdev.Line satisfies it.
type Pin interface {
	SetValue(value int) error
}

// LED is a digital output indicator. Without an attached pin it only keeps
// its logical state, which is what tests and the fake surface use.
//
// The blink timer toggles it from its own goroutine while the polling loop
// switches it on and off, so state and pin writes are serialized by a mutex.
type LED struct {
	name string

	mu    sync.Mutex
	on    bool
	pin   Pin
	onErr func(name string, err error)
}

// NewLED creates an LED that starts off.
func NewLED(name string) *LED {
	return &LED{name: name}
}

// Attach routes writes to pin. onErr, if set, receives write failures.
func (l *LED) Attach(pin Pin, onErr func(name string, err error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pin = pin
	l.onErr = onErr
	l.write()
}

// Name returns the LED name.
func (l *LED) Name() string { return l.name }

// On turns the LED on.
func (l *LED) On() { l.set(true) }

// Off turns the LED off.
func (l *LED) Off() { l.set(false) }

// Toggle inverts the LED.
func (l *LED) Toggle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = !l.on
	l.write()
}

// IsOn reports the logical state.
func (l *LED) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *LED) set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = on
	l.write()
}

// write must be called with mu held.
func (l *LED) write() {
	if l.pin == nil {
		return
	}
	v := 0
	if l.on {
		v = 1
	}
	if err := l.pin.SetValue(v); err != nil && l.onErr != nil {
		l.onErr(l.name, err)
	}
}

// DefaultBlinkPeriod is the toggle period of a blinking indicator.
const DefaultBlinkPeriod = time.Second

// Blinker is an LED with a periodic timer that toggles it.
type Blinker struct {
	*LED
	timer  Timer
	period time.Duration
}

// NewBlinker wraps led with a toggle timer of the given period.
func NewBlinker(led *LED, period time.Duration) *Blinker {
	return NewBlinkerWithTimer(led, NewPeriodicTimer(led.Toggle), period)
}

// NewBlinkerWithTimer wraps led with an explicit timer. The timer callback
// is expected to toggle led.
func NewBlinkerWithTimer(led *LED, timer Timer, period time.Duration) *Blinker {
	if period <= 0 {
		period = DefaultBlinkPeriod
	}
	return &Blinker{LED: led, timer: timer, period: period}
}

// StartBlink starts toggling.
func (b *Blinker) StartBlink() { b.timer.Start(b.period) }

// StopBlink stops toggling. The LED keeps whatever level it had.
func (b *Blinker) StopBlink() { b.timer.Stop() }

// BlinkPeriod returns the toggle period.
func (b *Blinker) BlinkPeriod() time.Duration { return b.period }
