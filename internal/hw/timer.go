package hw

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Timer is a periodic timer with a callback bound at construction.
type Timer interface {
	Start(period time.Duration)
	Stop()
}

// PeriodicTimer runs its callback on its own goroutine every period.
// The callback plays the role of a timer interrupt: it must only touch
// latches and outputs, never machine state.
type PeriodicTimer struct {
	fn func()

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	period  time.Duration
	running bool
}

// NewPeriodicTimer creates a stopped timer that will call fn on each tick.
func NewPeriodicTimer(fn func()) *PeriodicTimer {
	return &PeriodicTimer{fn: fn}
}

// Start (re)starts the timer with the given period. A non-positive period
// leaves the timer stopped.
func (t *PeriodicTimer) Start(period time.Duration) {
	t.Stop()
	if period <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done, t.period, t.running = stop, done, period, true

	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.fn()
			}
		}
	}()
}

// Stop halts the timer and waits for a callback in flight to return.
// Stopping a stopped timer is a no-op. Must not be called from the callback.
func (t *PeriodicTimer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	stop, done := t.stop, t.done
	t.running = false
	t.mu.Unlock()

	close(stop)
	<-done
}

// Running reports whether the timer is started.
func (t *PeriodicTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Period returns the period of the last Start.
func (t *PeriodicTimer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// maxRegister is the largest value of a 16-bit timer register.
const maxRegister = 0xFFFF

// ErrPeriodOutOfRange is returned when a period cannot be represented by
// a 16-bit prescaler and countdown pair.
var ErrPeriodOutOfRange = errors.New("timer period out of range")

// TimerRegisters is the prescaler/countdown pair for a hardware timer.
type TimerRegisters struct {
	ClockHz   float64
	Prescaler uint32
	Period    uint32
}

// ComputeTimerRegisters picks a prescaler and countdown value for the given
// clock and period. The prescaler is chosen first so the countdown fits 16
// bits; if rounding pushes the countdown over, the prescaler is bumped once
// and the countdown recomputed.
func ComputeTimerRegisters(clockHz float64, period time.Duration) (TimerRegisters, error) {
	if clockHz <= 0 || period <= 0 {
		return TimerRegisters{}, fmt.Errorf("clock %.0f Hz, period %v: %w", clockHz, period, ErrPeriodOutOfRange)
	}

	ticks := clockHz * period.Seconds()

	psc := math.Round(ticks/(maxRegister+1) - 1)
	if psc < 0 {
		psc = 0
	}
	arr := math.Round(ticks/(psc+1) - 1)

	if arr > maxRegister {
		psc++
		arr = math.Round(ticks/(psc+1) - 1)
	}

	if psc > maxRegister || arr > maxRegister || arr < 0 {
		return TimerRegisters{}, fmt.Errorf("clock %.0f Hz, period %v: %w", clockHz, period, ErrPeriodOutOfRange)
	}

	return TimerRegisters{
		ClockHz:   clockHz,
		Prescaler: uint32(psc),
		Period:    uint32(arr),
	}, nil
}

// Actual returns the wall-clock period the registers produce.
func (r TimerRegisters) Actual() time.Duration {
	if r.ClockHz <= 0 {
		return 0
	}
	secs := float64(r.Prescaler+1) * float64(r.Period+1) / r.ClockHz
	return time.Duration(secs * float64(time.Second))
}
