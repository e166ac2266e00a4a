//go:build !linux

package hw

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// GPIOConfig selects the chip and line offsets.
type GPIOConfig struct {
	Chip           string
	Button         int
	PIR            int
	AlarmLED       int
	HeatLED        int
	ComfortLED     int
	ButtonDebounce time.Duration
}

// GPIO is not available on non-Linux platforms.
type GPIO struct{}

// OpenGPIO returns an error on non-Linux platforms.
func OpenGPIO(_ *Surface, _ GPIOConfig, _ *zap.SugaredLogger) (*GPIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (g *GPIO) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *GPIO) Close() error {
	return nil
}
