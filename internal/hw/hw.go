// Package hw is the hardware event surface consumed by the state machines.
//
// Inputs are latched by asynchronous producers (GPIO edge handlers, periodic
// timers, the ADC sampler) into single-word atomics. The polling loop only
// reads them, except for the button latch which its consumer may clear.
// Nothing in this package calls into machine logic.
//
// The real implementation uses the Linux GPIO character device.
// The fakes allow testing without hardware.
package hw

// Default line offsets (BCM numbering).
const (
	DefaultPinButton     = 13
	DefaultPinPIR        = 10
	DefaultPinAlarmLED   = 5
	DefaultPinHeatLED    = 6
	DefaultPinComfortLED = 4
)

// InputReader reads the current logical levels of the button and the
// motion sensor, independent of the latches.
type InputReader interface {
	Read() (pressed, presence bool, err error)
}

var _ InputReader = (*GPIO)(nil)
