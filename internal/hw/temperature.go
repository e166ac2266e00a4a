package hw

import (
	"math"
	"sync/atomic"
)

// InitialCelsius is the value reported before the first conversion completes.
const InitialCelsius = 1.0

// Default converter parameters for an LM35 on a 12-bit ADC with a 3.3 V reference.
const (
	DefaultADCBits   = 12
	DefaultADCVrefMV = 3300
)

// TempSensor holds the last converted temperature. The sampler writes it,
// the thermostat reads it.
type TempSensor struct {
	bits   atomic.Uint64
	adcBit uint
	vrefMV uint32
}

// NewTempSensor creates a sensor for an ADC with the given resolution and
// reference voltage. Zero values select the defaults.
func NewTempSensor(adcBits uint, vrefMV uint32) *TempSensor {
	if adcBits == 0 {
		adcBits = DefaultADCBits
	}
	if vrefMV == 0 {
		vrefMV = DefaultADCVrefMV
	}

	s := &TempSensor{adcBit: adcBits, vrefMV: vrefMV}
	s.Set(InitialCelsius)
	return s
}

// Celsius returns the last converted value.
func (s *TempSensor) Celsius() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Set stores a temperature directly.
func (s *TempSensor) Set(celsius float64) {
	s.bits.Store(math.Float64bits(celsius))
}

// StoreADC converts a raw ADC count and stores the result.
func (s *TempSensor) StoreADC(raw uint32) float64 {
	c := ADCToCelsius(raw, s.adcBit, s.vrefMV)
	s.Set(c)
	return c
}

// ADCToCelsius converts a raw count to degrees for a 10 mV/°C sensor.
// Millivolts are computed with integer arithmetic, matching the converter.
func ADCToCelsius(raw uint32, bits uint, vrefMV uint32) float64 {
	full := uint32(1)<<bits - 1
	if raw > full {
		raw = full
	}
	mv := uint64(vrefMV) * uint64(raw) / uint64(full)
	return float64(mv) / 10.0
}
