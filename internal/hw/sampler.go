package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ADC reads one raw conversion.
type ADC interface {
	Read() (uint32, error)
}

// IIOADC reads a Linux industrial I/O channel, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type IIOADC struct {
	path string
}

// NewIIOADC creates a reader for the given sysfs raw file.
func NewIIOADC(path string) *IIOADC {
	return &IIOADC{path: filepath.Clean(path)}
}

// Read performs one conversion.
func (a *IIOADC) Read() (uint32, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}

	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse adc value %q: %w", strings.TrimSpace(string(data)), err)
	}

	return uint32(v), nil
}

// Sampler requests a conversion on every timer tick and stores the result
// in a TempSensor. Readers never wait for it; they see the last value.
type Sampler struct {
	adc    ADC
	sensor *TempSensor
	timer  Timer
	log    *zap.SugaredLogger

	samples atomic.Uint64
	errors  atomic.Uint64
}

// NewSampler creates a stopped sampler. log may be nil.
func NewSampler(adc ADC, sensor *TempSensor, log *zap.SugaredLogger) *Sampler {
	s := &Sampler{adc: adc, sensor: sensor, log: log}
	s.timer = NewPeriodicTimer(s.Sample)
	return s
}

// Start begins periodic sampling.
func (s *Sampler) Start(period time.Duration) {
	s.timer.Start(period)
}

// Stop ends periodic sampling.
func (s *Sampler) Stop() {
	s.timer.Stop()
}

// Sample performs one conversion. A failed read keeps the previous value.
func (s *Sampler) Sample() {
	raw, err := s.adc.Read()
	if err != nil {
		n := s.errors.Add(1)
		// Log the first failure and then every hundredth to keep a broken
		// sensor from flooding the journal.
		if s.log != nil && (n == 1 || n%100 == 0) {
			s.log.Warnw("temperature sample failed", "error", err, "failures", n)
		}
		return
	}

	c := s.sensor.StoreADC(raw)
	s.samples.Add(1)
	if s.log != nil {
		s.log.Debugw("temperature sampled", "raw", raw, "celsius", c)
	}
}

// Stats returns the number of successful and failed samples.
func (s *Sampler) Stats() (samples, failures uint64) {
	return s.samples.Load(), s.errors.Load()
}
