//go:build linux

package hw

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
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

// GPIO connects a Surface to real lines using the Linux GPIO character device.
// Edge events arrive on a gpiocdev goroutine and only write surface latches.
type GPIO struct {
	chip    *gpiocdev.Chip
	button  *gpiocdev.Line
	pir     *gpiocdev.Line
	outputs []*gpiocdev.Line
}

// OpenGPIO requests all lines and wires their events into s.
func OpenGPIO(s *Surface, cfg GPIOConfig, log *zap.SugaredLogger) (*GPIO, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}
	g := &GPIO{chip: chip}

	// The button pulls the line low when held, so request it active-low:
	// a rising edge then means "pressed".
	buttonOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.AsActiveLow,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			s.Button.Edge(evt.Type == gpiocdev.LineEventRisingEdge)
		}),
	}
	if cfg.ButtonDebounce > 0 {
		buttonOpts = append(buttonOpts, gpiocdev.WithDebounce(cfg.ButtonDebounce))
	}
	g.button, err = chip.RequestLine(cfg.Button, buttonOpts...)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("request button pin %d: %w", cfg.Button, err)
	}

	g.pir, err = chip.RequestLine(cfg.PIR,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			s.Motion.Set(evt.Type == gpiocdev.LineEventRisingEdge)
		}))
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("request pir pin %d: %w", cfg.PIR, err)
	}

	// Edges only report changes, so seed the presence latch with the
	// current level.
	if v, err := g.pir.Value(); err == nil {
		s.Motion.Set(v == 1)
	}

	onErr := func(name string, err error) {
		if log != nil {
			log.Warnw("led write failed", "led", name, "error", err)
		}
	}

	for _, out := range []struct {
		led    *LED
		offset int
	}{
		{s.AlarmLED.LED, cfg.AlarmLED},
		{s.HeatLED, cfg.HeatLED},
		{s.ComfortLED, cfg.ComfortLED},
	} {
		line, err := chip.RequestLine(out.offset, gpiocdev.AsOutput(0))
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("request %s led pin %d: %w", out.led.Name(), out.offset, err)
		}
		g.outputs = append(g.outputs, line)
		out.led.Attach(line, onErr)
	}

	return g, nil
}

// Read returns the current logical button and PIR levels.
func (g *GPIO) Read() (pressed, presence bool, err error) {
	b, err := g.button.Value()
	if err != nil {
		return false, false, fmt.Errorf("read button pin: %w", err)
	}

	p, err := g.pir.Value()
	if err != nil {
		return false, false, fmt.Errorf("read pir pin: %w", err)
	}

	return b == 1, p == 1, nil
}

// Close drives the outputs low and releases all lines.
func (g *GPIO) Close() error {
	var errs []error

	for _, line := range g.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output %d: %w", line.Offset(), err))
		}
	}
	g.outputs = nil

	for _, line := range []*gpiocdev.Line{g.button, g.pir} {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input %d: %w", line.Offset(), err))
		}
	}
	g.button, g.pir = nil, nil

	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		g.chip = nil
	}

	return errors.Join(errs...)
}
