package hw

import "time"

// Surface groups the capabilities the two machines are wired to. It replaces
// file-scope hardware globals: one Surface is built at startup and handed
// to the machine constructors and to the edge producers.
type Surface struct {
	Button      *Button
	Motion      *Presence
	Temperature *TempSensor
	AlarmLED    *Blinker
	HeatLED     *LED
	ComfortLED  *LED
	Clock       *Clock
}

// SurfaceConfig holds surface parameters. Zero values select defaults.
type SurfaceConfig struct {
	BlinkPeriod time.Duration
	ADCBits     uint
	ADCVrefMV   uint32
}

// NewSurface creates an in-memory surface. Attach real lines with OpenGPIO,
// or drive the latches directly in tests.
func NewSurface(cfg SurfaceConfig) *Surface {
	return &Surface{
		Button:      &Button{},
		Motion:      &Presence{},
		Temperature: NewTempSensor(cfg.ADCBits, cfg.ADCVrefMV),
		AlarmLED:    NewBlinker(NewLED("alarm"), cfg.BlinkPeriod),
		HeatLED:     NewLED("heat"),
		ComfortLED:  NewLED("comfort"),
		Clock:       &Clock{},
	}
}
