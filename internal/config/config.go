// Package config loads the daemon settings from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/home-automaton/internal/hw"
	"github.com/sweeney/home-automaton/internal/logger"
	"github.com/sweeney/home-automaton/internal/thermostat"
)

// DefaultConfigFilename is used when no --config path is given.
const DefaultConfigFilename = "home-automaton.yaml"

// DefaultFilePermissions is applied by Save.
const DefaultFilePermissions = 0o600

// Defaults.
const (
	DefaultPollInterval   = 10 * time.Millisecond
	DefaultHeartbeat      = 15 * time.Minute
	DefaultBroker         = "tcp://127.0.0.1:1883"
	DefaultClientID       = "home-automaton"
	DefaultBufferSize     = 100
	DefaultHTTPAddr       = ":8080"
	DefaultChip           = "gpiochip0"
	DefaultButtonDebounce = 20 * time.Millisecond
	DefaultADCPath        = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
	DefaultTimerClockHz   = 16_000_000
)

// Config is the full daemon configuration.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Heartbeat    time.Duration `yaml:"heartbeat"`
	LogLevel     string        `yaml:"log_level"`
	HTTPAddr     string        `yaml:"http_addr"`

	MQTT       MQTT       `yaml:"mqtt"`
	GPIO       GPIO       `yaml:"gpio"`
	ADC        ADC        `yaml:"adc"`
	Thermostat Thermostat `yaml:"thermostat"`
	Alarm      Alarm      `yaml:"alarm"`
	Timer      Timer      `yaml:"timer"`
}

// MQTT holds broker settings.
type MQTT struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	BufferSize int    `yaml:"buffer_size"`
}

// GPIO holds the character device and BCM line offsets.
type GPIO struct {
	Chip           string        `yaml:"chip"`
	Button         int           `yaml:"button"`
	PIR            int           `yaml:"pir"`
	AlarmLED       int           `yaml:"alarm_led"`
	HeatLED        int           `yaml:"heat_led"`
	ComfortLED     int           `yaml:"comfort_led"`
	ButtonDebounce time.Duration `yaml:"button_debounce"`
}

// ADC describes the temperature converter.
type ADC struct {
	Path   string `yaml:"path"`
	Bits   uint   `yaml:"bits"`
	VrefMV uint32 `yaml:"vref_mv"`

	// LogLevel pins the sampler logger; empty follows log_level.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Thermostat holds the heating parameters.
type Thermostat struct {
	ThresholdCelsius float64       `yaml:"threshold_celsius"`
	SamplingPeriod   time.Duration `yaml:"sampling_period"`
}

// Alarm holds the alarm indicator parameters.
type Alarm struct {
	BlinkPeriod time.Duration `yaml:"blink_period"`
}

// Timer is the reference clock used to report prescaler/period pairs.
type Timer struct {
	ClockHz float64 `yaml:"clock_hz"`
}

var (
	errConfigIsNotSet  = errors.New("configuration is not set")
	errInvalidBroker   = errors.New("mqtt broker must be a URL with scheme and host")
	errInvalidLogLevel = errors.New("unknown log level")
	errNegative        = errors.New("must not be negative")
	errNotPositive     = errors.New("must be positive")
	errADCBits         = errors.New("adc bits must be between 1 and 16")
	errDuplicatePin    = errors.New("gpio line used twice")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		Heartbeat:    DefaultHeartbeat,
		LogLevel:     "info",
		HTTPAddr:     DefaultHTTPAddr,
		MQTT: MQTT{
			Broker:     DefaultBroker,
			ClientID:   DefaultClientID,
			BufferSize: DefaultBufferSize,
		},
		GPIO: GPIO{
			Chip:           DefaultChip,
			Button:         hw.DefaultPinButton,
			PIR:            hw.DefaultPinPIR,
			AlarmLED:       hw.DefaultPinAlarmLED,
			HeatLED:        hw.DefaultPinHeatLED,
			ComfortLED:     hw.DefaultPinComfortLED,
			ButtonDebounce: DefaultButtonDebounce,
		},
		ADC: ADC{
			Path:   DefaultADCPath,
			Bits:   hw.DefaultADCBits,
			VrefMV: hw.DefaultADCVrefMV,
		},
		Thermostat: Thermostat{
			ThresholdCelsius: thermostat.DefaultThreshold,
			SamplingPeriod:   thermostat.DefaultSamplingPeriod,
		},
		Alarm: Alarm{
			BlinkPeriod: hw.DefaultBlinkPeriod,
		},
		Timer: Timer{
			ClockHz: DefaultTimerClockHz,
		},
	}
}

// Load reads path over the defaults and validates the result. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks cfg and fills zero values that have defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	def := Default()

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Heartbeat < 0 {
		return fmt.Errorf("heartbeat %v: %w", cfg.Heartbeat, errNegative)
	}
	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errInvalidLogLevel)
	}

	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = def.MQTT.Broker
	}
	u, err := url.Parse(cfg.MQTT.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q: %w", cfg.MQTT.Broker, errInvalidBroker)
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = def.MQTT.ClientID
	}
	if cfg.MQTT.BufferSize <= 0 {
		cfg.MQTT.BufferSize = def.MQTT.BufferSize
	}

	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = def.GPIO.Chip
	}
	if cfg.GPIO.ButtonDebounce < 0 {
		return fmt.Errorf("button debounce %v: %w", cfg.GPIO.ButtonDebounce, errNegative)
	}
	if err := checkPins(cfg.GPIO); err != nil {
		return err
	}

	if cfg.ADC.Path == "" {
		cfg.ADC.Path = def.ADC.Path
	}
	if cfg.ADC.Bits == 0 {
		cfg.ADC.Bits = def.ADC.Bits
	}
	if cfg.ADC.Bits > 16 {
		return fmt.Errorf("%d: %w", cfg.ADC.Bits, errADCBits)
	}
	if cfg.ADC.VrefMV == 0 {
		cfg.ADC.VrefMV = def.ADC.VrefMV
	}
	if cfg.ADC.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(cfg.ADC.LogLevel); !ok {
			return fmt.Errorf("adc %q: %w", cfg.ADC.LogLevel, errInvalidLogLevel)
		}
	}

	if cfg.Thermostat.SamplingPeriod <= 0 {
		cfg.Thermostat.SamplingPeriod = def.Thermostat.SamplingPeriod
	}
	if cfg.Alarm.BlinkPeriod <= 0 {
		cfg.Alarm.BlinkPeriod = def.Alarm.BlinkPeriod
	}
	if cfg.Timer.ClockHz == 0 {
		cfg.Timer.ClockHz = def.Timer.ClockHz
	}
	if cfg.Timer.ClockHz < 0 {
		return fmt.Errorf("timer clock %v: %w", cfg.Timer.ClockHz, errNotPositive)
	}

	return nil
}

func checkPins(g GPIO) error {
	pins := map[string]int{
		"button":      g.Button,
		"pir":         g.PIR,
		"alarm_led":   g.AlarmLED,
		"heat_led":    g.HeatLED,
		"comfort_led": g.ComfortLED,
	}

	seen := make(map[int]string, len(pins))
	for _, name := range []string{"button", "pir", "alarm_led", "heat_led", "comfort_led"} {
		pin := pins[name]
		if pin < 0 {
			return fmt.Errorf("gpio %s %d: %w", name, pin, errNegative)
		}
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("gpio %s and %s on line %d: %w", other, name, pin, errDuplicatePin)
		}
		seen[pin] = name
	}

	return nil
}
