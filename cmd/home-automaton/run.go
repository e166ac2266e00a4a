package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/home-automaton/internal/alarm"
	"github.com/sweeney/home-automaton/internal/config"
	"github.com/sweeney/home-automaton/internal/controller"
	"github.com/sweeney/home-automaton/internal/hw"
	"github.com/sweeney/home-automaton/internal/logger"
	"github.com/sweeney/home-automaton/internal/mqtt"
	"github.com/sweeney/home-automaton/internal/status"
	"github.com/sweeney/home-automaton/internal/thermostat"
	"github.com/sweeney/home-automaton/internal/web"
)

// fakeADCRaw is what the in-memory ADC reports: about 22 °C on the default
// 12-bit, 3.3 V converter.
const fakeADCRaw = 273

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 2 * time.Second

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	lvl, ok := logger.ParseLogLevel(level)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	logger.SetLevel(lvl)

	return cfg, nil
}

func gpioConfig(cfg *config.Config) hw.GPIOConfig {
	return hw.GPIOConfig{
		Chip:           cfg.GPIO.Chip,
		Button:         cfg.GPIO.Button,
		PIR:            cfg.GPIO.PIR,
		AlarmLED:       cfg.GPIO.AlarmLED,
		HeatLED:        cfg.GPIO.HeatLED,
		ComfortLED:     cfg.GPIO.ComfortLED,
		ButtonDebounce: cfg.GPIO.ButtonDebounce,
	}
}

func surfaceConfig(cfg *config.Config) hw.SurfaceConfig {
	return hw.SurfaceConfig{
		BlinkPeriod: cfg.Alarm.BlinkPeriod,
		ADCBits:     cfg.ADC.Bits,
		ADCVrefMV:   cfg.ADC.VrefMV,
	}
}

// timerInfos computes the prescaler/period pair for every periodic timer the
// daemon runs. Periods a 16-bit timer cannot reach are logged and skipped.
func timerInfos(cfg *config.Config, log *zap.SugaredLogger) []status.TimerInfo {
	periods := []struct {
		name   string
		period time.Duration
	}{
		{"tick", hw.TickPeriod},
		{"blink", cfg.Alarm.BlinkPeriod},
		{"sampling", cfg.Thermostat.SamplingPeriod},
	}

	var out []status.TimerInfo
	for _, p := range periods {
		regs, err := hw.ComputeTimerRegisters(cfg.Timer.ClockHz, p.period)
		if err != nil {
			log.Warnw("timer period not reachable", "timer", p.name, "period", p.period, "error", err)
			continue
		}
		log.Infow("timer registers",
			"timer", p.name,
			"period", p.period,
			"prescaler", regs.Prescaler,
			"reload", regs.Period,
			"actual", regs.Actual())
		out = append(out, status.TimerInfo{
			Name:      p.name,
			Prescaler: regs.Prescaler,
			Period:    regs.Period,
			Actual:    regs.Actual(),
		})
	}
	return out
}

// devices is the hardware the daemon talks to.
type devices struct {
	surface *hw.Surface
	adc     hw.ADC
	inputs  hw.InputReader
	close   func() error
}

// openDevices builds the surface and, unless fake, attaches GPIO lines and
// the IIO converter. The in-memory inputs report nothing held.
func openDevices(cfg *config.Config, fake bool) (*devices, error) {
	s := hw.NewSurface(surfaceConfig(cfg))

	if fake {
		return &devices{
			surface: s,
			adc:     hw.NewFakeADC(fakeADCRaw),
			inputs:  &hw.FakeInputs{},
			close:   func() error { return nil },
		}, nil
	}

	g, err := hw.OpenGPIO(s, gpioConfig(cfg), logger.Named("gpio"))
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return &devices{surface: s, adc: hw.NewIIOADC(cfg.ADC.Path), inputs: g, close: g.Close}, nil
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer logger.Sync()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log := logger.Named("main")
	ctx = logger.ToContext(ctx, log)

	samplerLog, err := logger.NamedAt("sampler", cfg.ADC.LogLevel)
	if err != nil {
		return err
	}

	dev, err := openDevices(cfg, opts.fake)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.close(); err != nil {
			logger.Warnf(ctx, "release gpio: %v", err)
		}
	}()
	s := dev.surface

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Millisecond tick source.
	clockTicker := time.NewTicker(hw.TickPeriod)
	defer clockTicker.Stop()
	go s.Clock.Run(ctx, clockTicker.C)

	sampler := hw.NewSampler(dev.adc, s.Temperature, samplerLog)
	defer sampler.Stop()

	a, err := alarm.New(s.Button, s.AlarmLED, s.Motion, s.Clock)
	if err != nil {
		return fmt.Errorf("init alarm: %w", err)
	}
	defer s.AlarmLED.StopBlink()

	th, err := thermostat.New(s.HeatLED, s.ComfortLED, s.Temperature, s.Clock,
		thermostat.WithThreshold(cfg.Thermostat.ThresholdCelsius),
		thermostat.WithSamplingPeriod(cfg.Thermostat.SamplingPeriod),
		thermostat.WithSampler(sampler),
	)
	if err != nil {
		return fmt.Errorf("init thermostat: %w", err)
	}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		BufferSize: cfg.MQTT.BufferSize,
		Log:        logger.Named("mqtt"),
	})
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:           cfg.PollInterval.Milliseconds(),
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTPAddr,
		ThresholdCelsius: th.Threshold(),
		SamplingMs:       th.SamplingPeriod().Milliseconds(),
		BlinkMs:          s.AlarmLED.BlinkPeriod().Milliseconds(),
		Timers:           timerInfos(cfg, log),
	})

	ctrl := controller.New(controller.Deps{
		Alarm:      a,
		Thermostat: th,
		Clock:      s.Clock,
		Publisher:  publisher,
		MQTTStatus: publisher,
		Tracker:    tracker,
		Heartbeat:  cfg.Heartbeat,
		Log:        logger.Named("controller"),
	})
	ctrl.Startup()

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, logger.Named("web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "http server error", "error", err)
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			srv.Shutdown(sctx)
		}()
		logger.Infof(ctx, "http status server listening on %s", cfg.HTTPAddr)
	}

	logger.InfoKV(ctx, "started",
		"fake", opts.fake,
		"log_level", logger.Level(),
		"poll", cfg.PollInterval,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.Heartbeat,
		"threshold", th.Threshold(),
		"sampling", th.SamplingPeriod())

	poll := time.NewTicker(cfg.PollInterval)
	defer poll.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return ctrl.Run(ctx, poll.C, sigCh)
}

func printState(w io.Writer, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	dev, err := openDevices(cfg, opts.fake)
	if err != nil {
		return err
	}
	defer dev.close()

	return writeState(w, dev.inputs, dev.adc, dev.surface.Temperature)
}

// writeState reads the live input levels and one temperature sample.
func writeState(w io.Writer, inputs hw.InputReader, adc hw.ADC, sensor *hw.TempSensor) error {
	held, presence, err := inputs.Read()
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}

	raw, err := adc.Read()
	if err != nil {
		return fmt.Errorf("read adc: %w", err)
	}
	celsius := sensor.StoreADC(raw)

	fmt.Fprintf(w, "button: held=%v\n", held)
	fmt.Fprintf(w, "presence: %v\n", presence)
	fmt.Fprintf(w, "temperature: %.1f °C (raw %d)\n", celsius, raw)
	return nil
}

// initConfig writes the default configuration to path. An existing file is
// only replaced with force.
func initConfig(w io.Writer, path string, force bool) error {
	if path == "" {
		path = config.DefaultConfigFilename
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}
