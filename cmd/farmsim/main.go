//go:build !rp2040

// Command farmsim runs the node against simulated hardware on the host. The
// display is printed whenever it changes and telemetry lines go to stdout.
//
//	farmsim -config farm.yaml -cycles 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmnode-go/services/config"
	"farmnode-go/services/control"
	"farmnode-go/services/hal/platform"
	"farmnode-go/services/logging"
	"farmnode-go/services/node"
	"farmnode-go/services/telemetry"
	"farmnode-go/x/timex"

	"go.uber.org/zap"
)

var (
	configFlag   = flag.String("config", "farm.yaml", "path to YAML configuration")
	cyclesFlag   = flag.Int("cycles", -1, "number of cycles (0 = forever, -1 = from config)")
	wallFlag     = flag.Bool("wall", false, "pace cycles in real time instead of the virtual clock")
	logLevelFlag = flag.String("log-level", "", "override log.level")
	checksumFlag = flag.Bool("verify-checksum", false, "reject frames with a bad checksum")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "farmsim:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *cyclesFlag >= 0 {
		cfg.Sim.Cycles = *cyclesFlag
	}
	if *wallFlag {
		cfg.Sim.Virtual = false
	}
	if *logLevelFlag != "" {
		cfg.Log.Level = *logLevelFlag
	}
	if *checksumFlag {
		cfg.Sensor.VerifyChecksum = true
	}

	log := logging.Named("farmsim", cfg.Log.Level, cfg.Log.Format, os.Stderr)
	defer log.Sync()

	// Line protocols always run on virtual time: the simulated sensor answers
	// in microseconds, which a host scheduler cannot pace.
	lineClock := timex.NewVirtual(time.Now())
	var loopClock timex.Clock = lineClock
	if !cfg.Sim.Virtual {
		loopClock = timex.System{}
	}

	pins := platform.DefaultPinFactory()
	sensor := platform.NewSimSensor(cfg.Pins.Sensor, lineClock)
	adc := platform.NewSimADC(lineClock)
	lcd := platform.NewLCDModel(16)
	script := newProfile(cfg.Sim.Profile, cfg.Soil.Channel, sensor, adc)

	screen := &screenPrinter{lcd: lcd, log: log}
	loop, err := node.Build(cfg, node.Hardware{
		Pins:       pins,
		ADC:        adc,
		SensorLine: sensor,
		Display:    lcd,
	}, node.Options{
		Clock:     loopClock,
		LineClock: lineClock,
		Sink:      fanout{telemetry.NewWriter(os.Stdout), screen, script},
		Logger:    log,
		MaxCycles: cfg.Sim.Cycles,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("simulation starting",
		zap.Bool("virtual", cfg.Sim.Virtual),
		zap.Int("cycles", cfg.Sim.Cycles),
		zap.Int("profile_steps", len(cfg.Sim.Profile)))
	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("simulation finished", zap.Int("exchanges", sensor.Exchanges()), zap.Int("conversions", adc.Starts()))
	return nil
}

// screenPrinter logs the display contents after every cycle in which they
// changed.
type screenPrinter struct {
	lcd  *platform.LCDModel
	log  *zap.Logger
	last [2]string
}

func (s *screenPrinter) Emit(telemetry.Record) error {
	lines := s.lcd.Lines()
	if lines != s.last {
		s.last = lines
		s.log.Info("display", zap.String("line1", lines[0]), zap.String("line2", lines[1]))
	}
	return nil
}

var _ control.Sink = fanout(nil)
