// Package control runs the node: read the climate sensor and the soil probe,
// decide, drive the outputs and the display, report, wait, repeat.
package control

import (
	"context"
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/actuator"
	"farmnode-go/services/status"
	"farmnode-go/services/telemetry"
	"farmnode-go/types"
	"farmnode-go/x/timex"

	"go.uber.org/zap"
)

// ClimateSensor performs one temperature/humidity exchange.
type ClimateSensor interface {
	Read() (types.SensorReading, error)
}

// SoilSensor converts one analog channel.
type SoilSensor interface {
	Sample(channel uint8) (types.SoilSample, error)
}

// Display presents the greeting and the per-cycle status.
type Display interface {
	Init() error
	Greet() error
	Show(r types.LastKnownReadings, s types.ActuatorState) (status.Lines, error)
}

// Sink receives one record per cycle.
type Sink interface {
	Emit(r telemetry.Record) error
}

type Deps struct {
	Climate ClimateSensor
	Soil    SoilSensor
	Outputs *actuator.Outputs
	Status  Display
	Sink    Sink // optional
	Clock   timex.Clock
	Logger  *zap.Logger
}

type Config struct {
	SoilChannel uint8
	Period      time.Duration
	BeepCount   int
	BeepPulse   time.Duration
	Policy      actuator.Policy
	// MaxCycles stops Run after that many cycles; 0 runs until ctx is done.
	MaxCycles int
}

func DefaultConfig() Config {
	return Config{
		Period:    1000 * time.Millisecond,
		BeepCount: 3,
		BeepPulse: 200 * time.Millisecond,
		Policy:    actuator.DefaultPolicy(),
	}
}

// Report describes one cycle.
type Report struct {
	Seq        uint32
	Input      types.LastKnownReadings // what Decide saw
	State      types.ActuatorState
	Lines      status.Lines
	ClimateErr error
	SoilErr    error
	DisplayErr error
	SinkErr    error
}

// Loop owns the held readings; nothing else writes them.
type Loop struct {
	d     Deps
	cfg   Config
	clock timex.Clock
	log   *zap.Logger

	last types.LastKnownReadings
	seq  uint32
}

func New(d Deps, cfg Config) *Loop {
	if d.Outputs == nil {
		d.Outputs = &actuator.Outputs{}
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{d: d, cfg: cfg, clock: timex.Or(d.Clock), log: log}
}

// Last returns the readings held from previous cycles.
func (l *Loop) Last() types.LastKnownReadings { return l.last }

// Init zeroes the outputs, brings up the display with the greeting and
// sounds the startup beeps.
func (l *Loop) Init() error {
	if err := l.d.Outputs.Configure(); err != nil {
		return err
	}
	l.d.Outputs.Zero()
	if err := l.d.Status.Init(); err != nil {
		return err
	}
	if err := l.d.Status.Greet(); err != nil {
		return err
	}
	l.d.Outputs.Beep(l.cfg.BeepCount, l.cfg.BeepPulse, l.clock)
	l.log.Info("node ready",
		zap.Uint16("soil_dry_above", l.cfg.Policy.SoilDryAbove),
		zap.Uint8("warn_at_c", l.cfg.Policy.WarnAtC),
		zap.Duration("period", l.cfg.Period))
	return nil
}

// Cycle runs one pass. A failed climate exchange or conversion leaves the
// previous value in place; failures are logged, not retried.
func (l *Loop) Cycle() Report {
	l.seq++
	rep := Report{Seq: l.seq}

	reading, err := l.d.Climate.Read()
	if err != nil {
		rep.ClimateErr = err
		l.log.Warn("climate read failed, holding last reading",
			zap.Uint32("seq", l.seq),
			zap.String("code", string(errcode.MapDriverErr(err))),
			zap.Error(err))
	}
	l.last = l.last.MergeClimate(reading)

	soil, err := l.d.Soil.Sample(l.cfg.SoilChannel)
	if err != nil {
		rep.SoilErr = err
		l.log.Warn("soil read failed, holding last sample",
			zap.Uint32("seq", l.seq),
			zap.String("code", string(errcode.MapDriverErr(err))),
			zap.Error(err))
	} else {
		l.last = l.last.WithSoil(soil)
	}

	rep.Input = l.last
	rep.State = l.cfg.Policy.Decide(l.last)
	l.d.Outputs.Apply(rep.State)

	rep.Lines, rep.DisplayErr = l.d.Status.Show(l.last, rep.State)
	if rep.DisplayErr != nil {
		l.log.Error("display update failed", zap.Error(rep.DisplayErr))
	}

	if l.d.Sink != nil {
		rec := telemetry.Record{Seq: l.seq, Readings: l.last, State: rep.State}
		rec.Readings.Climate.Valid = rep.ClimateErr == nil
		rep.SinkErr = l.d.Sink.Emit(rec)
		if rep.SinkErr != nil {
			l.log.Error("telemetry emit failed", zap.Error(rep.SinkErr))
		}
	}

	l.log.Debug("cycle",
		zap.Uint32("seq", l.seq),
		zap.Uint8("temp_c", l.last.Climate.TemperatureC),
		zap.Uint8("humidity", l.last.Climate.HumidityPct),
		zap.Uint16("soil", l.last.Soil.Raw),
		zap.Stringer("tier", rep.State.Tier),
		zap.Bool("pump", rep.State.PumpOn))
	return rep
}

// Run initialises the node then cycles every Period. It returns nil after
// MaxCycles, or ctx.Err() once ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Init(); err != nil {
		return err
	}
	for n := 0; l.cfg.MaxCycles == 0 || n < l.cfg.MaxCycles; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Cycle()
		if err := timex.SleepCtx(ctx, l.clock, l.cfg.Period); err != nil {
			return err
		}
	}
	l.log.Info("cycle limit reached", zap.Int("cycles", l.cfg.MaxCycles))
	return nil
}
