// Package node wires drivers and services into a control loop from a
// configuration. Firmware and the host simulator share it and differ only in
// the hardware they pass in.
package node

import (
	"strconv"

	"farmnode-go/drivers/adc"
	"farmnode-go/drivers/charlcd"
	"farmnode-go/drivers/dht"
	"farmnode-go/errcode"
	"farmnode-go/services/actuator"
	"farmnode-go/services/config"
	"farmnode-go/services/control"
	"farmnode-go/services/hal"
	"farmnode-go/services/status"
	"farmnode-go/x/timex"

	"go.uber.org/zap"
)

// Hardware is what a platform supplies.
type Hardware struct {
	Pins hal.PinFactory
	ADC  hal.AnalogChannel
	// SensorLine overrides Pins for the climate sensor when set.
	SensorLine hal.DigitalLine
	// Display overrides the 4-bit bus built from Pins when set.
	Display hal.CharDisplay
}

// Options are the non-hardware dependencies.
type Options struct {
	Clock timex.Clock
	// LineClock times the sensor, converter and display protocols;
	// defaults to Clock.
	LineClock timex.Clock
	Sink      control.Sink // optional
	Logger    *zap.Logger
	// MaxCycles is passed to the loop; firmware leaves it zero.
	MaxCycles int
}

// Parts are the configured drivers before they are handed to a loop.
type Parts struct {
	Climate *dht.Device
	Soil    *adc.Reader
	Outputs *actuator.Outputs
	Display hal.CharDisplay
}

// Build assembles the parts and the loop around them.
func Build(cfg *config.Config, hw Hardware, opt Options) (*control.Loop, error) {
	p, err := Assemble(cfg, hw, opt)
	if err != nil {
		return nil, err
	}
	t := cfg.Timing
	return control.New(control.Deps{
		Climate: p.Climate,
		Soil:    p.Soil,
		Outputs: p.Outputs,
		Status:  status.New(p.Display),
		Sink:    opt.Sink,
		Clock:   opt.Clock,
		Logger:  opt.Logger,
	}, control.Config{
		SoilChannel: cfg.Soil.Channel,
		Period:      t.CyclePeriod,
		BeepCount:   t.BeepCount,
		BeepPulse:   t.BeepPulse,
		Policy:      cfg.Thresholds,
		MaxCycles:   opt.MaxCycles,
	}), nil
}

// Assemble configures the sensor line and the display bus. Outputs are
// resolved but not touched.
func Assemble(cfg *config.Config, hw Hardware, opt Options) (*Parts, error) {
	clock := opt.LineClock
	if clock == nil {
		clock = timex.Or(opt.Clock)
	}
	line := func(n int) (hal.DigitalLine, error) {
		if n < 0 {
			return nil, nil
		}
		l, ok := hw.Pins.ByNumber(n)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "node", Msg: "no gpio " + strconv.Itoa(n)}
		}
		return l, nil
	}
	output := func(n int, activeLow bool) (hal.Output, error) {
		l, err := line(n)
		return hal.Output{Line: l, ActiveLow: activeLow}, err
	}

	sensorLine := hw.SensorLine
	if sensorLine == nil {
		var err error
		if sensorLine, err = line(cfg.Pins.Sensor); err != nil {
			return nil, err
		}
	}
	dc := cfg.DHT()
	dc.Clock = clock
	climate := dht.New(sensorLine)
	if err := climate.Configure(dc); err != nil {
		return nil, err
	}

	ac := cfg.ADC()
	ac.Clock = clock
	soil := adc.New(hw.ADC)
	soil.Configure(ac)

	var outs actuator.Outputs
	var err error
	pins := cfg.Pins
	for _, o := range []struct {
		dst       *hal.Output
		n         int
		activeLow bool
	}{
		{&outs.Safe, pins.Safe, false},
		{&outs.Warning, pins.Warning, false},
		{&outs.Danger, pins.Danger, false},
		{&outs.Buzzer, pins.Buzzer, false},
		{&outs.Pump, pins.Pump, pins.PumpActiveLow},
	} {
		if *o.dst, err = output(o.n, o.activeLow); err != nil {
			return nil, err
		}
	}

	display := hw.Display
	if display == nil {
		if display, err = buildLCD(cfg, clock, line); err != nil {
			return nil, err
		}
	}

	return &Parts{Climate: &climate, Soil: soil, Outputs: &outs, Display: display}, nil
}

func buildLCD(cfg *config.Config, clock timex.Clock, line func(int) (hal.DigitalLine, error)) (*charlcd.Device, error) {
	lp := cfg.Pins.LCD
	var pins charlcd.Pins
	var err error
	if pins.RS, err = line(lp.RS); err != nil {
		return nil, err
	}
	if pins.EN, err = line(lp.EN); err != nil {
		return nil, err
	}
	if pins.RW, err = line(lp.RW); err != nil {
		return nil, err
	}
	for i, n := range lp.D {
		if pins.D[i], err = line(n); err != nil {
			return nil, err
		}
	}
	lc := cfg.LCD()
	lc.Clock = clock
	d := charlcd.New(pins)
	if err := d.Configure(lc); err != nil {
		return nil, err
	}
	return d, nil
}
