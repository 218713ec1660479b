// Package selftest is the board bring-up check: walk every output up and down,
// run a few sensor exchanges and soil conversions, exercise the display, then
// signal pass or fail on the buzzer.
package selftest

import (
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal"
	"farmnode-go/services/node"
	"farmnode-go/services/status"
	"farmnode-go/x/timex"

	"go.uber.org/zap"
	"tinygo.org/x/drivers"
)

// ---------- Configuration ----------

const (
	stepDelayUp   = 300 * time.Millisecond
	stepDelayDown = 300 * time.Millisecond
	dwellUp       = 2 * time.Second

	sensorAttempts = 3
	sensorGap      = 2 * time.Second // the sensor needs ~1 s between exchanges
)

// Check is one named result.
type Check struct {
	Name string
	Err  error
}

// Result collects every check in the order run.
type Result struct {
	Checks []Check
}

// Passed reports whether every check succeeded.
func (r Result) Passed() bool {
	for _, c := range r.Checks {
		if c.Err != nil {
			return false
		}
	}
	return true
}

func (r *Result) add(name string, err error) {
	r.Checks = append(r.Checks, Check{Name: name, Err: err})
}

// Run executes the sequence once. It blocks for several seconds of clock time.
func Run(p *node.Parts, soilChannel uint8, clock timex.Clock, log *zap.Logger) Result {
	clock = timex.Or(clock)
	if log == nil {
		log = zap.NewNop()
	}
	var res Result

	if err := p.Outputs.Configure(); err != nil {
		res.add("outputs.configure", err)
		return res
	}

	seq := []struct {
		name string
		out  *hal.Output
	}{
		{"safe", &p.Outputs.Safe},
		{"warning", &p.Outputs.Warning},
		{"danger", &p.Outputs.Danger},
		{"pump", &p.Outputs.Pump},
	}
	// Up in order, down in reverse.
	for _, s := range seq {
		s.out.Set(true)
		res.add("output."+s.name, readback(s.out, true))
		log.Info("output on", zap.String("line", s.name))
		clock.Sleep(stepDelayUp)
	}
	clock.Sleep(dwellUp)
	for i := len(seq) - 1; i >= 0; i-- {
		seq[i].out.Set(false)
		if err := readback(seq[i].out, false); err != nil {
			res.add("output."+seq[i].name+".off", err)
		}
		clock.Sleep(stepDelayDown)
	}

	// Polled through the tinygo sensor contract.
	var sensor drivers.Sensor = p.Climate
	var good int
	var lastErr error
	for i := 0; i < sensorAttempts; i++ {
		if i > 0 {
			clock.Sleep(sensorGap)
		}
		err := sensor.Update(drivers.Temperature | drivers.Humidity)
		if err != nil {
			lastErr = err
			log.Warn("sensor exchange failed", zap.Int("attempt", i+1),
				zap.String("code", string(errcode.MapDriverErr(err))))
			continue
		}
		good++
		log.Info("sensor", zap.Uint8("temp_c", p.Climate.Temperature()), zap.Uint8("humidity", p.Climate.Humidity()),
			zap.Bool("checksum_ok", p.Climate.LastFrame().ChecksumOK()))
	}
	if good > 0 {
		lastErr = nil
	}
	res.add("sensor", lastErr)

	raw, err := p.Soil.Read(soilChannel)
	res.add("soil", err)
	if err == nil {
		log.Info("soil", zap.Uint16("raw", raw))
	}

	pres := status.New(p.Display)
	err = pres.Init()
	if err == nil {
		err = pres.Greet()
	}
	res.add("display", err)

	signal(p, res.Passed(), clock)
	for _, c := range res.Checks {
		if c.Err != nil {
			log.Error("check failed", zap.String("check", c.Name), zap.Error(c.Err))
		}
	}
	log.Info("selftest done", zap.Bool("pass", res.Passed()), zap.Int("checks", len(res.Checks)))
	return res
}

// readback compares a line's level with what was driven. Unwired lines pass.
func readback(o *hal.Output, want bool) error {
	if o.Line == nil {
		return nil
	}
	if o.On() != want {
		return errcode.InvalidLine
	}
	return nil
}

// signal: double short beep for pass, single long for fail.
func signal(p *node.Parts, pass bool, clock timex.Clock) {
	if pass {
		p.Outputs.Beep(2, 120*time.Millisecond, clock)
		return
	}
	p.Outputs.Beep(1, 400*time.Millisecond, clock)
}
