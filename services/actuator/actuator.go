// Package actuator turns held readings into an alarm tier and a pump command
// and drives the corresponding output lines.
package actuator

import (
	"time"

	"farmnode-go/services/hal"
	"farmnode-go/types"
	"farmnode-go/x/timex"
)

const (
	DefaultSoilDryAbove = 700
	DefaultWarnAtC      = 25
)

// Policy holds the two thresholds. The pump runs while the raw soil code is
// strictly above SoilDryAbove. Temperatures below WarnAtC are safe, exactly
// WarnAtC is a warning, anything above is danger.
type Policy struct {
	SoilDryAbove uint16 `yaml:"soil_dry_above"`
	WarnAtC      uint8  `yaml:"warn_at_c"`
}

func DefaultPolicy() Policy {
	return Policy{SoilDryAbove: DefaultSoilDryAbove, WarnAtC: DefaultWarnAtC}
}

// Decide applies p to r. It is pure: same input, same output.
func (p Policy) Decide(r types.LastKnownReadings) types.ActuatorState {
	var s types.ActuatorState
	t := r.Climate.TemperatureC
	switch {
	case t < p.WarnAtC:
		s.Tier = types.TierSafe
	case t == p.WarnAtC:
		s.Tier = types.TierWarning
	default:
		s.Tier = types.TierDanger
	}
	s.PumpOn = r.Soil.Raw > p.SoilDryAbove
	return s
}

// Decide uses the default thresholds.
func Decide(r types.LastKnownReadings) types.ActuatorState {
	return DefaultPolicy().Decide(r)
}

// Outputs are the five discrete lines. Exactly one tier indicator is lit
// after Apply; the buzzer follows the danger indicator.
type Outputs struct {
	Safe    hal.Output
	Warning hal.Output
	Danger  hal.Output
	Buzzer  hal.Output
	Pump    hal.Output
}

func (o *Outputs) all() [5]*hal.Output {
	return [5]*hal.Output{&o.Safe, &o.Warning, &o.Danger, &o.Buzzer, &o.Pump}
}

// Configure makes every line an output in the off state.
func (o *Outputs) Configure() error {
	for _, out := range o.all() {
		if err := out.Configure(); err != nil {
			return err
		}
	}
	return nil
}

// Zero switches everything off.
func (o *Outputs) Zero() {
	for _, out := range o.all() {
		out.Set(false)
	}
}

// Apply drives the lines to match s.
func (o *Outputs) Apply(s types.ActuatorState) {
	o.Safe.Set(s.Tier == types.TierSafe)
	o.Warning.Set(s.Tier == types.TierWarning)
	o.Danger.Set(s.Tier == types.TierDanger)
	o.Buzzer.Set(s.Tier == types.TierDanger)
	o.Pump.Set(s.PumpOn)
}

// State reads back what the lines are showing. A line not wired reads off.
func (o *Outputs) State() (tier types.AlarmTier, buzzer, pump bool) {
	switch {
	case o.Danger.On():
		tier = types.TierDanger
	case o.Warning.On():
		tier = types.TierWarning
	default:
		tier = types.TierSafe
	}
	return tier, o.Buzzer.On(), o.Pump.On()
}

// Beep sounds the buzzer n times, pulse on then pulse off. It blocks.
func (o *Outputs) Beep(n int, pulse time.Duration, clock timex.Clock) {
	clock = timex.Or(clock)
	for i := 0; i < n; i++ {
		o.Buzzer.Set(true)
		clock.Sleep(pulse)
		o.Buzzer.Set(false)
		clock.Sleep(pulse)
	}
}
