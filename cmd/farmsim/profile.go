//go:build !rp2040

package main

import (
	"farmnode-go/services/config"
	"farmnode-go/services/hal/platform"
	"farmnode-go/services/telemetry"
)

// profile feeds scripted readings to the simulated sensors. It sits on the
// telemetry path: each emitted record moves the script one step, so the next
// cycle sees the next step.
type profile struct {
	steps   []config.SimStep
	next    int
	channel uint8
	sensor  *platform.SimSensor
	adc     *platform.SimADC
}

func newProfile(steps []config.SimStep, channel uint8, s *platform.SimSensor, a *platform.SimADC) *profile {
	p := &profile{steps: steps, channel: channel, sensor: s, adc: a}
	p.advance()
	return p
}

// advance loads the next step, wrapping at the end.
func (p *profile) advance() {
	if len(p.steps) == 0 {
		return
	}
	st := p.steps[p.next%len(p.steps)]
	p.next++

	p.sensor.SetSilent(st.Fail)
	if st.Stall > 0 {
		p.sensor.StallAfterBits(st.Stall)
	} else {
		p.sensor.StallAfterBits(-1)
	}
	if !st.Fail {
		p.sensor.SetReading(st.TemperatureC, st.HumidityPct)
	}
	p.adc.SetCode(p.channel, st.Soil)
}

func (p *profile) Emit(telemetry.Record) error {
	p.advance()
	return nil
}

// fanout emits to every sink and returns the first error.
type fanout []interface {
	Emit(telemetry.Record) error
}

func (f fanout) Emit(r telemetry.Record) error {
	var first error
	for _, s := range f {
		if err := s.Emit(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
