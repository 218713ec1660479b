// Package adc reads 10-bit codes from a multiplexed analog converter.
//
//	r := adc.New(ch)
//	r.Configure(adc.Config{})
//	code, err := r.Read(0) // select, settle, convert, poll
//
// Polling for conversion complete is bounded by Config.ConversionTimeout.
package adc

import (
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal"
	"farmnode-go/types"
	"farmnode-go/x/mathx"
	"farmnode-go/x/timex"
)

const (
	// DefaultAcquisition is the settle time after switching channels; the
	// sample-and-hold needs at least 2 ms on this front end.
	DefaultAcquisition       = 2 * time.Millisecond
	DefaultConversionTimeout = 10 * time.Millisecond
)

var ErrTimeout = errcode.Sentinel("adc", errcode.Timeout)

// Config controls timing. All fields are optional.
type Config struct {
	Acquisition       time.Duration
	ConversionTimeout time.Duration
	Clock             timex.Clock
}

// Reader serialises conversions on one converter.
type Reader struct {
	ch    hal.AnalogChannel
	cfg   Config
	clock timex.Clock
}

func New(ch hal.AnalogChannel) *Reader {
	r := &Reader{ch: ch}
	r.Configure(Config{})
	return r
}

// Configure applies cfg, filling defaults for zero fields.
func (r *Reader) Configure(cfg Config) {
	if cfg.Acquisition < DefaultAcquisition {
		cfg.Acquisition = DefaultAcquisition
	}
	if cfg.ConversionTimeout <= 0 {
		cfg.ConversionTimeout = DefaultConversionTimeout
	}
	r.cfg = cfg
	r.clock = timex.Or(cfg.Clock)
}

// Read converts channel and returns a code in [0, types.SoilMax]. A
// conversion that never completes yields ErrTimeout and a zero code.
func (r *Reader) Read(channel uint8) (uint16, error) {
	if err := r.ch.Select(channel); err != nil {
		return 0, err
	}
	r.clock.Sleep(r.cfg.Acquisition)
	r.ch.Start()
	start := r.clock.Now()
	for r.ch.Busy() {
		if timex.Expired(r.clock, start, r.cfg.ConversionTimeout) {
			return 0, ErrTimeout
		}
	}
	return mathx.Clamp(r.ch.Result(), 0, types.SoilMax), nil
}

// Sample wraps Read for the soil probe.
func (r *Reader) Sample(channel uint8) (types.SoilSample, error) {
	raw, err := r.Read(channel)
	return types.SoilSample{Raw: raw}, err
}
