//go:build !rp2040

package platform

import (
	"sync"
	"time"

	"farmnode-go/services/hal"
	"farmnode-go/x/timex"
)

// SensorTiming is the sensor side of the single-wire exchange, measured from
// the moment the host releases the line.
type SensorTiming struct {
	ResponseDelay time.Duration // release → acknowledgement low
	ResponseLow   time.Duration
	ResponseHigh  time.Duration
	BitLow        time.Duration // low period opening every bit
	ZeroHigh      time.Duration
	OneHigh       time.Duration
	// MinStartLow is the shortest host low pulse the sensor answers.
	MinStartLow time.Duration
}

// DefaultSensorTiming follows the DHT11 datasheet.
func DefaultSensorTiming() SensorTiming {
	return SensorTiming{
		ResponseDelay: 10 * time.Microsecond,
		ResponseLow:   80 * time.Microsecond,
		ResponseHigh:  80 * time.Microsecond,
		BitLow:        50 * time.Microsecond,
		ZeroHigh:      26 * time.Microsecond,
		OneHigh:       70 * time.Microsecond,
		MinStartLow:   18 * time.Millisecond,
	}
}

type segment struct {
	end   time.Duration // offset from release
	level bool
}

// SimSensor emulates a DHT11-class sensor wired to one line. It implements
// hal.DigitalLine and runs on a VirtualClock: every Get costs PollCost of
// virtual time, so host busy-wait loops make progress deterministically.
type SimSensor struct {
	mu    sync.Mutex
	clock *timex.VirtualClock
	n     int

	Timing   SensorTiming
	PollCost time.Duration

	frame   [5]byte
	silent  bool
	stallAt int // bit index after which the line freezes low; <0 disables

	output   bool
	driven   bool
	lowSince time.Time
	lowHeld  time.Duration

	active    bool
	release   time.Time
	waveform  []segment
	exchanges int
}

// NewSimSensor returns a responsive sensor on pin n reporting zeros.
func NewSimSensor(n int, clock *timex.VirtualClock) *SimSensor {
	return &SimSensor{
		clock:    clock,
		n:        n,
		Timing:   DefaultSensorTiming(),
		PollCost: time.Microsecond,
		stallAt:  -1,
		driven:   true,
	}
}

// SetFrame loads the raw five bytes sent on the next exchange.
func (s *SimSensor) SetFrame(f [5]byte) {
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
}

// SetReading loads integer humidity/temperature with zero fractions and a
// correct checksum.
func (s *SimSensor) SetReading(tempC, humidity uint8) {
	s.SetFrame([5]byte{humidity, 0, tempC, 0, humidity + tempC})
}

// SetSilent makes the sensor ignore start signals.
func (s *SimSensor) SetSilent(silent bool) {
	s.mu.Lock()
	s.silent = silent
	s.mu.Unlock()
}

// StallAfterBits freezes the line low once n data bits have been sent;
// n < 0 restores normal behaviour.
func (s *SimSensor) StallAfterBits(n int) {
	s.mu.Lock()
	s.stallAt = n
	s.mu.Unlock()
}

// Exchanges counts acknowledged start signals.
func (s *SimSensor) Exchanges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchanges
}

func (s *SimSensor) ConfigureOutput(initial bool) error {
	s.mu.Lock()
	s.output = true
	s.active = false
	s.mu.Unlock()
	s.Set(initial)
	return nil
}

func (s *SimSensor) ConfigureInput(_ hal.Pull) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if s.output && !s.driven {
		s.lowHeld = now.Sub(s.lowSince)
	}
	s.output = false
	s.active = !s.silent && s.lowHeld >= s.Timing.MinStartLow
	if s.active {
		s.release = now
		s.waveform = s.buildWaveform()
		s.exchanges++
	}
	s.lowHeld = 0
	return nil
}

func (s *SimSensor) Set(level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.output {
		return
	}
	now := s.clock.Now()
	switch {
	case s.driven && !level:
		s.lowSince = now
	case !s.driven && level:
		s.lowHeld = now.Sub(s.lowSince)
	}
	s.driven = level
}

func (s *SimSensor) Get() bool {
	s.mu.Lock()
	level := s.levelLocked()
	s.mu.Unlock()
	s.clock.Advance(s.PollCost)
	return level
}

func (s *SimSensor) Number() int { return s.n }

func (s *SimSensor) levelLocked() bool {
	if s.output {
		return s.driven
	}
	if !s.active {
		return true // pulled up
	}
	off := s.clock.Now().Sub(s.release)
	for _, seg := range s.waveform {
		if off < seg.end {
			return seg.level
		}
	}
	return true // released after the trailing low
}

// buildWaveform lays out acknowledgement, 40 bits and the trailing low.
func (s *SimSensor) buildWaveform() []segment {
	t := s.Timing
	var w []segment
	var at time.Duration
	add := func(d time.Duration, level bool) {
		at += d
		w = append(w, segment{end: at, level: level})
	}
	add(t.ResponseDelay, true)
	add(t.ResponseLow, false)
	add(t.ResponseHigh, true)
	bit := 0
	for _, b := range s.frame {
		for i := 7; i >= 0; i-- {
			if s.stallAt >= 0 && bit >= s.stallAt {
				add(time.Hour, false)
				return w
			}
			add(t.BitLow, false)
			if b&(1<<uint(i)) != 0 {
				add(t.OneHigh, true)
			} else {
				add(t.ZeroHigh, true)
			}
			bit++
		}
	}
	add(t.BitLow, false)
	return w
}
