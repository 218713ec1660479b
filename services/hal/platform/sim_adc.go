//go:build !rp2040

package platform

import (
	"sync"
	"time"

	"farmnode-go/services/hal"
	"farmnode-go/x/timex"
)

// SimADC implements hal.AnalogChannel with per-channel codes. Each conversion
// stays busy for ConversionPolls calls to Busy; Stuck keeps it busy forever.
type SimADC struct {
	mu    sync.Mutex
	clock *timex.VirtualClock

	ConversionPolls int
	PollCost        time.Duration

	codes    map[uint8]uint16
	selected uint8
	left     int
	running  bool
	stuck    bool
	result   uint16
	starts   int
}

var _ hal.AnalogChannel = (*SimADC)(nil)

// NewSimADC returns a converter on clock; clock may be nil when the caller
// uses the wall clock.
func NewSimADC(clock *timex.VirtualClock) *SimADC {
	return &SimADC{
		clock:           clock,
		ConversionPolls: 3,
		PollCost:        10 * time.Microsecond,
		codes:           map[uint8]uint16{},
	}
}

// SetCode sets the raw code the given channel converts to. Values wider than
// 10 bits are passed through so callers can check clamping.
func (a *SimADC) SetCode(channel uint8, code uint16) {
	a.mu.Lock()
	a.codes[channel] = code
	a.mu.Unlock()
}

// SetStuck makes conversions never complete.
func (a *SimADC) SetStuck(stuck bool) {
	a.mu.Lock()
	a.stuck = stuck
	a.mu.Unlock()
}

// Starts counts conversions started.
func (a *SimADC) Starts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.starts
}

func (a *SimADC) Select(channel uint8) error {
	a.mu.Lock()
	a.selected = channel
	a.mu.Unlock()
	return nil
}

func (a *SimADC) Start() {
	a.mu.Lock()
	a.running = true
	a.left = a.ConversionPolls
	a.starts++
	a.mu.Unlock()
}

func (a *SimADC) Busy() bool {
	a.mu.Lock()
	busy := a.running
	if a.running && !a.stuck {
		if a.left > 0 {
			a.left--
		} else {
			a.running = false
			a.result = a.codes[a.selected]
			busy = false
		}
	}
	a.mu.Unlock()
	if a.clock != nil {
		a.clock.Advance(a.PollCost)
	}
	return busy
}

func (a *SimADC) Result() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}
