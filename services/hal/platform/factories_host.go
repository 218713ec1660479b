// services/hal/platform/factories_host.go
//go:build !rp2040

package platform

import (
	"sync"

	"farmnode-go/services/hal"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements hal.DigitalLine for host-side runs and tests. It keeps
// a count of level changes so tests can check pulse trains.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    hal.Pull
	rises   int
	falls   int
	onSet   func(level bool)
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureInput(pull hal.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	if pull == hal.PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.mu.Unlock()
	p.Set(initial)
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	switch {
	case !old && level:
		p.rises++
	case old && !level:
		p.falls++
	}
	hook := p.onSet
	p.mu.Unlock()
	if hook != nil {
		hook(level)
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports the configured direction.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Rises returns the number of low-to-high transitions driven so far.
func (p *FakePin) Rises() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rises
}

// Falls returns the number of high-to-low transitions driven so far.
func (p *FakePin) Falls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.falls
}

// OnSet installs a hook called after every Set with the new level.
func (p *FakePin) OnSet(fn func(level bool)) {
	p.mu.Lock()
	p.onSet = fn
	p.mu.Unlock()
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (hal.DigitalLine, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = NewFakePin(n)
		f.pins[n] = p
	}
	return p, true
}

// Get exposes the underlying *FakePin for tests.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

var _ hal.PinFactory = (*HostPinFactory)(nil)

// DefaultPinFactory provides a host GPIO factory.
func DefaultPinFactory() *HostPinFactory {
	return &HostPinFactory{pins: make(map[int]*FakePin)}
}
