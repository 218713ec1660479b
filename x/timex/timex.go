package timex

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used by the timing-critical drivers. Sleep blocks
// the caller; there is no scheduling underneath.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time        { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Or returns c, or the wall clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}

// Expired reports whether more than limit has passed since start.
func Expired(c Clock, start time.Time, limit time.Duration) bool {
	return c.Now().Sub(start) > limit
}

// SleepCtx sleeps for d on c, returning early with ctx.Err() when ctx is
// done. Virtual clocks advance at once and only check ctx afterwards.
func SleepCtx(ctx context.Context, c Clock, d time.Duration) error {
	if _, wall := c.(System); wall {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
	c.Sleep(d)
	return ctx.Err()
}

// VirtualClock only moves when Sleep or Advance is called. Host simulations
// and tests use it to make microsecond protocols deterministic.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtual returns a clock starting at t0 (Unix epoch when zero).
func NewVirtual(t0 time.Time) *VirtualClock {
	if t0.IsZero() {
		t0 = time.Unix(0, 0)
	}
	return &VirtualClock{now: t0}
}

func (v *VirtualClock) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *VirtualClock) Sleep(d time.Duration) { v.Advance(d) }

// Advance moves the clock forward by d; negative values are ignored.
func (v *VirtualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	v.now = v.now.Add(d)
	v.mu.Unlock()
}
