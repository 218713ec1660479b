package charlcd

import (
	"testing"
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal"
	"farmnode-go/services/hal/platform"
	"farmnode-go/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type latched struct {
	rs bool
	n  byte
}

// bus wires a Device to fake pins and records every nibble latched by EN.
type bus struct {
	rs, en, rw *platform.FakePin
	d          [4]*platform.FakePin
	got        []latched
}

func newBus() *bus {
	b := &bus{
		rs: platform.NewFakePin(0),
		en: platform.NewFakePin(1),
		rw: platform.NewFakePin(2),
	}
	for i := range b.d {
		b.d[i] = platform.NewFakePin(3 + i)
	}
	b.en.OnSet(func(level bool) {
		if !level {
			return
		}
		var n byte
		for i, p := range b.d {
			if p.Get() {
				n |= 1 << uint(i)
			}
		}
		b.got = append(b.got, latched{rs: b.rs.Get(), n: n})
	})
	return b
}

func (b *bus) pins() Pins {
	return Pins{RS: b.rs, EN: b.en, RW: b.rw, D: [4]hal.DigitalLine{b.d[0], b.d[1], b.d[2], b.d[3]}}
}

// bytes pairs latched nibbles into bytes, high nibble first.
func (b *bus) bytes(t *testing.T) []latched {
	t.Helper()
	require.Equal(t, 0, len(b.got)%2, "odd nibble count")
	var out []latched
	for i := 0; i < len(b.got); i += 2 {
		hi, lo := b.got[i], b.got[i+1]
		require.Equal(t, hi.rs, lo.rs, "RS changed mid-byte")
		out = append(out, latched{rs: hi.rs, n: hi.n<<4 | lo.n})
	}
	return out
}

func TestConfigureWakeSequence(t *testing.T) {
	b := newBus()
	d := New(b.pins())
	require.NoError(t, d.Configure(Config{Clock: timex.NewVirtual(time.Time{})}))

	require.Len(t, b.got, 4)
	for i, want := range []byte{0x3, 0x3, 0x3, 0x2} {
		assert.Equal(t, want, b.got[i].n, "nibble %d", i)
		assert.False(t, b.got[i].rs)
	}
	assert.True(t, b.rw.IsOutput())
	assert.False(t, b.rw.Get())
}

func TestWakeSequenceGaps(t *testing.T) {
	b := newBus()
	clk := timex.NewVirtual(time.Time{})
	var rises, falls []time.Time
	b.en.OnSet(func(level bool) {
		if level {
			rises = append(rises, clk.Now())
		} else {
			falls = append(falls, clk.Now())
		}
	})
	require.NoError(t, New(b.pins()).Configure(Config{Clock: clk}))

	// Configure drives EN low once before the first pulse.
	require.Len(t, rises, 4)
	falls = falls[len(falls)-4:]
	assert.Greater(t, rises[1].Sub(falls[0]), 4100*time.Microsecond)
	assert.Greater(t, rises[2].Sub(falls[1]), 100*time.Microsecond)
	for i := range rises {
		assert.Equal(t, DefaultStrobe, falls[i].Sub(rises[i]), "pulse %d", i)
	}
}

func TestCommandAndDataNibbles(t *testing.T) {
	b := newBus()
	d := New(b.pins())
	require.NoError(t, d.Configure(Config{Clock: timex.NewVirtual(time.Time{})}))
	b.got = nil

	require.NoError(t, d.Command(0x28))
	require.NoError(t, d.WriteString("Hi"))

	got := b.bytes(t)
	require.Len(t, got, 3)
	assert.Equal(t, latched{rs: false, n: 0x28}, got[0])
	assert.Equal(t, latched{rs: true, n: 'H'}, got[1])
	assert.Equal(t, latched{rs: true, n: 'i'}, got[2])
}

func TestStrobeWidth(t *testing.T) {
	b := newBus()
	clk := timex.NewVirtual(time.Time{})
	d := New(b.pins())
	require.NoError(t, d.Configure(Config{Clock: clk}))

	t0 := clk.Now()
	require.NoError(t, d.Command(0x01))
	assert.Equal(t, 2*DefaultStrobe, clk.Now().Sub(t0))
	assert.False(t, b.en.Get())
}

func TestConfigureRejectsMissingLines(t *testing.T) {
	b := newBus()
	p := b.pins()
	p.D[2] = nil
	err := New(p).Configure(Config{Clock: timex.NewVirtual(time.Time{})})
	assert.Equal(t, errcode.InvalidLine, errcode.Of(err))
}
