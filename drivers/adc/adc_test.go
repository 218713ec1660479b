package adc

import (
	"errors"
	"testing"
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal/platform"
	"farmnode-go/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(t *testing.T) (*Reader, *platform.SimADC, *timex.VirtualClock) {
	t.Helper()
	clk := timex.NewVirtual(time.Time{})
	sim := platform.NewSimADC(clk)
	r := New(sim)
	r.Configure(Config{Clock: clk})
	return r, sim, clk
}

func TestReadReturnsSelectedChannel(t *testing.T) {
	r, sim, _ := newReader(t)
	sim.SetCode(0, 700)
	sim.SetCode(1, 12)

	got, err := r.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(700), got)

	got, err = r.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(12), got)
	assert.Equal(t, 2, sim.Starts())
}

func TestReadAppliesAcquisitionDelay(t *testing.T) {
	r, sim, clk := newReader(t)
	sim.SetCode(0, 1)
	t0 := clk.Now()

	_, err := r.Read(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, clk.Now().Sub(t0), 2*time.Millisecond)
}

func TestReadAlwaysWithinTenBits(t *testing.T) {
	r, sim, _ := newReader(t)
	for ch := 0; ch < 8; ch++ {
		for _, code := range []uint16{0, 1, 512, 1023, 1024, 4095, 0xFFFF} {
			sim.SetCode(uint8(ch), code)
			got, err := r.Read(uint8(ch))
			require.NoError(t, err)
			assert.LessOrEqual(t, got, uint16(1023), "channel %d code %d", ch, code)
		}
	}
}

func TestReadTimesOutOnStuckConversion(t *testing.T) {
	r, sim, _ := newReader(t)
	sim.SetStuck(true)

	got, err := r.Read(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, errcode.Timeout, errcode.MapDriverErr(err))
	assert.Zero(t, got)
}

func TestConfigureEnforcesMinimumAcquisition(t *testing.T) {
	r, _, _ := newReader(t)
	r.Configure(Config{Acquisition: time.Microsecond})
	assert.Equal(t, DefaultAcquisition, r.cfg.Acquisition)
	assert.Equal(t, DefaultConversionTimeout, r.cfg.ConversionTimeout)
}

func TestSample(t *testing.T) {
	r, sim, _ := newReader(t)
	sim.SetCode(2, 801)
	s, err := r.Sample(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(801), s.Raw)
}
