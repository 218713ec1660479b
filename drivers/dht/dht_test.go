package dht

import (
	"errors"
	"testing"
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal/platform"
	"farmnode-go/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"
)

func newDevice(t *testing.T, cfg Config) (*Device, *platform.SimSensor, *timex.VirtualClock) {
	t.Helper()
	clk := timex.NewVirtual(time.Time{})
	sim := platform.NewSimSensor(2, clk)
	d := New(sim)
	cfg.Clock = clk
	require.NoError(t, d.Configure(cfg))
	return &d, sim, clk
}

func TestReadDecodesFrameMSBFirst(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.SetFrame([5]byte{0x37, 0x00, 0x1E, 0x00, 0x55})

	r, err := d.Read()
	require.NoError(t, err)
	assert.True(t, r.Valid)
	assert.Equal(t, uint8(30), r.TemperatureC)
	assert.Equal(t, uint8(55), r.HumidityPct)
	assert.Equal(t, Frame{0x37, 0x00, 0x1E, 0x00, 0x55}, d.LastFrame())
	assert.Equal(t, 1, sim.Exchanges())
}

func TestReadByteBitPatterns(t *testing.T) {
	cases := []byte{0x00, 0xFF, 0x80, 0x01, 0xA5, 0x5A}
	for _, want := range cases {
		d, sim, _ := newDevice(t, Config{})
		sim.SetFrame([5]byte{want, 0, 0, 0, want})

		d.Start()
		require.True(t, d.CheckResponse(), "byte %#02x", want)
		got, err := d.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, want, got, "byte %#02x", want)
	}
}

func TestStartLeavesLineInputAndHonoursStartLow(t *testing.T) {
	clk := timex.NewVirtual(time.Time{})
	pin := platform.NewFakePin(4)
	d := New(pin)
	require.NoError(t, d.Configure(Config{Clock: clk}))

	t0 := clk.Now()
	d.Start()
	assert.False(t, pin.IsOutput())
	assert.Equal(t, 1, pin.Falls())
	assert.GreaterOrEqual(t, clk.Now().Sub(t0), DefaultStartLow)
}

func TestCheckResponseMissingFirstEdge(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.Timing.ResponseDelay = 60 * time.Microsecond

	d.Start()
	assert.False(t, d.CheckResponse())
}

func TestCheckResponseMistimedSecondEdge(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.Timing.ResponseLow = 200 * time.Microsecond

	d.Start()
	assert.False(t, d.CheckResponse())
}

func TestReadSilentSensor(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.SetSilent(true)

	r, err := d.Read()
	assert.True(t, errors.Is(err, ErrNoResponse))
	assert.False(t, r.Valid)
	assert.Equal(t, errcode.NoResponse, errcode.MapDriverErr(err))
}

func TestShortStartPulseIgnored(t *testing.T) {
	d, sim, _ := newDevice(t, Config{StartLow: 5 * time.Millisecond})
	sim.SetReading(20, 40)

	_, err := d.Read()
	assert.True(t, errors.Is(err, ErrNoResponse))
	assert.Zero(t, sim.Exchanges())
}

func TestStalledLineTimesOut(t *testing.T) {
	d, sim, clk := newDevice(t, Config{})
	sim.SetReading(25, 60)
	sim.StallAfterBits(12)

	t0 := clk.Now()
	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	// Bounded: start pulse plus a handful of bits plus one edge timeout.
	assert.Less(t, clk.Now().Sub(t0), DefaultStartLow+2*time.Millisecond)
}

func TestChecksumIgnoredByDefault(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.SetFrame([5]byte{40, 0, 22, 0, 0xEE})

	r, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(22), r.TemperatureC)
	assert.False(t, d.LastFrame().ChecksumOK())
}

func TestChecksumVerifiedWhenEnabled(t *testing.T) {
	d, sim, _ := newDevice(t, Config{VerifyChecksum: true})
	sim.SetFrame([5]byte{40, 0, 22, 0, 0xEE})

	_, err := d.Read()
	assert.True(t, errors.Is(err, ErrChecksum))

	sim.SetReading(22, 40)
	r, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(22), r.TemperatureC)
}

func TestFrameChecksumWraps(t *testing.T) {
	f := Frame{0xFF, 0x01, 0x10, 0x00, 0x10}
	assert.True(t, f.ChecksumOK())
}

func TestUpdateSensorContract(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	sim.SetReading(21, 48)

	require.NoError(t, d.Update(drivers.Voltage))
	assert.Zero(t, sim.Exchanges())

	require.NoError(t, d.Update(drivers.Temperature|drivers.Humidity))
	assert.Equal(t, uint8(21), d.Temperature())
	assert.Equal(t, uint8(48), d.Humidity())

	sim.SetSilent(true)
	assert.Error(t, d.Update(drivers.Humidity))
	assert.Equal(t, uint8(21), d.Temperature(), "failed exchange keeps the last reading")
}

func TestRepeatedReads(t *testing.T) {
	d, sim, _ := newDevice(t, Config{})
	for i := uint8(0); i < 5; i++ {
		sim.SetReading(18+i, 50+i)
		r, err := d.Read()
		require.NoError(t, err)
		assert.Equal(t, 18+i, r.TemperatureC)
		assert.Equal(t, 50+i, r.HumidityPct)
	}
}
