package node

import (
	"testing"
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/config"
	"farmnode-go/services/hal"
	"farmnode-go/services/hal/platform"
	"farmnode-go/types"
	"farmnode-go/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithSimulatedHardware(t *testing.T) {
	cfg := config.Default()
	cfg.Pins.PumpActiveLow = true
	clk := timex.NewVirtual(time.Time{})
	pins := platform.DefaultPinFactory()
	sensor := platform.NewSimSensor(cfg.Pins.Sensor, clk)
	sadc := platform.NewSimADC(clk)
	lcd := platform.NewLCDModel(16)

	loop, err := Build(cfg, Hardware{Pins: pins, ADC: sadc, SensorLine: sensor, Display: lcd}, Options{Clock: clk})
	require.NoError(t, err)
	require.NoError(t, loop.Init())

	sensor.SetReading(25, 70)
	sadc.SetCode(cfg.Soil.Channel, 701)
	rep := loop.Cycle()
	require.NoError(t, rep.ClimateErr)
	assert.Equal(t, types.TierWarning, rep.State.Tier)
	assert.True(t, rep.State.PumpOn)
	assert.Equal(t, "T:25C H:70%", lcd.Lines()[0])

	warn, ok := pins.Get(cfg.Pins.Warning)
	require.True(t, ok)
	assert.True(t, warn.Get())
	pump, _ := pins.Get(cfg.Pins.Pump)
	assert.False(t, pump.Get(), "active-low relay pulled low when on")
}

func TestBuildDrivesLCDBus(t *testing.T) {
	cfg := config.Default()
	clk := timex.NewVirtual(time.Time{})
	pins := platform.DefaultPinFactory()
	sensor := platform.NewSimSensor(cfg.Pins.Sensor, clk)

	_, err := Build(cfg, Hardware{Pins: pins, ADC: platform.NewSimADC(clk), SensorLine: sensor}, Options{Clock: clk})
	require.NoError(t, err)

	en, ok := pins.Get(cfg.Pins.LCD.EN)
	require.True(t, ok)
	assert.Equal(t, 4, en.Rises(), "wake sequence strobes four nibbles")
	rw, _ := pins.Get(cfg.Pins.LCD.RW)
	assert.True(t, rw.IsOutput())
	assert.False(t, rw.Get())
}

// gpioLimit only knows pins below max.
type gpioLimit struct {
	max int
	f   *platform.HostPinFactory
}

func (g gpioLimit) ByNumber(n int) (hal.DigitalLine, bool) {
	if n >= g.max {
		return nil, false
	}
	return g.f.ByNumber(n)
}

func TestBuildUnknownPin(t *testing.T) {
	cfg := config.Default()
	clk := timex.NewVirtual(time.Time{})
	_, err := Build(cfg, Hardware{
		Pins: gpioLimit{max: 16, f: platform.DefaultPinFactory()},
		ADC:  platform.NewSimADC(clk),
	}, Options{Clock: clk})
	assert.Equal(t, errcode.UnknownPin, errcode.Of(err))
	assert.ErrorIs(t, err, errcode.UnknownPin)
	assert.Contains(t, err.Error(), "no gpio 16")
}
