// Package dht decodes the single-wire temperature/humidity protocol spoken by
// DHT11-class sensors. One line is shared: the host drives the start signal,
// then hands the line to the sensor, which answers with a two-edge
// acknowledgement followed by 40 pulse-width encoded bits.
//
//	d.Start()                // host wake signal; line ends as input
//	ok := d.CheckResponse()  // both acknowledgement edges seen in time
//	b, err := d.ReadByte()   // 8 bit slots, MSB first
//
// For convenience, d.Read() runs the whole exchange and returns a
// types.SensorReading built from the integer humidity and temperature bytes.
//
// Every wait for an edge is bounded by Config.EdgeTimeout and fails with
// ErrTimeout instead of spinning forever on a stuck line.
//
// The checksum byte is read to keep the bit timing aligned but, unless
// Config.VerifyChecksum is set, it is not compared against the payload.
package dht

import (
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal"
	"farmnode-go/types"
	"farmnode-go/x/timex"

	"tinygo.org/x/drivers"
)

// Protocol timings. These match the sensor datasheet handshake and must not
// drift: the sensor only answers a start pulse of at least 18 ms.
const (
	DefaultStartLow      = 18 * time.Millisecond
	DefaultStartHigh     = 30 * time.Microsecond // 20..40 µs
	DefaultResponseGuard = 40 * time.Microsecond
	DefaultResponseWait  = 80 * time.Microsecond
	DefaultBitSample     = 30 * time.Microsecond
	DefaultEdgeTimeout   = 200 * time.Microsecond
)

// FrameLen is the number of bytes in one transmission.
const FrameLen = 5

// Errors returned by the driver.
var (
	ErrNoResponse = errcode.Sentinel("dht", errcode.NoResponse)
	ErrTimeout    = errcode.Sentinel("dht", errcode.Timeout)
	ErrChecksum   = errcode.Sentinel("dht", errcode.Checksum)
)

// Config controls timing and validation. Zero fields take the defaults above.
type Config struct {
	StartLow      time.Duration
	StartHigh     time.Duration
	ResponseGuard time.Duration
	ResponseWait  time.Duration
	BitSample     time.Duration
	// EdgeTimeout bounds every busy-wait for a line transition.
	EdgeTimeout time.Duration
	// VerifyChecksum makes Read reject frames whose checksum byte does not
	// match the low byte of the sum of the first four bytes.
	VerifyChecksum bool
	// Clock defaults to the wall clock.
	Clock timex.Clock
}

// Frame is one raw transmission in wire order: humidity integer, humidity
// fraction, temperature integer, temperature fraction, checksum.
type Frame [FrameLen]byte

func (f Frame) HumidityInt() uint8     { return f[0] }
func (f Frame) HumidityFrac() uint8    { return f[1] }
func (f Frame) TemperatureInt() uint8  { return f[2] }
func (f Frame) TemperatureFrac() uint8 { return f[3] }
func (f Frame) Checksum() uint8        { return f[4] }

// ChecksumOK reports whether byte 5 equals the 8-bit sum of bytes 1..4.
func (f Frame) ChecksumOK() bool {
	return f[0]+f[1]+f[2]+f[3] == f[4]
}

// Reading keeps the integer bytes only.
func (f Frame) Reading() types.SensorReading {
	return types.SensorReading{
		TemperatureC: f.TemperatureInt(),
		HumidityPct:  f.HumidityInt(),
		Valid:        true,
	}
}

// Device drives one sensor on one line.
type Device struct {
	line  hal.DigitalLine
	cfg   Config
	clock timex.Clock

	frame Frame               // last frame decoded, checksum unchecked
	last  types.SensorReading // last successful reading
}

// Ensure Device satisfies the tinygo sensor contract.
var _ drivers.Sensor = (*Device)(nil)

// New creates a Device on line. It does not touch the line; call Configure.
func New(line hal.DigitalLine) Device {
	return Device{line: line}
}

// Configure applies optional config and parks the line high, which is the
// idle state the sensor expects between exchanges.
func (d *Device) Configure(cfgs ...Config) error {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.StartLow <= 0 {
		c.StartLow = DefaultStartLow
	}
	if c.StartHigh <= 0 {
		c.StartHigh = DefaultStartHigh
	}
	if c.ResponseGuard <= 0 {
		c.ResponseGuard = DefaultResponseGuard
	}
	if c.ResponseWait <= 0 {
		c.ResponseWait = DefaultResponseWait
	}
	if c.BitSample <= 0 {
		c.BitSample = DefaultBitSample
	}
	if c.EdgeTimeout <= 0 {
		c.EdgeTimeout = DefaultEdgeTimeout
	}
	d.cfg = c
	d.clock = timex.Or(c.Clock)
	return d.line.ConfigureOutput(true)
}

// Start sends the host wake signal: low for StartLow, high for StartHigh,
// then releases the line to the sensor. The line is always left as an input,
// whatever happened before.
func (d *Device) Start() {
	if d.clock == nil {
		_ = d.Configure()
	}
	_ = d.line.ConfigureOutput(false)
	d.clock.Sleep(d.cfg.StartLow)
	d.line.Set(true)
	d.clock.Sleep(d.cfg.StartHigh)
	_ = d.line.ConfigureInput(hal.PullUp)
}

// CheckResponse looks for the acknowledgement: the sensor must hold the line
// low at the guard point and high again ResponseWait later. It then waits for
// the falling edge that opens the first data bit.
func (d *Device) CheckResponse() bool {
	d.clock.Sleep(d.cfg.ResponseGuard)
	if d.line.Get() {
		return false
	}
	d.clock.Sleep(d.cfg.ResponseWait)
	if !d.line.Get() {
		return false
	}
	return d.waitLevel(false) == nil
}

// ReadByte consumes exactly eight bit slots. Each bit starts with a low
// period; the level BitSample after the rising edge is the bit value.
func (d *Device) ReadByte() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		if err := d.waitLevel(true); err != nil {
			return b, err
		}
		d.clock.Sleep(d.cfg.BitSample)
		b <<= 1
		if d.line.Get() {
			b |= 1
		}
		if err := d.waitLevel(false); err != nil {
			return b, err
		}
	}
	return b, nil
}

// ReadFrame reads the five frame bytes in order. It assumes a successful
// CheckResponse immediately before.
func (d *Device) ReadFrame() (Frame, error) {
	var f Frame
	for i := range f {
		b, err := d.ReadByte()
		f[i] = b
		if err != nil {
			return f, err
		}
	}
	d.frame = f
	return f, nil
}

// Read performs a full exchange. On failure the returned reading has
// Valid=false; what to do with the previous value is the caller's decision.
func (d *Device) Read() (types.SensorReading, error) {
	d.Start()
	if !d.CheckResponse() {
		return types.SensorReading{}, ErrNoResponse
	}
	f, err := d.ReadFrame()
	if err != nil {
		return types.SensorReading{}, err
	}
	if d.cfg.VerifyChecksum && !f.ChecksumOK() {
		return types.SensorReading{}, ErrChecksum
	}
	d.last = f.Reading()
	return d.last, nil
}

// Update implements drivers.Sensor. Any request for temperature or humidity
// triggers one exchange; other measurements are ignored.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := d.Read()
	return err
}

// Temperature returns the last successful temperature in whole °C.
func (d *Device) Temperature() uint8 { return d.last.TemperatureC }

// Humidity returns the last successful relative humidity in whole %.
func (d *Device) Humidity() uint8 { return d.last.HumidityPct }

// LastFrame returns the most recent frame decoded, valid checksum or not.
func (d *Device) LastFrame() Frame { return d.frame }

// waitLevel polls until the line reads level or EdgeTimeout elapses.
func (d *Device) waitLevel(level bool) error {
	start := d.clock.Now()
	for d.line.Get() != level {
		if timex.Expired(d.clock, start, d.cfg.EdgeTimeout) {
			return ErrTimeout
		}
	}
	return nil
}
