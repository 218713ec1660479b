// Package charlcd drives an HD44780-compatible character display over a
// 4-bit parallel bus. Every byte goes out as two nibbles, high nibble first,
// each latched by a pulse on the enable line.
//
//	d := charlcd.New(charlcd.Pins{RS: rs, EN: en, RW: rw, D: [4]hal.DigitalLine{d4, d5, d6, d7}})
//	d.Configure(charlcd.Config{})
//	d.Command(0x01)
//	d.WriteChar('A')
//
// The bus is write-only: RW is held low and the busy flag is never read, so
// every nibble waits the full strobe time.
package charlcd

import (
	"time"

	"farmnode-go/errcode"
	"farmnode-go/services/hal"
	"farmnode-go/x/timex"
)

// DefaultStrobe is the enable pulse width. Slow controllers need the full
// 2 ms for clear and home to finish.
const DefaultStrobe = 2 * time.Millisecond

// Power-on wake timing. The controller latches on the falling edge of EN and
// needs more than 4.1 ms after the first 0x3 and more than 100 µs after the
// second before it accepts the next nibble.
const (
	powerOnSettle = 20 * time.Millisecond
	wakeGap1      = 5 * time.Millisecond
	wakeGap2      = 150 * time.Microsecond
)

// Pins is the bus wiring. RW may be nil when tied to ground.
type Pins struct {
	RS hal.DigitalLine
	EN hal.DigitalLine
	RW hal.DigitalLine
	D  [4]hal.DigitalLine // D4..D7
}

type Config struct {
	Strobe time.Duration
	Clock  timex.Clock
}

// Device implements hal.CharDisplay.
type Device struct {
	pins  Pins
	cfg   Config
	clock timex.Clock
}

var _ hal.CharDisplay = (*Device)(nil)

// New creates a Device. It does not touch the bus.
func New(pins Pins) *Device {
	return &Device{pins: pins}
}

// Configure sets every line as an output, low, and runs the power-on wake
// sequence that leaves the controller in 4-bit mode.
func (d *Device) Configure(cfg Config) error {
	if cfg.Strobe <= 0 {
		cfg.Strobe = DefaultStrobe
	}
	d.cfg = cfg
	d.clock = timex.Or(cfg.Clock)

	if d.pins.RS == nil || d.pins.EN == nil {
		return errcode.InvalidLine
	}
	lines := []hal.DigitalLine{d.pins.RS, d.pins.EN}
	if d.pins.RW != nil {
		lines = append(lines, d.pins.RW)
	}
	for _, l := range d.pins.D {
		if l == nil {
			return errcode.InvalidLine
		}
		lines = append(lines, l)
	}
	for _, l := range lines {
		if err := l.ConfigureOutput(false); err != nil {
			return err
		}
	}

	d.clock.Sleep(powerOnSettle)
	d.nibble(0x3)
	d.clock.Sleep(wakeGap1)
	d.nibble(0x3)
	d.clock.Sleep(wakeGap2)
	d.nibble(0x3)
	d.nibble(0x2)
	return nil
}

// Command sends an instruction byte (RS low).
func (d *Device) Command(cmd byte) error {
	return d.send(cmd, false)
}

// WriteChar sends a data byte (RS high) at the cursor.
func (d *Device) WriteChar(c byte) error {
	return d.send(c, true)
}

// WriteString writes s byte by byte from the cursor.
func (d *Device) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) send(b byte, data bool) error {
	if d.clock == nil {
		if err := d.Configure(Config{}); err != nil {
			return err
		}
	}
	d.pins.RS.Set(data)
	d.nibble(b >> 4)
	d.nibble(b & 0x0F)
	return nil
}

// nibble puts n on D4..D7 and latches it with one enable pulse.
func (d *Device) nibble(n byte) {
	for i, l := range d.pins.D {
		l.Set(n&(1<<uint(i)) != 0)
	}
	d.pins.EN.Set(true)
	d.clock.Sleep(d.cfg.Strobe)
	d.pins.EN.Set(false)
}
