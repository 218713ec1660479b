//go:build rp2040

package platform

import (
	"errors"
	"io"
	"machine"

	"farmnode-go/services/hal"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// ---- GPIO ----

// DefaultPinFactory maps logical numbers directly to machine.Pin(n), which
// matches Pico GP numbering.
func DefaultPinFactory() hal.PinFactory { return rp2PinFactory{} }

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (hal.DigitalLine, bool) {
	// User GPIOs only (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull hal.Pull) error {
	var mode machine.PinMode
	switch pull {
	case hal.PullUp:
		mode = machine.PinInputPullup
	case hal.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Set(initial)
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

// ---- ADC ----

var errNoSuchChannel = errors.New("rp2 adc: no such channel")

// rp2ADC exposes the three external ADC inputs (GP26..GP28). The machine
// package converts synchronously, so Start completes the conversion and Busy
// never reports true.
type rp2ADC struct {
	chans  [3]machine.ADC
	sel    int
	result uint16
}

// NewADC initialises the converter and its input pins.
func NewADC() hal.AnalogChannel {
	machine.InitADC()
	a := &rp2ADC{chans: [3]machine.ADC{
		{Pin: machine.ADC0},
		{Pin: machine.ADC1},
		{Pin: machine.ADC2},
	}}
	for i := range a.chans {
		a.chans[i].Configure(machine.ADCConfig{})
	}
	return a
}

func (a *rp2ADC) Select(channel uint8) error {
	if int(channel) >= len(a.chans) {
		return errNoSuchChannel
	}
	a.sel = int(channel)
	return nil
}

// Start converts; machine.ADC.Get scales to 16 bits, keep the top 10.
func (a *rp2ADC) Start()         { a.result = a.chans[a.sel].Get() >> 6 }
func (a *rp2ADC) Busy() bool     { return false }
func (a *rp2ADC) Result() uint16 { return a.result }

// ---- UART ----

// ConsoleUART configures UART0 on GP0/GP1 for logs and telemetry.
func ConsoleUART(baud uint32) io.Writer {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return hw
}
