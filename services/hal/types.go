// services/hal/types.go
package hal

// ---- Digital lines ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// DigitalLine is one GPIO. The single-wire sensor line switches direction
// mid-exchange, so both configure calls may be made repeatedly.
type DigitalLine interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies lines by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (DigitalLine, bool)
}

// ---- Analog input ----

// AnalogChannel is a multiplexed converter: select a channel, start a
// conversion, poll Busy, then read the raw code.
type AnalogChannel interface {
	Select(channel uint8) error
	Start()
	Busy() bool
	Result() uint16
}

// ---- Character display ----

// CharDisplay accepts controller commands and character data, one byte at a
// time.
type CharDisplay interface {
	Command(cmd byte) error
	WriteChar(c byte) error
}

// ---- Helpers ----

// Output drives a line with an optional inversion so callers work in logical
// on/off terms.
type Output struct {
	Line      DigitalLine
	ActiveLow bool
}

// Configure sets the line as an output in the logical off state.
func (o Output) Configure() error {
	if o.Line == nil {
		return nil
	}
	return o.Line.ConfigureOutput(o.ActiveLow)
}

// Set drives the logical level. A nil line is a no-op so optional outputs can
// be left unwired.
func (o Output) Set(on bool) {
	if o.Line == nil {
		return
	}
	level := on
	if o.ActiveLow {
		level = !level
	}
	o.Line.Set(level)
}

// On reports the logical level last driven.
func (o Output) On() bool {
	if o.Line == nil {
		return false
	}
	level := o.Line.Get()
	if o.ActiveLow {
		level = !level
	}
	return level
}
