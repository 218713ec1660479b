// Package status renders readings and actuator state on a two-line character
// display.
package status

import (
	"farmnode-go/services/hal"
	"farmnode-go/types"
	"farmnode-go/x/conv"
)

// Display commands.
const (
	CmdClear      byte = 0x01
	CmdHome       byte = 0x02 // also selects 4-bit mode during init
	CmdEntryInc   byte = 0x06
	CmdDisplayOn  byte = 0x0C // cursor and blink off
	CmdFunction   byte = 0x28 // 4-bit, two lines, 5x8 font
	CmdSecondLine byte = 0xC0
)

// Cols is the visible width of each row. Rows are written out to the full
// width so shorter text never leaves characters from the previous frame.
const Cols = 16

const blanks = "                " // Cols spaces

const (
	GreetLine1 = "Welcome to"
	GreetLine2 = "happy farm!"

	SoilDry = "Soil:Dry  "
	SoilWet = "Soil:Wet  "
)

// Lines is the text written to each row.
type Lines [2]string

// FormatLines builds the status text: "T:<int>C H:<int>%" and the soil label.
func FormatLines(r types.LastKnownReadings, s types.ActuatorState) Lines {
	var buf [20]byte
	b := append(buf[:0], "T:"...)
	b = conv.AppendUint(b, uint64(r.Climate.TemperatureC))
	b = append(b, "C H:"...)
	b = conv.AppendUint(b, uint64(r.Climate.HumidityPct))
	b = append(b, '%')

	soil := SoilWet
	if s.PumpOn {
		soil = SoilDry
	}
	return Lines{string(b), soil}
}

// Presenter owns the display.
type Presenter struct {
	lcd hal.CharDisplay
}

func New(lcd hal.CharDisplay) *Presenter {
	return &Presenter{lcd: lcd}
}

// Init puts the controller in 4-bit two-line mode, display on, cursor
// advancing, screen cleared.
func (p *Presenter) Init() error {
	return p.commands(CmdHome, CmdFunction, CmdDisplayOn, CmdEntryInc, CmdClear)
}

// Greet clears the screen and shows the startup banner.
func (p *Presenter) Greet() error {
	if err := p.lcd.Command(CmdClear); err != nil {
		return err
	}
	return p.write(Lines{GreetLine1, GreetLine2})
}

// Show writes the status text for r and s over the previous frame. Each row
// is padded to Cols, so nothing is cleared and the screen does not flicker.
func (p *Presenter) Show(r types.LastKnownReadings, s types.ActuatorState) (Lines, error) {
	l := FormatLines(r, s)
	if err := p.lcd.Command(CmdHome); err != nil {
		return l, err
	}
	return l, p.write(l)
}

func (p *Presenter) write(l Lines) error {
	if err := p.text(l[0]); err != nil {
		return err
	}
	if err := p.lcd.Command(CmdSecondLine); err != nil {
		return err
	}
	return p.text(l[1])
}

// stringWriter is implemented by displays that can take a run of text in
// one call.
type stringWriter interface {
	WriteString(s string) error
}

// text writes s and blanks the rest of the row.
func (p *Presenter) text(s string) error {
	if len(s) > Cols {
		s = s[:Cols]
	}
	if err := p.writeString(s); err != nil {
		return err
	}
	return p.writeString(blanks[:Cols-len(s)])
}

func (p *Presenter) writeString(s string) error {
	if w, ok := p.lcd.(stringWriter); ok {
		return w.WriteString(s)
	}
	for i := 0; i < len(s); i++ {
		if err := p.lcd.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presenter) commands(cmds ...byte) error {
	for _, c := range cmds {
		if err := p.lcd.Command(c); err != nil {
			return err
		}
	}
	return nil
}
