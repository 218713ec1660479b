//go:build !rp2040

package platform

import (
	"strings"
	"sync"

	"farmnode-go/services/hal"
)

const (
	lcdRows    = 2
	lcdRowRAM  = 40 // DDRAM bytes per row
	lcdRow2Off = 0x40
)

// LCDModel implements hal.CharDisplay by emulating the display controller's
// data RAM, so tests and the simulator can read back what is on screen.
type LCDModel struct {
	mu       sync.Mutex
	ram      [lcdRows][lcdRowRAM]byte
	row, col int
	cols     int
	cmds     []byte
	on       bool
}

var _ hal.CharDisplay = (*LCDModel)(nil)

// NewLCDModel returns a cleared display showing cols characters per row.
func NewLCDModel(cols int) *LCDModel {
	if cols <= 0 || cols > lcdRowRAM {
		cols = 16
	}
	m := &LCDModel{cols: cols}
	m.clear()
	return m
}

func (m *LCDModel) Command(cmd byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmds = append(m.cmds, cmd)
	switch {
	case cmd&0x80 != 0: // set DDRAM address
		addr := int(cmd & 0x7F)
		if addr >= lcdRow2Off {
			m.row, m.col = 1, addr-lcdRow2Off
		} else {
			m.row, m.col = 0, addr
		}
		if m.col >= lcdRowRAM {
			m.col = lcdRowRAM - 1
		}
	case cmd&0xF8 == 0x08: // display control
		m.on = cmd&0x04 != 0
	case cmd == 0x01:
		m.clear()
	case cmd&0xFE == 0x02: // return home
		m.row, m.col = 0, 0
	}
	return nil
}

func (m *LCDModel) WriteChar(c byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ram[m.row][m.col] = c
	m.col++
	if m.col >= lcdRowRAM {
		m.col = 0
		m.row = (m.row + 1) % lcdRows
	}
	return nil
}

// Lines returns the visible text of both rows with trailing blanks removed.
func (m *LCDModel) Lines() [2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [2]string
	for r := 0; r < lcdRows; r++ {
		out[r] = strings.TrimRight(string(m.ram[r][:m.cols]), " ")
	}
	return out
}

// Raw returns the visible cells of row r, blanks included.
func (m *LCDModel) Raw(r int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.ram[r%lcdRows][:m.cols])
}

// Commands returns every command byte received so far.
func (m *LCDModel) Commands() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.cmds...)
}

// DisplayOn reports the last display-control state.
func (m *LCDModel) DisplayOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

func (m *LCDModel) clear() {
	for r := range m.ram {
		for c := range m.ram[r] {
			m.ram[r][c] = ' '
		}
	}
	m.row, m.col = 0, 0
}
