// Package telemetry encodes one status line per control cycle:
//
//	status,<seq>,<tempC>,<hum>,<valid 0|1>,<soil>,<tier>,<pump 0|1>
//
// Temperature and humidity are the held values; valid is 1 only when this
// cycle's sensor exchange succeeded.
package telemetry

import (
	"errors"
	"io"

	"farmnode-go/types"
	"farmnode-go/x/conv"
	"farmnode-go/x/strx"
)

// Prefix opens every status line.
const Prefix = "status"

const fieldCount = 8

var ErrMalformed = errors.New("telemetry: malformed line")

// Record is one cycle's outcome.
type Record struct {
	Seq      uint32
	Readings types.LastKnownReadings
	State    types.ActuatorState
}

// AppendLine appends the encoded record, without a line terminator.
func (r Record) AppendLine(dst []byte) []byte {
	c := r.Readings.Climate
	dst = append(dst, Prefix...)
	dst = append(dst, ',')
	dst = conv.AppendUint(dst, uint64(r.Seq))
	dst = append(dst, ',')
	dst = conv.AppendUint(dst, uint64(c.TemperatureC))
	dst = append(dst, ',')
	dst = conv.AppendUint(dst, uint64(c.HumidityPct))
	dst = append(dst, ',')
	dst = appendBool(dst, c.Valid)
	dst = append(dst, ',')
	dst = conv.AppendUint(dst, uint64(r.Readings.Soil.Raw))
	dst = append(dst, ',')
	dst = append(dst, r.State.Tier.String()...)
	dst = append(dst, ',')
	dst = appendBool(dst, r.State.PumpOn)
	return dst
}

func (r Record) String() string { return string(r.AppendLine(nil)) }

func appendBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, '1')
	}
	return append(dst, '0')
}

// ParseLine decodes one line. A trailing CR/LF is ignored.
func ParseLine(line string) (Record, error) {
	var r Record
	var fields [fieldCount]string
	f := strx.SplitInto(fields[:], strx.TrimEOL(line), ',')
	if len(f) != fieldCount || f[0] != Prefix {
		return r, ErrMalformed
	}
	seq, ok1 := conv.ParseUint(f[1], 1<<32-1)
	temp, ok2 := conv.ParseUint(f[2], 255)
	hum, ok3 := conv.ParseUint(f[3], 255)
	valid, ok4 := parseBool(f[4])
	soil, ok5 := conv.ParseUint(f[5], types.SoilMax)
	tier, ok6 := types.ParseAlarmTier(f[6])
	pump, ok7 := parseBool(f[7])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return r, ErrMalformed
	}
	r.Seq = uint32(seq)
	r.Readings.Climate = types.SensorReading{
		TemperatureC: uint8(temp),
		HumidityPct:  uint8(hum),
		Valid:        valid,
	}
	r.Readings.Soil.Raw = uint16(soil)
	r.State = types.ActuatorState{Tier: tier, PumpOn: pump}
	return r, nil
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "0":
		return false, true
	case "1":
		return true, true
	}
	return false, false
}

// Writer emits records to w, one per line.
type Writer struct {
	w   io.Writer
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, 64)}
}

// Emit writes r followed by CRLF, which serial terminals expect.
func (w *Writer) Emit(r Record) error {
	w.buf = append(r.AppendLine(w.buf[:0]), '\r', '\n')
	_, err := w.w.Write(w.buf)
	return err
}
