//go:build !rp2040

package main

import (
	"bufio"
	"io"

	"farmnode-go/services/telemetry"
	"farmnode-go/types"

	"go.uber.org/zap"
)

// summary counts what the monitor saw.
type summary struct {
	Records     int
	Other       int // node log lines and noise
	Invalid     int // cycles where the sensor exchange failed
	Gaps        int // sequence numbers skipped
	Transitions int // tier changes
	Last        telemetry.Record
}

// monitor reads lines from r until EOF or a read error. Status lines are
// decoded and logged; anything else is passed to the debug log as-is.
func monitor(r io.Reader, log *zap.Logger) (summary, error) {
	var s summary
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Text()
		rec, err := telemetry.ParseLine(line)
		if err != nil {
			s.Other++
			log.Debug("node", zap.String("line", line))
			continue
		}
		s.Records++
		if !rec.Readings.Climate.Valid {
			s.Invalid++
		}
		if !first {
			if rec.Seq > s.Last.Seq+1 {
				s.Gaps += int(rec.Seq - s.Last.Seq - 1)
				log.Warn("missed status lines", zap.Uint32("from", s.Last.Seq+1), zap.Uint32("to", rec.Seq-1))
			}
			if rec.State.Tier != s.Last.State.Tier {
				s.Transitions++
				lvl := log.Info
				if rec.State.Tier == types.TierDanger {
					lvl = log.Warn
				}
				lvl("alarm tier changed",
					zap.Stringer("from", s.Last.State.Tier),
					zap.Stringer("to", rec.State.Tier),
					zap.Uint8("temp_c", rec.Readings.Climate.TemperatureC))
			}
		}
		first = false
		s.Last = rec

		log.Info("status",
			zap.Uint32("seq", rec.Seq),
			zap.Uint8("temp_c", rec.Readings.Climate.TemperatureC),
			zap.Uint8("humidity", rec.Readings.Climate.HumidityPct),
			zap.Bool("fresh", rec.Readings.Climate.Valid),
			zap.Uint16("soil", rec.Readings.Soil.Raw),
			zap.Stringer("tier", rec.State.Tier),
			zap.Bool("pump", rec.State.PumpOn))
	}
	return s, sc.Err()
}
