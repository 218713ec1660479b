package types

// ------------------------
// Temperature & humidity
// ------------------------

// SensorReading is the best-effort result of one single-wire sensor exchange.
// Only the integer bytes are kept; fractional parts and the checksum are
// consumed on the wire and dropped.
type SensorReading struct {
	TemperatureC uint8 `json:"temperature_c" yaml:"temperature_c"`
	HumidityPct  uint8 `json:"humidity_pct" yaml:"humidity_pct"`
	Valid        bool  `json:"valid" yaml:"valid"`
}

// ------------------------
// Soil moisture
// ------------------------

// SoilMax is the largest raw code a 10-bit conversion can produce.
const SoilMax = 1023

// SoilSample is one raw 10-bit conversion of the soil probe (0..1023).
// Higher is drier.
type SoilSample struct {
	Raw uint16 `json:"raw" yaml:"raw"`
}

// ------------------------
// Held readings
// ------------------------

// LastKnownReadings is the input handed to the actuator logic each cycle.
// A failed sensor exchange leaves Climate as it was (zero at boot).
type LastKnownReadings struct {
	Climate SensorReading `json:"climate"`
	Soil    SoilSample    `json:"soil"`
}

// MergeClimate returns l with r applied when r is valid. Invalid readings are
// dropped and the previous climate values are retained.
func (l LastKnownReadings) MergeClimate(r SensorReading) LastKnownReadings {
	if r.Valid {
		l.Climate = r
	}
	return l
}

// WithSoil returns l with the soil sample replaced.
func (l LastKnownReadings) WithSoil(s SoilSample) LastKnownReadings {
	l.Soil = s
	return l
}
