package config

import "errors"

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Firmware has no filesystem; boards carry their overrides as YAML compiled
// into the image. Key: board ID. Val: YAML applied over Default().
// -----------------------------------------------------------------------------

const cfgPico = `
log:
  level: info
  format: console
soil:
  channel: 0
`

// cfgPicoRelayBoard drives the pump through an active-low relay module.
const cfgPicoRelayBoard = `
pins:
  pump_active_low: true
log:
  level: debug
`

var embeddedConfigs = map[string]string{
	"pico":       cfgPico,
	"pico-relay": cfgPicoRelayBoard,
}

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	s, ok := embeddedConfigs[board]
	return []byte(s), ok
}

// Embedded returns the configuration compiled in for board.
func Embedded(board string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok {
		return nil, errors.New("no embedded config for board: " + board)
	}
	return Parse(raw)
}
