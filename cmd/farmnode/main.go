//go:build rp2040

// Command farmnode is the Pico firmware: one sensor exchange, one soil
// conversion, outputs, display and a telemetry line per second, forever.
package main

import (
	"context"
	"time"

	"farmnode-go/services/config"
	"farmnode-go/services/hal/platform"
	"farmnode-go/services/logging"
	"farmnode-go/services/node"
	"farmnode-go/services/telemetry"

	"go.uber.org/zap"
)

// board selects the embedded configuration; override with
// -ldflags "-X main.board=pico-relay".
var board = "pico"

const consoleBaud = 115200

func main() {
	// Let the sensor settle after power-up before the first exchange.
	time.Sleep(2 * time.Second)

	console := platform.ConsoleUART(consoleBaud)

	cfg, err := config.Embedded(board)
	if err != nil {
		println("config:", err.Error(), "- using defaults")
		cfg = config.Default()
	}
	log := logging.Named("farmnode", cfg.Log.Level, cfg.Log.Format, console)
	defer log.Sync()

	loop, err := node.Build(cfg, node.Hardware{
		Pins: platform.DefaultPinFactory(),
		ADC:  platform.NewADC(),
	}, node.Options{
		Sink:   telemetry.NewWriter(console),
		Logger: log,
	})
	if err != nil {
		log.Fatal("wiring failed", zap.Error(err))
	}

	log.Info("boot", zap.String("board", board))
	if err := loop.Run(context.Background()); err != nil {
		log.Fatal("loop stopped", zap.Error(err))
	}
}
