//go:build rp2040

// Command boardtest is bring-up firmware: it wires the board from the embedded
// configuration and repeats the self-test, logging each run to the console.
package main

import (
	"time"

	"farmnode-go/services/config"
	"farmnode-go/services/hal/platform"
	"farmnode-go/services/logging"
	"farmnode-go/services/node"
	"farmnode-go/services/selftest"

	"go.uber.org/zap"
)

// ---------- Configuration ----------

var board = "pico"

const (
	consoleBaud = 115200
	pause       = 5 * time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

func main() {
	time.Sleep(2 * time.Second)
	console := platform.ConsoleUART(consoleBaud)

	cfg, err := config.Embedded(board)
	if err != nil {
		println("config:", err.Error(), "- using defaults")
		cfg = config.Default()
	}
	log := logging.Named("boardtest", "debug", cfg.Log.Format, console)
	defer log.Sync()

	parts, err := node.Assemble(cfg, node.Hardware{
		Pins: platform.DefaultPinFactory(),
		ADC:  platform.NewADC(),
	}, node.Options{Logger: log})
	if err != nil {
		log.Fatal("wiring failed", zap.Error(err))
	}

	var passed, failed int
	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		log.Info("cycle start", zap.Int("cycle", cycle))
		if selftest.Run(parts, cfg.Soil.Channel, nil, log).Passed() {
			passed++
		} else {
			failed++
		}
		log.Info("cycle end", zap.Int("cycle", cycle), zap.Int("passed", passed), zap.Int("failed", failed))
		time.Sleep(pause)
	}
}
