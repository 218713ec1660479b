//go:build !rp2040

// Command farmmon watches a node's UART from a host and decodes its status
// lines.
//
//	farmmon -port /dev/ttyACM0
//	farmmon -list
package main

import (
	"flag"
	"fmt"
	"os"

	"farmnode-go/services/config"
	"farmnode-go/services/logging"
	"farmnode-go/x/strx"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

var (
	configFlag = flag.String("config", "farm.yaml", "path to YAML configuration")
	portFlag   = flag.String("port", "", "serial port (default from config serial.port)")
	baudFlag   = flag.Int("baud", 0, "baud rate (default from config serial.baud)")
	listFlag   = flag.Bool("list", false, "list serial ports and exit")
	formatFlag = flag.String("log-format", "", "console or json (default from config log.format)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "farmmon:", err)
		os.Exit(1)
	}
}

func run() error {
	if *listFlag {
		ports, err := serial.GetPortsList()
		if err != nil {
			return fmt.Errorf("failed to list serial ports: %w", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	port := strx.Coalesce(*portFlag, cfg.Serial.Port)
	baud := cfg.Serial.Baud
	if *baudFlag > 0 {
		baud = *baudFlag
	}
	log := logging.Named("farmmon", cfg.Log.Level, strx.Coalesce(*formatFlag, cfg.Log.Format), os.Stdout)
	defer log.Sync()

	conn, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	defer conn.Close()

	log.Info("listening", zap.String("port", port), zap.Int("baud", baud))
	s, err := monitor(conn, log)
	log.Info("port closed",
		zap.Int("records", s.Records),
		zap.Int("invalid", s.Invalid),
		zap.Int("gaps", s.Gaps),
		zap.Int("tier_changes", s.Transitions),
		zap.Int("other_lines", s.Other))
	return err
}
