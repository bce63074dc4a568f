// Command snake plays Snake in the terminal.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/brensch/snekterm/config"
	"github.com/brensch/snekterm/logging"
	"github.com/brensch/snekterm/tui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	tick := flag.Duration("tick", config.Duration("SNAKE_TICK", tui.DefaultConfig().Tick), "Time between simulation steps")
	seed := flag.Int64("seed", config.Int64("SNAKE_SEED", 0), "Food placement seed (0 = clock)")
	recordDir := flag.String("record-dir", config.String("SNAKE_RECORD_DIR", ""), "Write each round to a .parquet file in this directory")
	logFile := flag.String("log-file", config.String("SNAKE_LOG_FILE", ""), "Append logs to this file (stdout belongs to the game)")
	logLevel := flag.String("log-level", config.String("SNAKE_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid -log-level: %v", err)
	}

	var w io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		w = f
	}
	logger, err := logging.New(w, level, "pretty")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	cfg := tui.DefaultConfig()
	cfg.Tick = *tick
	cfg.Seed = *seed
	cfg.RecordDir = *recordDir
	cfg.Logger = logger

	p := tea.NewProgram(tui.New(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Game exited with error: %v", err)
	}
}
