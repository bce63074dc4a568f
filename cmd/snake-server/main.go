// Command snake-server serves Snake rounds over websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/snekterm/config"
	"github.com/brensch/snekterm/logging"
	"github.com/brensch/snekterm/server"
)

func main() {
	defaults := server.DefaultConfig()

	addr := flag.String("addr", config.String("ADDR", ":8080"), "Listen address")
	tick := flag.Duration("tick", config.Duration("SNAKE_TICK", defaults.Tick), "Time between steps (0 = clients send tick messages)")
	manual := flag.Bool("manual", config.Bool("SNAKE_MANUAL", false), "Clients advance rounds with tick messages; overrides -tick")
	width := flag.Int("width", config.Int("SNAKE_WIDTH", int(defaults.Width)), "Initial board width")
	height := flag.Int("height", config.Int("SNAKE_HEIGHT", int(defaults.Height)), "Initial board height")
	seed := flag.Int64("seed", config.Int64("SNAKE_SEED", 0), "Base food placement seed (0 = clock)")
	recordDir := flag.String("record-dir", config.String("SNAKE_RECORD_DIR", ""), "Write each round to a .parquet file in this directory")
	logLevel := flag.String("log-level", config.String("SNAKE_LOG_LEVEL", "info"), "debug, info, warn or error")
	logFormat := flag.String("log-format", config.String("SNAKE_LOG_FORMAT", "pretty"), "pretty, json or text")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid -log-level: %v", err)
	}
	logger, err := logging.New(os.Stderr, level, *logFormat)
	if err != nil {
		log.Fatalf("Invalid -log-format: %v", err)
	}

	cfg := defaults
	cfg.Tick = *tick
	cfg.Manual = *manual
	cfg.Width = int32(*width)
	cfg.Height = int32(*height)
	cfg.Seed = *seed
	cfg.RecordDir = *recordDir

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to configure server: %v", err)
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down", "active", srv.Active())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("sessions did not stop in time", "err", err)
		}
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", *addr, "tick", cfg.Tick, "width", cfg.Width, "height", cfg.Height)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
