// Package server lets remote front ends play Snake over a websocket.
//
// Every connection gets its own round. The session goroutine owns the
// game.State; a reader goroutine only decodes client messages and hands them
// over a channel, so the state is never shared.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brensch/snekterm/game"
	"github.com/gorilla/websocket"
)

// MaxBoardSide bounds resize requests.
const MaxBoardSide = 1024

type Config struct {
	// Tick is the interval between steps. Zero or negative switches to
	// manual mode, where the client advances the round with "tick" messages.
	Tick         time.Duration
	// Manual forces manual mode regardless of Tick.
	Manual       bool
	Width        int32
	Height       int32
	Seed         int64 // 0 seeds each session from the clock
	RecordDir    string
	Game         game.Config
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Tick:         100 * time.Millisecond,
		Width:        20,
		Height:       20,
		Game:         game.DefaultConfig(),
		WriteTimeout: 5 * time.Second,
	}
}

type Server struct {
	cfg      Config
	log      *slog.Logger
	upgrader websocket.Upgrader

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sessions atomic.Int64
	active   atomic.Int64
}

func New(cfg Config, log *slog.Logger) (*Server, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxBoardSide || cfg.Height > MaxBoardSide {
		return nil, fmt.Errorf("board %dx%d: %w", cfg.Width, cfg.Height, game.ErrInvalidBoard)
	}
	if cfg.Game == (game.Config{}) {
		cfg.Game = game.DefaultConfig()
	}
	if cfg.Manual {
		cfg.Tick = 0
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Front ends are served from anywhere, including file:// pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
}

// Active returns the number of connected sessions.
func (s *Server) Active() int64 { return s.active.Load() }

// Shutdown stops every session and waits for them to finish or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := s.sessions.Add(1)
	s.wg.Add(1)
	s.active.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		sess := newSession(s, conn, id, s.log.With("session", id, "remote", r.RemoteAddr))
		sess.run(s.ctx)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int64{
		"active":   s.active.Load(),
		"sessions": s.sessions.Load(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
