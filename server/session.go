package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/snekterm/game"
	"github.com/brensch/snekterm/store"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 1024

type inbound struct {
	msg ClientMessage
	err error
}

type session struct {
	srv  *Server
	conn *websocket.Conn
	log  *slog.Logger
	rng  *rand.Rand

	state   *game.State
	roundID string
	rec     *store.Recorder
	width   int32
	height  int32
}

func newSession(srv *Server, conn *websocket.Conn, id int64, log *slog.Logger) *session {
	seed := srv.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	} else {
		seed += id - 1
	}
	return &session{
		srv:    srv,
		conn:   conn,
		log:    log,
		rng:    rand.New(rand.NewSource(seed)),
		width:  srv.cfg.Width,
		height: srv.cfg.Height,
	}
}

func (s *session) run(ctx context.Context) {
	defer s.conn.Close()
	defer s.finishRecording()

	inputs := make(chan inbound, 16)
	done := make(chan struct{})
	defer close(done)
	go s.readLoop(inputs, done)

	s.newRound()
	if err := s.sendFrame(game.OutcomeNone); err != nil {
		s.log.Warn("send initial frame", "err", err)
		return
	}

	var ticks <-chan time.Time
	if s.srv.cfg.Tick > 0 {
		ticker := time.NewTicker(s.srv.cfg.Tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.closeWith(websocket.CloseGoingAway, "server shutting down")
			return

		case in, ok := <-inputs:
			if !ok {
				s.log.Info("client disconnected", "round_id", s.roundID, "turn", s.state.Turn())
				return
			}
			if err := s.handle(in); err != nil {
				s.log.Warn("write failed", "round_id", s.roundID, "err", err)
				return
			}

		case <-ticks:
			if err := s.step(); err != nil {
				s.log.Warn("write failed", "round_id", s.roundID, "err", err)
				return
			}
		}
	}
}

// readLoop decodes client messages until the connection fails.
// It never writes to the connection.
func (s *session) readLoop(out chan<- inbound, done <-chan struct{}) {
	defer close(out)
	s.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read loop ended", "err", err)
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(data, &in.msg); err != nil {
			in.err = fmt.Errorf("decode message: %w", err)
		}
		select {
		case out <- in:
		case <-done:
			return
		}
	}
}

// handle applies one client message. Only write errors are returned; bad
// input is reported to the client.
func (s *session) handle(in inbound) error {
	if in.err != nil {
		return s.sendError(in.err)
	}

	switch in.msg.Type {
	case MsgTurn:
		d, err := game.ParseDirection(in.msg.Direction)
		if err != nil {
			return s.sendError(err)
		}
		s.state.SetDirection(d)
		return nil

	case MsgResize:
		w, h := in.msg.Width, in.msg.Height
		if w <= 0 || h <= 0 || w > MaxBoardSide || h > MaxBoardSide {
			return s.sendError(fmt.Errorf("resize to %dx%d: %w", w, h, game.ErrInvalidBoard))
		}
		s.width, s.height = w, h
		return s.sendFrame(game.OutcomeNone)

	case MsgRestart:
		s.finishRecording()
		s.newRound()
		return s.sendFrame(game.OutcomeNone)

	case MsgTick:
		if s.srv.cfg.Tick > 0 {
			return s.sendError(errors.New("tick messages are only accepted in manual mode"))
		}
		return s.step()
	}
	return s.sendError(fmt.Errorf("unknown message type %q", in.msg.Type))
}

// step advances the round and sends the result. Ticks on a finished round
// send nothing.
func (s *session) step() error {
	if s.state.Over() {
		return nil
	}
	before := s.state.Snapshot()

	out, err := s.state.Tick(s.width, s.height)
	if err != nil {
		return s.sendError(err)
	}

	if s.rec != nil {
		if s.rec.Rows() == 0 {
			s.record(game.OutcomeNone, before)
		}
		s.record(out, s.state.Snapshot())
	}
	if out.Terminal() {
		s.log.Info("round over",
			"round_id", s.roundID,
			"reason", s.state.Reason().String(),
			"score", s.state.Score(),
			"turns", s.state.Turn(),
		)
		s.finishRecording()
	}
	return s.sendFrame(out)
}

func (s *session) newRound() {
	s.state = game.New(s.srv.cfg.Game, s.rng)
	s.roundID = store.NewRoundID()
	s.rec = nil
	if s.srv.cfg.RecordDir != "" {
		rec, err := store.NewRecorder(s.srv.cfg.RecordDir, s.roundID)
		if err != nil {
			s.log.Error("recorder unavailable", "round_id", s.roundID, "err", err)
		} else {
			s.rec = rec
		}
	}
	s.log.Info("round started", "round_id", s.roundID, "width", s.width, "height", s.height)
}

func (s *session) record(out game.Outcome, f game.Frame) {
	if err := s.rec.Record(s.width, s.height, out, f); err != nil {
		s.log.Error("record tick", "round_id", s.roundID, "err", err)
	}
}

func (s *session) finishRecording() {
	if s.rec == nil {
		return
	}
	path, err := s.rec.Finalize()
	if err != nil {
		s.log.Error("finalize recording", "round_id", s.roundID, "err", err)
	} else if path != "" {
		s.log.Info("round recorded", "round_id", s.roundID, "path", path)
	}
	s.rec = nil
}

func (s *session) sendFrame(out game.Outcome) error {
	return s.write(FrameMessage{
		Type:    MsgFrame,
		RoundID: s.roundID,
		Width:   s.width,
		Height:  s.height,
		Outcome: out,
		Frame:   s.state.Snapshot(),
	})
}

func (s *session) sendError(err error) error {
	return s.write(ErrorMessage{Type: MsgError, Error: err.Error()})
}

func (s *session) write(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *session) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
