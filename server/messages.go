package server

import "github.com/brensch/snekterm/game"

// Client -> server message types.
const (
	MsgTurn    = "turn"
	MsgResize  = "resize"
	MsgRestart = "restart"
	MsgTick    = "tick" // manual mode only
)

// Server -> client message types.
const (
	MsgFrame = "frame"
	MsgError = "error"
)

// ClientMessage is anything a player sends over the socket.
type ClientMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	Width     int32  `json:"width,omitempty"`
	Height    int32  `json:"height,omitempty"`
}

// FrameMessage carries the round state after a tick, a restart or a resize.
type FrameMessage struct {
	Type    string       `json:"type"`
	RoundID string       `json:"round_id"`
	Width   int32        `json:"width"`
	Height  int32        `json:"height"`
	Outcome game.Outcome `json:"outcome"`
	game.Frame
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
