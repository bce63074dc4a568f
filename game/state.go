// Package game implements the single-snake round state machine.
//
// A State is created once per round and advanced by Tick. It holds no
// knowledge of rendering, input devices, or tick cadence; drivers feed it a
// direction change and the current board size, then read a Frame back.
//
// State is not safe for concurrent use. Exactly one driver loop owns it.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrInvalidBoard is returned by Tick when the board has no cells.
	ErrInvalidBoard = errors.New("board dimensions must be positive")
	// ErrBoardFull is returned by food placement when the body covers every free cell.
	ErrBoardFull = errors.New("no free cell for food")
)

// Reason records why a round ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonWall
	ReasonSelf
	ReasonBoardFull
)

var reasonNames = [...]string{"", "wall", "self", "board_full"}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(b []byte) error {
	for i, name := range reasonNames {
		if name == string(b) {
			*r = Reason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", b)
}

// Config holds the fixed starting layout of a round.
type Config struct {
	Start     Point
	Food      Point
	Direction Direction
}

// DefaultConfig matches the classic layout: head at (10,10) heading right, food at (5,5).
func DefaultConfig() Config {
	return Config{
		Start:     Point{X: 10, Y: 10},
		Food:      Point{X: 5, Y: 5},
		Direction: Right,
	}
}

// State is one round of Snake.
type State struct {
	body    []Point // head first
	food    Point
	heading Direction // direction of the last applied move
	pending Direction // direction used by the next tick
	score   int32
	turn    int32
	over    bool
	reason  Reason

	rng *rand.Rand
}

// New starts a round. A nil rng is replaced by one seeded from the clock;
// pass a seeded generator for reproducible food placement.
func New(cfg Config, rng *rand.Rand) *State {
	if cfg.Start == cfg.Food {
		panic(fmt.Sprintf("game: start %v and food %v overlap", cfg.Start, cfg.Food))
	}
	if !cfg.Direction.Valid() {
		panic(fmt.Sprintf("game: invalid start direction %d", cfg.Direction))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &State{
		body:    []Point{cfg.Start},
		food:    cfg.Food,
		heading: cfg.Direction,
		pending: cfg.Direction,
		rng:     rng,
	}
}

// SetDirection queues d for the next tick. d is rejected when it is the
// opposite of the queued direction. It reports whether d was accepted.
func (s *State) SetDirection(d Direction) bool {
	if s.over || !d.Valid() {
		return false
	}
	if d == s.pending.Opposite() {
		return false
	}
	s.pending = d
	return true
}

// Body returns a copy of the snake, head first.
func (s *State) Body() []Point {
	out := make([]Point, len(s.body))
	copy(out, s.body)
	return out
}

func (s *State) Head() Point    { return s.body[0] }
func (s *State) Len() int       { return len(s.body) }
func (s *State) Food() Point    { return s.food }
func (s *State) Score() int32   { return s.score }
func (s *State) Turn() int32    { return s.turn }
func (s *State) Over() bool     { return s.over }
func (s *State) Reason() Reason { return s.reason }

// Direction is the direction the next tick will move in.
func (s *State) Direction() Direction { return s.pending }

// Heading is the direction of the last applied move.
func (s *State) Heading() Direction { return s.heading }

// Occupies reports whether p is part of the body.
func (s *State) Occupies(p Point) bool {
	for _, b := range s.body {
		if b == p {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the state. The clone shares the rng.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.body = make([]Point, len(s.body))
	copy(out.body, s.body)
	return &out
}

// Frame is a read-only snapshot of a State for drivers to render, send or record.
type Frame struct {
	Turn      int32     `json:"turn"`
	Body      []Point   `json:"body"`
	Food      Point     `json:"food"`
	Score     int32     `json:"score"`
	Direction Direction `json:"direction"`
	Over      bool      `json:"over"`
	Reason    Reason    `json:"reason,omitempty"`
}

func (s *State) Snapshot() Frame {
	return Frame{
		Turn:      s.turn,
		Body:      s.Body(),
		Food:      s.food,
		Score:     s.score,
		Direction: s.pending,
		Over:      s.over,
		Reason:    s.reason,
	}
}
