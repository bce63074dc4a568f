package game

import (
	"errors"
	"fmt"
)

// Outcome describes what a single Tick did.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeMoved
	OutcomeAte
	OutcomeHitWall
	OutcomeHitSelf
	OutcomeBoardFull
	OutcomeFrozen
)

var outcomeNames = [...]string{"none", "moved", "ate", "hit_wall", "hit_self", "board_full", "frozen"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Terminal reports whether the outcome ended the round on that tick.
func (o Outcome) Terminal() bool {
	return o == OutcomeHitWall || o == OutcomeHitSelf || o == OutcomeBoardFull
}

// Tick advances the round by one step on a width x height board.
//
// The board size may change between calls. Collisions end the round and are
// reported through the Outcome, not as errors; the body is left as it was
// before the failed move. Once the round is over Tick changes nothing.
func (s *State) Tick(width, height int32) (Outcome, error) {
	if width <= 0 || height <= 0 {
		return OutcomeNone, fmt.Errorf("tick on %dx%d board: %w", width, height, ErrInvalidBoard)
	}
	if s.over {
		return OutcomeFrozen, nil
	}

	newHead := s.body[0].Step(s.pending)

	if newHead.X >= width || newHead.Y >= height {
		s.end(ReasonWall)
		return OutcomeHitWall, nil
	}
	// Includes the tail: it has not moved out of the way yet.
	if s.Occupies(newHead) {
		s.end(ReasonSelf)
		return OutcomeHitSelf, nil
	}

	body := make([]Point, 0, len(s.body)+1)
	body = append(body, newHead)
	body = append(body, s.body...)
	s.heading = s.pending
	s.turn++

	if newHead != s.food {
		s.body = body[:len(body)-1]
		return OutcomeMoved, nil
	}

	s.body = body
	s.score++
	if err := s.placeFood(width, height); err != nil {
		if errors.Is(err, ErrBoardFull) {
			s.end(ReasonBoardFull)
			return OutcomeBoardFull, nil
		}
		return OutcomeAte, err
	}
	return OutcomeAte, nil
}

func (s *State) end(r Reason) {
	s.over = true
	s.reason = r
}
