// Package store records rounds to Parquet so they can be replayed later.
//
// A round file holds one row per tick. Files are written under outDir/tmp and
// renamed into outDir once complete, so readers never observe a partial file.
package store

import (
	"fmt"

	"github.com/brensch/snekterm/game"
	"github.com/google/uuid"
)

const schemaName = "snek_round_v1"

// TickRow is the state of a round after one tick.
//
// Body is stored head first as parallel X/Y columns. Outcome is the result of
// the tick that produced the row ("none" for the initial row).
type TickRow struct {
	RoundID    string  `parquet:"round_id,dict"`
	Seq        int32   `parquet:"seq"`
	Turn       int32   `parquet:"turn"`
	Width      int32   `parquet:"width"`
	Height     int32   `parquet:"height"`
	Direction  string  `parquet:"direction,dict"`
	Outcome    string  `parquet:"outcome,dict"`
	BodyX      []int32 `parquet:"body_x"`
	BodyY      []int32 `parquet:"body_y"`
	FoodX      int32   `parquet:"food_x"`
	FoodY      int32   `parquet:"food_y"`
	Score      int32   `parquet:"score"`
	Over       bool    `parquet:"over"`
	Reason     string  `parquet:"reason,dict"`
	RecordedNs int64   `parquet:"recorded_ns"`
}

// NewRoundID returns a random identifier for a round.
func NewRoundID() string {
	return uuid.NewString()
}

// RowFromFrame flattens a frame into a row.
func RowFromFrame(roundID string, seq, width, height int32, outcome game.Outcome, f game.Frame) TickRow {
	row := TickRow{
		RoundID:   roundID,
		Seq:       seq,
		Turn:      f.Turn,
		Width:     width,
		Height:    height,
		Direction: f.Direction.String(),
		Outcome:   outcome.String(),
		BodyX:     make([]int32, len(f.Body)),
		BodyY:     make([]int32, len(f.Body)),
		FoodX:     f.Food.X,
		FoodY:     f.Food.Y,
		Score:     f.Score,
		Over:      f.Over,
		Reason:    f.Reason.String(),
	}
	for i, p := range f.Body {
		row.BodyX[i] = p.X
		row.BodyY[i] = p.Y
	}
	return row
}

// Frame rebuilds the game frame stored in the row.
func (r TickRow) Frame() (game.Frame, error) {
	if len(r.BodyX) != len(r.BodyY) {
		return game.Frame{}, fmt.Errorf("row %d: body_x has %d cells, body_y has %d", r.Seq, len(r.BodyX), len(r.BodyY))
	}
	var f game.Frame
	if err := f.Direction.UnmarshalText([]byte(r.Direction)); err != nil {
		return game.Frame{}, fmt.Errorf("row %d: %w", r.Seq, err)
	}
	if err := f.Reason.UnmarshalText([]byte(r.Reason)); err != nil {
		return game.Frame{}, fmt.Errorf("row %d: %w", r.Seq, err)
	}
	f.Turn = r.Turn
	f.Food = game.Point{X: r.FoodX, Y: r.FoodY}
	f.Score = r.Score
	f.Over = r.Over
	f.Body = make([]game.Point, len(r.BodyX))
	for i := range r.BodyX {
		f.Body[i] = game.Point{X: r.BodyX[i], Y: r.BodyY[i]}
	}
	return f, nil
}

func fileName(roundID string) string {
	return fmt.Sprintf("round_%s.parquet", roundID)
}
