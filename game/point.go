package game

import (
	"fmt"
	"strings"
)

// Point is a board coordinate.
// (0,0) is the top-left cell; X grows to the right and Y grows downward.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the neighbouring cell in direction d.
// Coordinates saturate at 0: stepping Up or Left from the 0 edge returns p itself.
func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: satAdd(p.X, dx), Y: satAdd(p.Y, dy)}
}

func (p Point) In(width, height int32) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

func satAdd(v, d int32) int32 {
	if d < 0 && v < -d {
		return 0
	}
	return v + d
}

// Direction is one of the four cardinal moves.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = [...]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func (d Direction) Valid() bool {
	return d <= Right
}

// Opposite returns the reverse of d.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Delta returns the unit offset of d in screen coordinates.
func (d Direction) Delta() (dx, dy int32) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// ParseDirection accepts direction names as well as WASD and vi keys.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w", "k":
		return Up, nil
	case "down", "s", "j":
		return Down, nil
	case "left", "a", "h":
		return Left, nil
	case "right", "d", "l":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
