package game

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

// dumpState is a test helper to visualize board state.
func dumpState(s *State, width, height int32) string {
	grid := make([][]byte, height)
	for y := int32(0); y < height; y++ {
		grid[y] = make([]byte, width)
		for x := int32(0); x < width; x++ {
			grid[y][x] = '.'
		}
	}
	if s.food.In(width, height) {
		grid[s.food.Y][s.food.X] = '*'
	}
	for i, p := range s.body {
		if !p.In(width, height) {
			continue
		}
		if i == 0 {
			grid[p.Y][p.X] = 'H'
		} else {
			grid[p.Y][p.X] = 'o'
		}
	}
	var sb strings.Builder
	for y := int32(0); y < height; y++ {
		sb.WriteString(string(grid[y]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// newTestState builds a running state with an arbitrary body, bypassing New.
func newTestState(body []Point, food Point, dir Direction, seed int64) *State {
	s := New(Config{Start: body[0], Food: food, Direction: dir}, rand.New(rand.NewSource(seed)))
	s.body = append([]Point(nil), body...)
	return s
}

func assertBody(t *testing.T, got, want []Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("body len=%d want=%d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))

	if s.Len() != 1 {
		t.Fatalf("len=%d want=1", s.Len())
	}
	if s.Head() != (Point{X: 10, Y: 10}) {
		t.Fatalf("head=%v want=(10,10)", s.Head())
	}
	if s.Food() != (Point{X: 5, Y: 5}) {
		t.Fatalf("food=%v want=(5,5)", s.Food())
	}
	if s.Direction() != Right || s.Heading() != Right {
		t.Fatalf("direction=%v heading=%v want=right", s.Direction(), s.Heading())
	}
	if s.Score() != 0 || s.Over() || s.Reason() != ReasonNone || s.Turn() != 0 {
		t.Fatalf("unexpected initial state: score=%d over=%v reason=%v turn=%d", s.Score(), s.Over(), s.Reason(), s.Turn())
	}
}

func TestNew_PanicsWhenFoodOnStart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(Config{Start: Point{X: 1, Y: 1}, Food: Point{X: 1, Y: 1}, Direction: Right}, nil)
}

func TestTick_MovesInActiveDirection(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))

	out, err := s.Tick(20, 20)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeMoved {
		t.Fatalf("outcome=%v want=moved", out)
	}
	if s.Head() != (Point{X: 11, Y: 10}) {
		t.Fatalf("head=%v want=(11,10)", s.Head())
	}

	if !s.SetDirection(Down) {
		t.Fatalf("down rejected while heading right")
	}
	if _, err := s.Tick(20, 20); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s.Head() != (Point{X: 11, Y: 11}) {
		t.Fatalf("head=%v want=(11,11)", s.Head())
	}
	if s.Len() != 1 || s.Turn() != 2 {
		t.Fatalf("len=%d turn=%d want len=1 turn=2", s.Len(), s.Turn())
	}
}

func TestTick_TranslatesLongBody(t *testing.T) {
	s := newTestState([]Point{{X: 3, Y: 3}, {X: 3, Y: 4}, {X: 3, Y: 5}}, Point{X: 0, Y: 0}, Up, 1)

	if _, err := s.Tick(7, 7); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertBody(t, s.Body(), []Point{{X: 3, Y: 2}, {X: 3, Y: 3}, {X: 3, Y: 4}})
}

func TestTick_WallCollision(t *testing.T) {
	s := newTestState([]Point{{X: 8, Y: 9}}, Point{X: 0, Y: 0}, Right, 1)

	before := dumpState(s, 10, 10)
	out, err := s.Tick(10, 10)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeMoved || s.Over() {
		t.Fatalf("outcome=%v over=%v want moved, running", out, s.Over())
	}
	if s.Head() != (Point{X: 9, Y: 9}) {
		t.Fatalf("head=%v want=(9,9)", s.Head())
	}

	out, err = s.Tick(10, 10)
	t.Logf("BEFORE:\n%sAFTER:\n%s", before, dumpState(s, 10, 10))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeHitWall || !s.Over() || s.Reason() != ReasonWall {
		t.Fatalf("outcome=%v over=%v reason=%v want hit_wall", out, s.Over(), s.Reason())
	}
	assertBody(t, s.Body(), []Point{{X: 9, Y: 9}})
}

func TestTick_EatFoodGrows(t *testing.T) {
	s := newTestState([]Point{{X: 4, Y: 5}}, Point{X: 5, Y: 5}, Right, 7)

	out, err := s.Tick(20, 20)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeAte {
		t.Fatalf("outcome=%v want=ate", out)
	}
	assertBody(t, s.Body(), []Point{{X: 5, Y: 5}, {X: 4, Y: 5}})
	if s.Score() != 1 {
		t.Fatalf("score=%d want=1", s.Score())
	}
	if s.Food() == (Point{X: 5, Y: 5}) {
		t.Fatalf("food not resampled")
	}
	if s.Occupies(s.Food()) || !s.Food().In(20, 20) {
		t.Fatalf("food %v invalid for body %v", s.Food(), s.Body())
	}
}

func TestTick_SelfCollision(t *testing.T) {
	// A hook moving down then turning right: the new head (6,5) is body[3],
	// which is not the tail.
	body := []Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 5}, {X: 6, Y: 6}}
	s := newTestState(body, Point{X: 0, Y: 0}, Down, 1)
	if !s.SetDirection(Right) {
		t.Fatalf("right rejected while moving down")
	}

	out, err := s.Tick(20, 20)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeHitSelf || !s.Over() || s.Reason() != ReasonSelf {
		t.Fatalf("outcome=%v over=%v reason=%v want hit_self\n%s", out, s.Over(), s.Reason(), dumpState(s, 8, 8))
	}
	assertBody(t, s.Body(), body)
	if s.Turn() != 0 {
		t.Fatalf("turn=%d want=0 after collision", s.Turn())
	}
}

func TestTick_MovingIntoTailCollides(t *testing.T) {
	// A 2x2 loop: the tail has not left its cell when the head arrives.
	body := []Point{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}}
	s := newTestState(body, Point{X: 0, Y: 0}, Right, 1)

	out, _ := s.Tick(20, 20)
	if out != OutcomeHitSelf {
		t.Fatalf("outcome=%v want=hit_self\n%s", out, dumpState(s, 8, 8))
	}
	assertBody(t, s.Body(), body)
}

func TestTick_LowerEdgeClampEndsRound(t *testing.T) {
	s := newTestState([]Point{{X: 0, Y: 3}}, Point{X: 5, Y: 5}, Left, 1)

	out, err := s.Tick(10, 10)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	// The clamped head equals the current head, which the body check catches.
	if out != OutcomeHitSelf || s.Reason() != ReasonSelf {
		t.Fatalf("outcome=%v reason=%v want hit_self", out, s.Reason())
	}
	assertBody(t, s.Body(), []Point{{X: 0, Y: 3}})
}

func TestTick_TerminalStateIsFrozen(t *testing.T) {
	s := newTestState([]Point{{X: 9, Y: 0}}, Point{X: 1, Y: 1}, Right, 1)
	if out, _ := s.Tick(10, 10); out != OutcomeHitWall {
		t.Fatalf("outcome=%v want=hit_wall", out)
	}
	want := s.Snapshot()

	for i := 0; i < 5; i++ {
		out, err := s.Tick(10, 10)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if out != OutcomeFrozen {
			t.Fatalf("outcome=%v want=frozen", out)
		}
	}
	if s.SetDirection(Down) {
		t.Fatalf("direction accepted after game over")
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("state changed after game over:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestTick_InvalidBoard(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	want := s.Snapshot()

	for _, dims := range [][2]int32{{0, 10}, {10, 0}, {-1, 5}} {
		out, err := s.Tick(dims[0], dims[1])
		if !errors.Is(err, ErrInvalidBoard) {
			t.Fatalf("tick %v: err=%v want ErrInvalidBoard", dims, err)
		}
		if out != OutcomeNone {
			t.Fatalf("tick %v: outcome=%v want=none", dims, out)
		}
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("state changed on invalid board")
	}
}

func TestTick_BoardShrinkEndsRound(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))

	out, err := s.Tick(5, 5)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeHitWall {
		t.Fatalf("outcome=%v want=hit_wall", out)
	}
}

func TestTick_BoardFullEndsRound(t *testing.T) {
	s := newTestState([]Point{{X: 0, Y: 0}}, Point{X: 1, Y: 0}, Right, 1)

	out, err := s.Tick(2, 1)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeBoardFull || !s.Over() || s.Reason() != ReasonBoardFull {
		t.Fatalf("outcome=%v over=%v reason=%v want board_full", out, s.Over(), s.Reason())
	}
	if !out.Terminal() {
		t.Fatalf("board_full should be terminal")
	}
	if s.Score() != 1 || s.Len() != 2 {
		t.Fatalf("score=%d len=%d want 1, 2", s.Score(), s.Len())
	}
}

func TestSetDirection_RejectsReversal(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))

	if s.SetDirection(Left) {
		t.Fatalf("left accepted while moving right")
	}
	if s.Direction() != Right {
		t.Fatalf("direction=%v want=right", s.Direction())
	}

	if !s.SetDirection(Up) {
		t.Fatalf("up rejected")
	}
	if s.SetDirection(Down) {
		t.Fatalf("down accepted while up is queued")
	}
	if s.Direction() != Up {
		t.Fatalf("direction=%v want=up", s.Direction())
	}

	if _, err := s.Tick(20, 20); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s.Heading() != Up {
		t.Fatalf("heading=%v want=up after tick", s.Heading())
	}
	if s.SetDirection(Down) {
		t.Fatalf("down accepted while moving up")
	}
}

func TestSetDirection_OnlyQueuedDirectionGuards(t *testing.T) {
	s := New(DefaultConfig(), rand.New(rand.NewSource(1)))

	// Right -> Up -> Left within one tick: only the queued direction counts.
	if !s.SetDirection(Up) {
		t.Fatalf("up rejected")
	}
	if !s.SetDirection(Left) {
		t.Fatalf("left rejected while up is queued")
	}
	if s.Direction() != Left || s.Heading() != Right {
		t.Fatalf("direction=%v heading=%v want=left,right", s.Direction(), s.Heading())
	}

	out, err := s.Tick(20, 20)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out != OutcomeMoved {
		t.Fatalf("outcome=%v want=moved", out)
	}
	if got := s.Head(); got != (Point{X: 9, Y: 10}) {
		t.Fatalf("head=%v want=(9,10)", got)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := newTestState([]Point{{X: 3, Y: 3}, {X: 2, Y: 3}}, Point{X: 9, Y: 9}, Right, 1)
	c := s.Clone()

	if _, err := c.Tick(10, 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertBody(t, s.Body(), []Point{{X: 3, Y: 3}, {X: 2, Y: 3}})
	assertBody(t, c.Body(), []Point{{X: 4, Y: 3}, {X: 3, Y: 3}})
}

func TestDeterminism(t *testing.T) {
	play := func() Frame {
		s := New(DefaultConfig(), rand.New(rand.NewSource(12345)))
		s.body = []Point{{X: 4, Y: 5}}
		inputs := rand.New(rand.NewSource(99))
		for i := 0; i < 200 && !s.Over(); i++ {
			s.SetDirection(Direction(inputs.Intn(4)))
			if _, err := s.Tick(12, 12); err != nil {
				t.Fatalf("tick: %v", err)
			}
		}
		return s.Snapshot()
	}

	a, b := play(), play()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different rounds:\n a=%+v\n b=%+v", a, b)
	}
}

// TestInvariants drives many seeded rounds with a steering policy that heads
// for the food and checks the state after every tick.
func TestInvariants(t *testing.T) {
	const width, height = 8, 6

	for seed := int64(0); seed < 50; seed++ {
		s := New(Config{Start: Point{X: 1, Y: 1}, Food: Point{X: 4, Y: 1}, Direction: Right}, rand.New(rand.NewSource(seed)))
		steer := rand.New(rand.NewSource(seed + 1000))

		for i := 0; i < 500 && !s.Over(); i++ {
			if steer.Intn(3) == 0 {
				s.SetDirection(Direction(steer.Intn(4)))
			} else {
				s.SetDirection(towards(s.Head(), s.Food()))
			}

			prevLen, prevFood, prevScore := s.Len(), s.Food(), s.Score()
			next := s.Head().Step(s.Direction())

			out, err := s.Tick(width, height)
			if err != nil {
				t.Fatalf("seed %d tick %d: %v", seed, i, err)
			}

			if s.Len() < prevLen {
				t.Fatalf("seed %d: body shrank %d -> %d", seed, prevLen, s.Len())
			}
			grew := s.Len() == prevLen+1
			ate := !out.Terminal() || out == OutcomeBoardFull
			ate = ate && next == prevFood
			if grew != ate {
				t.Fatalf("seed %d: grew=%v ate=%v outcome=%v\n%s", seed, grew, ate, out, dumpState(s, width, height))
			}
			if grew && s.Score() != prevScore+1 {
				t.Fatalf("seed %d: score %d -> %d on growth", seed, prevScore, s.Score())
			}

			if s.Over() {
				break
			}
			seen := make(map[Point]bool, s.Len())
			for _, p := range s.Body() {
				if seen[p] {
					t.Fatalf("seed %d: duplicate cell %v\n%s", seed, p, dumpState(s, width, height))
				}
				seen[p] = true
			}
			if seen[s.Food()] {
				t.Fatalf("seed %d: food %v on body", seed, s.Food())
			}
		}
	}
}

func towards(from, to Point) Direction {
	switch {
	case to.X > from.X:
		return Right
	case to.X < from.X:
		return Left
	case to.Y > from.Y:
		return Down
	default:
		return Up
	}
}
