// food.go implements food placement for a round.

package game

// maxFoodDraws bounds the rejection-sampling loop before falling back to
// picking from the enumerated free cells. Both paths are uniform over free cells.
const maxFoodDraws = 64

// placeFood moves the food to a uniformly random in-bounds cell that the body
// does not occupy. It returns ErrBoardFull if there is no such cell.
func (s *State) placeFood(width, height int32) error {
	area := int64(width) * int64(height)
	var covered int64
	for _, p := range s.body {
		if p.In(width, height) {
			covered++
		}
	}
	if covered >= area {
		return ErrBoardFull
	}

	for i := 0; i < maxFoodDraws; i++ {
		p := Point{X: s.rng.Int31n(width), Y: s.rng.Int31n(height)}
		if !s.Occupies(p) {
			s.food = p
			return nil
		}
	}

	// Crowded board: most draws would be rejected.
	free := s.freeCells(width, height, int(area-covered))
	if len(free) == 0 {
		return ErrBoardFull
	}
	s.food = free[s.rng.Intn(len(free))]
	return nil
}

func (s *State) freeCells(width, height int32, hint int) []Point {
	occupied := make(map[Point]bool, len(s.body))
	for _, p := range s.body {
		occupied[p] = true
	}
	free := make([]Point, 0, hint)
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				free = append(free, p)
			}
		}
	}
	return free
}
