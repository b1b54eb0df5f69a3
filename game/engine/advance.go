package engine

import (
	"fmt"
	"math/rand/v2"
)

// Advance performs one step directly on the numeric encoding and mutates g
// in place. The heading is inferred from the two largest cells, rotated by
// the action and applied to the head; the result is clamped to the grid.
//
// done is false on an ordinary step. On a terminal step it is true and score
// holds the body length minus two; g is not touched again by a collision.
// When the snake eats the last reachable empty cell the growth is applied,
// done is true and err is ErrBoardFull.
//
// rng is only consulted when food is eaten.
func Advance(g *Grid, a Action, rng *rand.Rand) (score int, done bool, err error) {
	if !a.Valid() {
		return 0, false, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}
	if err := g.Validate(); err != nil {
		return 0, false, err
	}

	cur, prev, ok := g.TopTwo()
	if !ok {
		return 0, false, fmt.Errorf("%w: need at least two body cells", ErrCorruptGrid)
	}
	heading := cur.Sub(prev)
	if !heading.IsUnit() {
		return 0, false, fmt.Errorf("%w: head (%d,%d) and neck (%d,%d) are not adjacent",
			ErrCorruptGrid, cur.X, cur.Y, prev.X, prev.Y)
	}

	next := g.Clamp(cur.Add(Rotate(heading, a)))
	if next == cur || g.At(next) > 0 {
		return g.At(cur) - unscoredSegments, true, nil
	}

	boardFull := false
	if g.At(next) == FoodCell {
		if rng == nil {
			return 0, false, ErrNoRandomSource
		}
		empty := g.EmptyPositions()
		if len(empty) == 0 {
			boardFull = true
		} else {
			g.Set(empty[rng.IntN(len(empty))], FoodCell)
		}
	} else {
		for _, row := range g.Cells {
			for x, v := range row {
				if v > 0 {
					row[x] = v - 1
				}
			}
		}
	}

	g.Set(next, g.At(cur)+1)
	if boardFull {
		return g.At(next) - unscoredSegments, true, ErrBoardFull
	}
	return 0, false, nil
}
