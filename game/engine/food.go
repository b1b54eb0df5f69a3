package engine

import "math/rand/v2"

// freeCells indexes the empty cells of a width x height board so that a
// uniformly random empty cell can be picked, added or removed in O(1).
// Cells are identified by their row-major index.
type freeCells struct {
	width int
	cells []int // dense list of free cell indexes
	slot  []int // slot[i] is the position of cell i in cells, or -1
}

func newFreeCells(width, height int) *freeCells {
	n := width * height
	f := &freeCells{
		width: width,
		cells: make([]int, n),
		slot:  make([]int, n),
	}
	for i := 0; i < n; i++ {
		f.cells[i] = i
		f.slot[i] = i
	}
	return f
}

func (f *freeCells) index(p Position) int {
	return p.Y*f.width + p.X
}

func (f *freeCells) position(i int) Position {
	return Position{X: i % f.width, Y: i / f.width}
}

func (f *freeCells) Len() int {
	return len(f.cells)
}

func (f *freeCells) Contains(p Position) bool {
	return f.slot[f.index(p)] >= 0
}

// Remove marks p as occupied.
func (f *freeCells) Remove(p Position) {
	i := f.index(p)
	s := f.slot[i]
	if s < 0 {
		return
	}
	last := len(f.cells) - 1
	moved := f.cells[last]
	f.cells[s] = moved
	f.slot[moved] = s
	f.cells = f.cells[:last]
	f.slot[i] = -1
}

// Add marks p as free.
func (f *freeCells) Add(p Position) {
	i := f.index(p)
	if f.slot[i] >= 0 {
		return
	}
	f.slot[i] = len(f.cells)
	f.cells = append(f.cells, i)
}

// Pick returns a uniformly random free cell without removing it.
func (f *freeCells) Pick(rng *rand.Rand) (Position, bool) {
	if len(f.cells) == 0 {
		return Position{}, false
	}
	return f.position(f.cells[rng.IntN(len(f.cells))]), true
}
