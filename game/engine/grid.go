package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Grid is the numeric board. Cells[y][x] holds EmptyCell, FoodCell or a
// body value; see the package documentation for the encoding.
type Grid struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Cells  [][]int `json:"cells"`
}

// NewGrid creates a zero-filled width x height grid.
func NewGrid(width, height int) *Grid {
	cells := make([][]int, height)
	for y := range cells {
		cells[y] = make([]int, width)
	}
	return &Grid{Width: width, Height: height, Cells: cells}
}

// SeedGrid creates a grid holding the initial snake in row 0: values
// 1..seedLength from the left edge, followed by a food cell when withFood
// is set. The head is the rightmost body cell, heading right.
func SeedGrid(width, height, seedLength int, withFood bool) (*Grid, error) {
	if width < MinGridSize || height < MinGridSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrGridTooSmall, width, height)
	}
	need := seedLength
	if withFood {
		need++
	}
	if seedLength < MinSeedLength || need > width {
		return nil, fmt.Errorf("%w: seed of %d cells (food=%t) does not fit a row of %d",
			ErrGridTooSmall, seedLength, withFood, width)
	}

	g := NewGrid(width, height)
	for x := 0; x < seedLength; x++ {
		g.Cells[0][x] = x + 1
	}
	if withFood {
		g.Cells[0][seedLength] = FoodCell
	}
	return g, nil
}

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Clamp pulls p back onto the grid.
func (g *Grid) Clamp(p Position) Position {
	return Position{X: clamp(p.X, 0, g.Width-1), Y: clamp(p.Y, 0, g.Height-1)}
}

// At returns the value at p. p must be in bounds.
func (g *Grid) At(p Position) int {
	return g.Cells[p.Y][p.X]
}

// Set stores v at p. p must be in bounds.
func (g *Grid) Set(p Position, v int) {
	g.Cells[p.Y][p.X] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.Width, g.Height)
	for y := range g.Cells {
		copy(c.Cells[y], g.Cells[y])
	}
	return c
}

// Equal reports whether both grids have the same shape and values.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for y := range g.Cells {
		for x := range g.Cells[y] {
			if g.Cells[y][x] != o.Cells[y][x] {
				return false
			}
		}
	}
	return true
}

// Validate checks the shape of a decoded grid.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrCorruptGrid)
	}
	if g.Width < MinGridSize || g.Height < MinGridSize {
		return fmt.Errorf("%w: %dx%d", ErrGridTooSmall, g.Width, g.Height)
	}
	if len(g.Cells) != g.Height {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrCorruptGrid, g.Height, len(g.Cells))
	}
	for y, row := range g.Cells {
		if len(row) != g.Width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrCorruptGrid, y, len(row), g.Width)
		}
	}
	return nil
}

// CountBody returns the number of body cells.
func (g *Grid) CountBody() int {
	n := 0
	for _, row := range g.Cells {
		for _, v := range row {
			if v > 0 {
				n++
			}
		}
	}
	return n
}

// FoodPositions returns every food cell in row-major order.
func (g *Grid) FoodPositions() []Position {
	var food []Position
	for y, row := range g.Cells {
		for x, v := range row {
			if v == FoodCell {
				food = append(food, Position{X: x, Y: y})
			}
		}
	}
	return food
}

// EmptyPositions returns every empty cell in row-major order.
func (g *Grid) EmptyPositions() []Position {
	var empty []Position
	for y, row := range g.Cells {
		for x, v := range row {
			if v == EmptyCell {
				empty = append(empty, Position{X: x, Y: y})
			}
		}
	}
	return empty
}

// TopTwo returns the positions of the largest and second largest cells.
// Cells are scanned in row-major order and a later cell only displaces an
// earlier one when it is strictly larger, so on equal values the earlier
// cell ranks first.
func (g *Grid) TopTwo() (first, second Position, ok bool) {
	firstVal, secondVal := 0, 0
	found := 0
	for y, row := range g.Cells {
		for x, v := range row {
			p := Position{X: x, Y: y}
			switch {
			case found == 0 || v > firstVal:
				if found > 0 {
					second, secondVal = first, firstVal
				}
				first, firstVal = p, v
				found++
			case found == 1 || v > secondVal:
				second, secondVal = p, v
				found++
			}
		}
	}
	return first, second, found >= 2 && firstVal > 0 && secondVal > 0
}

// DecodeSnake recovers the body (tail first) and heading from the numeric
// encoding. The body values must be exactly 1..n and each segment must be
// axis-adjacent to the next.
func (g *Grid) DecodeSnake() ([]Position, Direction, error) {
	if err := g.Validate(); err != nil {
		return nil, Direction{}, err
	}

	type segment struct {
		pos Position
		val int
	}
	var segs []segment
	for y, row := range g.Cells {
		for x, v := range row {
			if v > 0 {
				segs = append(segs, segment{Position{X: x, Y: y}, v})
			}
		}
	}
	if len(segs) < MinSeedLength {
		return nil, Direction{}, fmt.Errorf("%w: body has %d cells", ErrCorruptGrid, len(segs))
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].val < segs[j].val })

	body := make([]Position, len(segs))
	for i, s := range segs {
		if s.val != i+1 {
			return nil, Direction{}, fmt.Errorf("%w: expected body value %d, found %d at (%d,%d)",
				ErrCorruptGrid, i+1, s.val, s.pos.X, s.pos.Y)
		}
		if i > 0 && !s.pos.Sub(body[i-1]).IsUnit() {
			return nil, Direction{}, fmt.Errorf("%w: segment %d at (%d,%d) is not adjacent to (%d,%d)",
				ErrCorruptGrid, s.val, s.pos.X, s.pos.Y, body[i-1].X, body[i-1].Y)
		}
		body[i] = s.pos
	}

	head, neck := body[len(body)-1], body[len(body)-2]
	return body, head.Sub(neck), nil
}

// String renders the grid as text, one row per line: '.' empty, '*' food,
// 'o' body and '@' head.
func (g *Grid) String() string {
	head, _, hasHead := g.TopTwo()
	var b strings.Builder
	for y, row := range g.Cells {
		for x, v := range row {
			switch {
			case hasHead && head == (Position{X: x, Y: y}):
				b.WriteByte('@')
			case v > 0:
				b.WriteByte('o')
			case v == FoodCell:
				b.WriteByte('*')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
