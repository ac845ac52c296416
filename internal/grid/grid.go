package grid

import (
	"errors"
	"fmt"
	"slices"
)

// ErrBadDimensions is returned when a grid is requested with a non-positive
// width or height.
var ErrBadDimensions = errors.New("grid: dimensions must be positive")

// Pos is a cell coordinate.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is a toroidal 2D grid where each cell holds zero or more occupants.
// Occupants keep the order in which they entered a cell.
type Grid[T comparable] struct {
	w, h  int
	cells [][]T
	where map[T]Pos
}

// New allocates an empty grid.
func New[T comparable](w, h int) (*Grid[T], error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, w, h)
	}
	return &Grid[T]{
		w:     w,
		h:     h,
		cells: make([][]T, w*h),
		where: make(map[T]Pos),
	}, nil
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.h }

// Len returns how many occupants are placed.
func (g *Grid[T]) Len() int { return len(g.where) }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid[T]) Wrap(x, y int) Pos {
	x = (x%g.w + g.w) % g.w
	y = (y%g.h + g.h) % g.h
	return Pos{X: x, Y: y}
}

func (g *Grid[T]) index(p Pos) int { return p.Y*g.w + p.X }

// Place puts v on the grid. Placing an occupant that is already on the grid
// moves it.
func (g *Grid[T]) Place(v T, p Pos) {
	if _, ok := g.where[v]; ok {
		g.Move(v, p)
		return
	}
	p = g.Wrap(p.X, p.Y)
	i := g.index(p)
	g.cells[i] = append(g.cells[i], v)
	g.where[v] = p
}

// Move relocates v to p. It is a no-op for occupants that were never placed.
func (g *Grid[T]) Move(v T, p Pos) {
	old, ok := g.where[v]
	if !ok {
		return
	}
	p = g.Wrap(p.X, p.Y)
	if old == p {
		return
	}
	oi := g.index(old)
	if k := slices.Index(g.cells[oi], v); k >= 0 {
		g.cells[oi] = slices.Delete(g.cells[oi], k, k+1)
	}
	ni := g.index(p)
	g.cells[ni] = append(g.cells[ni], v)
	g.where[v] = p
}

// PosOf reports where v is placed.
func (g *Grid[T]) PosOf(v T) (Pos, bool) {
	p, ok := g.where[v]
	return p, ok
}

// At returns the occupants of the cell at p. The returned slice must not be
// modified.
func (g *Grid[T]) At(p Pos) []T {
	p = g.Wrap(p.X, p.Y)
	return g.cells[g.index(p)]
}

// Neighbors returns the occupants of every cell within Chebyshev distance
// radius of p. Cells reached twice through wraparound on small grids are
// visited once. Iteration order is row by row from the top-left offset, then
// occupant order within each cell.
func (g *Grid[T]) Neighbors(p Pos, radius int, includeCenter bool) []T {
	if radius < 0 {
		return nil
	}
	p = g.Wrap(p.X, p.Y)
	center := g.index(p)
	// Past one full lap every offset revisits a cell already seen, so each
	// axis stops after its first w (or h) offsets.
	spanX, spanY := g.span(radius, g.w), g.span(radius, g.h)
	seen := make(map[int]struct{}, spanX*spanY)
	var out []T
	for dy := -radius; dy < -radius+spanY; dy++ {
		for dx := -radius; dx < -radius+spanX; dx++ {
			i := g.index(g.Wrap(p.X+dx, p.Y+dy))
			if i == center && !includeCenter {
				continue
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, g.cells[i]...)
		}
	}
	return out
}

func (g *Grid[T]) span(radius, size int) int {
	if radius >= size {
		return size
	}
	return min(2*radius+1, size)
}

// Cells calls fn for every non-empty cell in row-major order.
func (g *Grid[T]) Cells(fn func(p Pos, occupants []T)) {
	for i, occ := range g.cells {
		if len(occ) == 0 {
			continue
		}
		fn(Pos{X: i % g.w, Y: i / g.w}, occ)
	}
}
