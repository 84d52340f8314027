// Package grid provides the fixed-size cell lattice shared by the automata.
//
// Grids are never mutated across generations: [Next] reads the previous
// grid and returns a brand new one, so neighbour lookups always observe an
// unmodified previous generation.
package grid

import (
	"fmt"
	"strings"
)

type EdgePolicy int

const (
	// Fixed excludes border cells from updates and never wraps neighbour reads.
	Fixed EdgePolicy = iota
	// Wrapped indexes neighbours modulo the grid size (torus).
	Wrapped
)

func (e EdgePolicy) String() string {
	switch e {
	case Fixed:
		return "fixed"
	case Wrapped:
		return "wrapped"
	default:
		return fmt.Sprintf("EdgePolicy(%d)", int(e))
	}
}

func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return Fixed, nil
	case "wrapped", "wrap", "torus":
		return Wrapped, nil
	default:
		return Fixed, fmt.Errorf("unknown edge policy: %s", s)
	}
}

func (e EdgePolicy) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EdgePolicy) UnmarshalText(b []byte) error {
	p, err := ParseEdgePolicy(string(b))
	if err != nil {
		return err
	}
	*e = p
	return nil
}

// Grid is a row-major rows×cols lattice.
type Grid[T any] struct {
	Rows, Cols int
	cells      []T
}

func New[T any](rows, cols int) *Grid[T] {
	return &Grid[T]{Rows: rows, Cols: cols, cells: make([]T, rows*cols)}
}

// FromRows copies a rectangular slice of rows into a new grid.
func FromRows[T any](rows [][]T) (*Grid[T], error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("grid: no rows")
	}
	g := New[T](len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != g.Cols {
			return nil, fmt.Errorf("grid: row %d has %d cells, want %d", r, len(row), g.Cols)
		}
		copy(g.cells[r*g.Cols:], row)
	}
	return g, nil
}

func (g *Grid[T]) At(r, c int) T     { return g.cells[r*g.Cols+c] }
func (g *Grid[T]) Set(r, c int, v T) { g.cells[r*g.Cols+c] = v }
func (g *Grid[T]) Cells() []T        { return g.cells }

func (g *Grid[T]) Row(r int) []T {
	return g.cells[r*g.Cols : (r+1)*g.Cols]
}

func (g *Grid[T]) InBounds(r, c int) bool {
	return r >= 0 && r < g.Rows && c >= 0 && c < g.Cols
}

// Wrap maps any coordinate onto the torus.
func (g *Grid[T]) Wrap(r, c int) (int, int) {
	r %= g.Rows
	if r < 0 {
		r += g.Rows
	}
	c %= g.Cols
	if c < 0 {
		c += g.Cols
	}
	return r, c
}

func (g *Grid[T]) Clone() *Grid[T] {
	out := New[T](g.Rows, g.Cols)
	copy(out.cells, g.cells)
	return out
}

func (g *Grid[T]) Fill(fn func(r, c int) T) {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			g.cells[r*g.Cols+c] = fn(r, c)
		}
	}
}

func Equal[T comparable](a, b *Grid[T]) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	for i := range a.cells {
		if a.cells[i] != b.cells[i] {
			return false
		}
	}
	return true
}

// Rule computes the next value of cell (r, c) from the previous generation.
type Rule[T any] func(prev *Grid[T], r, c int) T

// Next builds the following generation. Under Fixed edges the border is
// left at the zero value; under Wrapped every cell is updated.
func Next[T any](prev *Grid[T], edges EdgePolicy, rule Rule[T]) *Grid[T] {
	next := New[T](prev.Rows, prev.Cols)

	lo, rowHi, colHi := 0, prev.Rows, prev.Cols
	if edges == Fixed {
		lo, rowHi, colHi = 1, prev.Rows-1, prev.Cols-1
	}
	if rowHi <= lo || colHi <= lo {
		return next
	}

	ParallelFor(rowHi-lo, minRowsPerWorker, func(start, end int) {
		for r := lo + start; r < lo+end; r++ {
			for c := lo; c < colHi; c++ {
				next.cells[r*next.Cols+c] = rule(prev, r, c)
			}
		}
	})
	return next
}
