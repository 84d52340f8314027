// Package life implements Conway's Game of Life on a square grid with
// selectable edge handling and an optional hand-drawn seed.
package life

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
	"github.com/san-kum/genlab/internal/grid"
	"github.com/san-kum/genlab/internal/surface"
)

const (
	DefaultCells       = 400
	DefaultCellSize    = 1
	DefaultGenerations = 20
	DefaultDelayMS     = 500
	DefaultDensity     = 0.2
)

type Config struct {
	Cells       int             `yaml:"cells"`
	CellSize    int             `yaml:"cell_size"`
	Generations int             `yaml:"generations"`
	DelayMS     int             `yaml:"delay_ms"`
	Density     float64         `yaml:"density"`
	Edges       grid.EdgePolicy `yaml:"edges"`
	Seed        int64           `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Cells:       DefaultCells,
		CellSize:    DefaultCellSize,
		Generations: DefaultGenerations,
		DelayMS:     DefaultDelayMS,
		Density:     DefaultDensity,
		Edges:       grid.Fixed,
	}
}

func (c Config) Validate() error {
	return gens.FirstErr(
		gens.IntRange("cells", "Cells", c.Cells, 1, gens.MaxExtent),
		gens.IntRange("cell_size", "Cell Size", c.CellSize, 1, 50),
		gens.Extent("cell_size", "cells", c.Cells, c.CellSize, gens.MaxExtent),
		gens.IntRange("generations", "Generations", c.Generations, 1, 10000),
		gens.IntRange("delay_ms", "Step", c.DelayMS, 50, 5000),
		gens.Unit("density", "Population Density", c.Density),
	)
}

// Alive applies the B3/S23 rule to the cell at (r, c).
func Alive(g *grid.Grid[bool], edges grid.EdgePolicy, r, c int) bool {
	n := Neighbours(g, edges, r, c)
	if g.At(r, c) {
		return n == 2 || n == 3
	}
	return n == 3
}

// Neighbours counts live cells among the eight around (r, c). Under Fixed
// edges cells outside the grid count as dead.
func Neighbours(g *grid.Grid[bool], edges grid.EdgePolicy, r, c int) int {
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			rr, cc := r+dr, c+dc
			if edges == grid.Wrapped {
				rr, cc = g.Wrap(rr, cc)
			} else if !g.InBounds(rr, cc) {
				continue
			}
			if g.At(rr, cc) {
				n++
			}
		}
	}
	return n
}

// Step returns the next generation. Under Fixed edges the border stays dead.
func Step(prev *grid.Grid[bool], edges grid.EdgePolicy) *grid.Grid[bool] {
	return grid.Next(prev, edges, func(g *grid.Grid[bool], r, c int) bool {
		return Alive(g, edges, r, c)
	})
}

func Random(rows, cols int, density float64, rng interface{ Float64() float64 }) *grid.Grid[bool] {
	g := grid.New[bool](rows, cols)
	g.Fill(func(int, int) bool { return rng.Float64() <= density })
	return g
}

func Population(g *grid.Grid[bool]) int {
	n := 0
	for _, v := range g.Cells() {
		if v {
			n++
		}
	}
	return n
}

type Generator struct {
	cfg Config

	mu   sync.Mutex
	seed *grid.Grid[bool]
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string    { return "life" }
func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

// SetSeed supplies the first generation of the next run only. Later runs
// fall back to a random start.
func (g *Generator) SetSeed(seed *grid.Grid[bool]) error {
	if seed != nil && (seed.Rows != g.cfg.Cells || seed.Cols != g.cfg.Cells) {
		return engine.Invalid("seed", fmt.Sprintf("Seed must be %dx%d cells.", g.cfg.Cells, g.cfg.Cells))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seed = seed
	return nil
}

func (g *Generator) takeSeed() *grid.Grid[bool] {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.seed
	g.seed = nil
	return s
}

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	rng := gens.NewRand(gens.ResolveSeed(cfg.Seed))
	manual := g.takeSeed()
	total := float64(cfg.Cells * cfg.Cells)

	var cur *grid.Grid[bool]
	return engine.Animate(ctx, out, cfg.Generations, gens.Delay(cfg.DelayMS), func(gen int) (*engine.Frame, error) {
		switch {
		case cur != nil:
			cur = Step(cur, cfg.Edges)
		case manual != nil:
			cur = manual.Clone()
		default:
			cur = Random(cfg.Cells, cfg.Cells, cfg.Density, rng)
		}

		return &engine.Frame{
			Image:   Render(cur, cfg.CellSize).Image(),
			Seq:     gen + 1,
			Label:   fmt.Sprintf("life-%04d", gen+1),
			Metrics: map[string]float64{"alive": float64(Population(cur)) / total},
		}, nil
	})
}

// Render paints live cells black on white.
func Render(g *grid.Grid[bool], size int) *surface.Canvas {
	c := surface.New(g.Cols*size, g.Rows*size)
	c.Fill(surface.White)
	for r := 0; r < g.Rows; r++ {
		for col := 0; col < g.Cols; col++ {
			if g.At(r, col) {
				c.FillRect(col*size, r*size, size, size, surface.Black)
			}
		}
	}
	return c
}
