// Package cyclic implements the state-cycling automaton: a cell advances to
// the next state when one of its four orthogonal neighbours already holds it.
package cyclic

import (
	"context"
	"fmt"
	"image/color"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
	"github.com/san-kum/genlab/internal/grid"
	"github.com/san-kum/genlab/internal/surface"
)

const (
	DefaultCells       = 120
	DefaultCellSize    = 5
	DefaultStates      = 15
	DefaultGenerations = 500
	DefaultDelayMS     = 50
)

type Config struct {
	Cells       int   `yaml:"cells"`
	CellSize    int   `yaml:"cell_size"`
	States      int   `yaml:"states"`
	Generations int   `yaml:"generations"`
	DelayMS     int   `yaml:"delay_ms"`
	Seed        int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Cells:       DefaultCells,
		CellSize:    DefaultCellSize,
		States:      DefaultStates,
		Generations: DefaultGenerations,
		DelayMS:     DefaultDelayMS,
	}
}

func (c Config) Validate() error {
	return gens.FirstErr(
		gens.IntRange("cells", "Cells", c.Cells, 1, gens.MaxExtent),
		gens.IntRange("cell_size", "Cell Size", c.CellSize, 1, 50),
		gens.Extent("cell_size", "cells", c.Cells, c.CellSize, gens.MaxExtent),
		gens.IntRange("states", "States", c.States, 1, 20),
		gens.IntRange("generations", "Generations", c.Generations, 1, 10000),
		gens.IntRange("delay_ms", "Step", c.DelayMS, 50, 5000),
	)
}

type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string    { return "cyclic" }
func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

// Step advances every cell whose orthogonal neighbours hold its successor
// state. Rows wrap vertically; columns never wrap.
func Step(prev *grid.Grid[int], states int) *grid.Grid[int] {
	return grid.Next(prev, grid.Wrapped, func(g *grid.Grid[int], r, c int) int {
		cur := g.At(r, c)
		target := (cur + 1) % states

		up, _ := g.Wrap(r-1, c)
		down, _ := g.Wrap(r+1, c)
		if g.At(up, c) == target || g.At(down, c) == target {
			return target
		}
		if c > 0 && g.At(r, c-1) == target {
			return target
		}
		if c < g.Cols-1 && g.At(r, c+1) == target {
			return target
		}
		return cur
	})
}

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	rng := gens.NewRand(gens.ResolveSeed(cfg.Seed))
	palette := gens.RandomPalette(rng, cfg.States)

	var cur *grid.Grid[int]
	return engine.Animate(ctx, out, cfg.Generations, gens.Delay(cfg.DelayMS), func(gen int) (*engine.Frame, error) {
		var changed int
		if cur == nil {
			cur = grid.New[int](cfg.Cells, cfg.Cells)
			cur.Fill(func(int, int) int { return rng.IntN(cfg.States) })
		} else {
			next := Step(cur, cfg.States)
			changed = diff(cur, next)
			cur = next
		}

		return &engine.Frame{
			Image: Render(cur, cfg.CellSize, palette).Image(),
			Seq:   gen + 1,
			Label: fmt.Sprintf("cyclic-%04d", gen+1),
			Metrics: map[string]float64{
				"changed": float64(changed) / float64(cfg.Cells*cfg.Cells),
			},
		}, nil
	})
}

// Render draws each cell as a disc coloured by its state on white.
func Render(g *grid.Grid[int], size int, palette []color.RGBA) *surface.Canvas {
	c := surface.New(g.Cols*size, g.Rows*size)
	c.Fill(surface.White)
	for r := 0; r < g.Rows; r++ {
		for col := 0; col < g.Cols; col++ {
			c.FillDisc(col*size, r*size, size, palette[g.At(r, col)])
		}
	}
	return c
}

func diff(a, b *grid.Grid[int]) int {
	n := 0
	ac, bc := a.Cells(), b.Cells()
	for i := range ac {
		if ac[i] != bc[i] {
			n++
		}
	}
	return n
}
