// Package hybrid runs Game of Life and, every few generations, strikes the
// grid with the space-time pattern of a random elementary automaton: every
// cell the pattern marks as alive is toggled.
package hybrid

import (
	"context"
	"fmt"
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
	"github.com/san-kum/genlab/internal/gens/elementary"
	"github.com/san-kum/genlab/internal/gens/life"
	"github.com/san-kum/genlab/internal/grid"
	"github.com/san-kum/genlab/internal/surface"
)

const (
	DefaultCells       = 121
	DefaultRows        = 60
	DefaultCellSize    = 5
	DefaultGenerations = 200
	DefaultInterval    = 10
	DefaultDelayMS     = 200
	DefaultDensity     = 0.2
)

var (
	AliveStruck = colornames.Crimson
	DeadStruck  = colornames.Darkseagreen
	Alive       = colornames.Steelblue
	Dead        = colornames.Antiquewhite
)

type Config struct {
	Cells       int             `yaml:"cells"`
	Rows        int             `yaml:"rows"`
	CellSize    int             `yaml:"cell_size"`
	Generations int             `yaml:"generations"`
	Interval    int             `yaml:"interval"`
	DelayMS     int             `yaml:"delay_ms"`
	RandomInit  bool            `yaml:"random_init"`
	Density     float64         `yaml:"density"`
	LifeDensity float64         `yaml:"life_density"`
	Edges       grid.EdgePolicy `yaml:"edges"`
	Seed        int64           `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Cells:       DefaultCells,
		Rows:        DefaultRows,
		CellSize:    DefaultCellSize,
		Generations: DefaultGenerations,
		Interval:    DefaultInterval,
		DelayMS:     DefaultDelayMS,
		Density:     DefaultDensity,
		Edges:       grid.Wrapped,
	}
}

func (c Config) Validate() error {
	return gens.FirstErr(
		gens.IntRange("cells", "Cells", c.Cells, 1, gens.MaxExtent),
		gens.IntRange("rows", "Rows", c.Rows, 1, gens.MaxExtent),
		gens.IntRange("cell_size", "Cell Size", c.CellSize, 1, 50),
		gens.Extent("cell_size", "cells", c.Cells, c.CellSize, gens.MaxExtent),
		gens.Extent("cell_size", "rows", c.Rows, c.CellSize, gens.MaxExtent),
		gens.IntRange("generations", "Generations", c.Generations, 1, 10000),
		gens.IntRange("interval", "Impact Interval", c.Interval, 1, 50),
		gens.IntRange("delay_ms", "Step", c.DelayMS, 50, 5000),
		gens.Unit("density", "Population Density", c.Density),
		gens.Unit("life_density", "Life Density", c.LifeDensity),
	)
}

type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string    { return "hybrid" }
func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

// Strike toggles every cell of g that pattern marks as alive and returns
// the result as a new grid.
func Strike(g, pattern *grid.Grid[bool]) *grid.Grid[bool] {
	out := g.Clone()
	cells, marks := out.Cells(), pattern.Cells()
	for i := range cells {
		if marks[i] {
			cells[i] = !cells[i]
		}
	}
	return out
}

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	rng := gens.NewRand(gens.ResolveSeed(cfg.Seed))
	total := float64(cfg.Rows * cfg.Cells)

	var cur *grid.Grid[bool]
	return engine.Animate(ctx, out, cfg.Generations, gens.Delay(cfg.DelayMS), func(gen int) (*engine.Frame, error) {
		if cur == nil {
			cur = grid.New[bool](cfg.Rows, cfg.Cells)
			if cfg.LifeDensity > 0 {
				cur = life.Random(cfg.Rows, cfg.Cells, cfg.LifeDensity, rng)
			}
		} else {
			cur = life.Step(cur, cfg.Edges)
		}

		metrics := map[string]float64{"alive": float64(life.Population(cur)) / total}

		var pattern *grid.Grid[bool]
		if gen%cfg.Interval == 0 {
			rule := uint8(rng.IntN(256))
			first := elementary.SingleSeed(cfg.Cells)
			if cfg.RandomInit {
				first = elementary.RandomRow(cfg.Cells, cfg.Density, rng)
			}
			pattern = elementary.Pattern(elementary.NewRuleTable(rule), first, cfg.Rows, cfg.Edges)
			metrics["rule"] = float64(rule)
			metrics["struck"] = float64(life.Population(pattern)) / total
		}

		img := Render(cur, pattern, cfg.CellSize).Image()
		if pattern != nil {
			cur = Strike(cur, pattern)
		}

		return &engine.Frame{
			Image:   img,
			Seq:     gen + 1,
			Label:   fmt.Sprintf("hybrid-%04d", gen+1),
			Metrics: metrics,
		}, nil
	})
}

// Colour picks the fill for a cell from its state and whether the current
// pattern strikes it.
func Colour(alive, struck bool) color.RGBA {
	switch {
	case struck && alive:
		return AliveStruck
	case struck:
		return DeadStruck
	case alive:
		return Alive
	default:
		return Dead
	}
}

// Render draws the grid before the strike is applied. pattern may be nil.
func Render(g, pattern *grid.Grid[bool], size int) *surface.Canvas {
	c := surface.New(g.Cols*size, g.Rows*size)
	c.Fill(surface.White)
	for r := 0; r < g.Rows; r++ {
		for col := 0; col < g.Cols; col++ {
			struck := pattern != nil && pattern.At(r, col)
			c.FillDisc(col*size, r*size, size, Colour(g.At(r, col), struck))
		}
	}
	return c
}
