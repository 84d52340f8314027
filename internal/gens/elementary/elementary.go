// Package elementary implements one-dimensional two-state automata addressed
// by their rule number (Wolfram code).
package elementary

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
	"github.com/san-kum/genlab/internal/grid"
	"github.com/san-kum/genlab/internal/surface"
)

// RuleTable maps a 3-bit neighbourhood code (left<<2 | centre<<1 | right)
// to the next state of the centre cell.
type RuleTable [8]bool

func NewRuleTable(rule uint8) RuleTable {
	var t RuleTable
	for i := range t {
		t[i] = (rule>>i)&1 == 1
	}
	return t
}

// Number recomposes the rule number from the table.
func (t RuleTable) Number() uint8 {
	var n uint8
	for i, on := range t {
		if on {
			n |= 1 << i
		}
	}
	return n
}

func code(l, c, r bool) int {
	idx := 0
	if l {
		idx |= 4
	}
	if c {
		idx |= 2
	}
	if r {
		idx |= 1
	}
	return idx
}

// Next computes the row that follows cur. Under Fixed edges both end cells
// stay dead.
func (t RuleTable) Next(cur []bool, edges grid.EdgePolicy) []bool {
	n := len(cur)
	next := make([]bool, n)
	if n == 0 {
		return next
	}

	for i := 1; i < n-1; i++ {
		next[i] = t[code(cur[i-1], cur[i], cur[i+1])]
	}
	if edges == grid.Wrapped {
		next[0] = t[code(cur[n-1], cur[0], cur[1%n])]
		if n > 1 {
			next[n-1] = t[code(cur[n-2], cur[n-1], cur[0])]
		}
	}
	return next
}

// SingleSeed returns a row with only the middle cell alive.
func SingleSeed(n int) []bool {
	row := make([]bool, n)
	if n > 0 {
		row[n/2] = true
	}
	return row
}

func RandomRow(n int, density float64, rng *rand.Rand) []bool {
	row := make([]bool, n)
	for i := range row {
		row[i] = rng.Float64() <= density
	}
	return row
}

// Pattern iterates the rule from first for rows rows, one row per
// generation, and returns them stacked top to bottom.
func Pattern(t RuleTable, first []bool, rows int, edges grid.EdgePolicy) *grid.Grid[bool] {
	g := grid.New[bool](rows, len(first))
	if rows == 0 {
		return g
	}
	cur := first
	copy(g.Row(0), cur)
	for r := 1; r < rows; r++ {
		cur = t.Next(cur, edges)
		copy(g.Row(r), cur)
	}
	return g
}

const (
	MaxCells = 8001
	MaxRows  = 4000

	DefaultCells    = 801
	DefaultRows     = 400
	DefaultCellSize = 1
	DefaultRule     = 30
	DefaultDensity  = 0.5
)

type Config struct {
	Cells      int             `yaml:"cells"`
	Rows       int             `yaml:"rows"`
	CellSize   int             `yaml:"cell_size"`
	Rule       int             `yaml:"rule"`
	RandomInit bool            `yaml:"random_init"`
	Density    float64         `yaml:"density"`
	Edges      grid.EdgePolicy `yaml:"edges"`
	Seed       int64           `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Cells:    DefaultCells,
		Rows:     DefaultRows,
		CellSize: DefaultCellSize,
		Rule:     DefaultRule,
		Density:  DefaultDensity,
		Edges:    grid.Wrapped,
	}
}

func (c Config) Validate() error {
	return gens.FirstErr(
		gens.IntRange("cells", "Cells", c.Cells, 1, MaxCells),
		gens.IntRange("rows", "Rows", c.Rows, 1, MaxRows),
		gens.IntRange("cell_size", "Cell Size", c.CellSize, 1, 50),
		gens.Extent("cell_size", "cells", c.Cells, c.CellSize, MaxCells),
		gens.Extent("cell_size", "rows", c.Rows, c.CellSize, MaxRows),
		gens.IntRange("rule", "Rule", c.Rule, 0, 255),
		gens.Unit("density", "Population Density", c.Density),
	)
}

// Generator draws the whole space-time diagram of one rule as a single image.
type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string    { return "elementary" }
func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	out.Report("Calculating image...")

	first := SingleSeed(cfg.Cells)
	if cfg.RandomInit {
		first = RandomRow(cfg.Cells, cfg.Density, gens.NewRand(gens.ResolveSeed(cfg.Seed)))
	}
	pattern := Pattern(NewRuleTable(uint8(cfg.Rule)), first, cfg.Rows, cfg.Edges)
	if ctx.Err() != nil {
		return nil
	}

	c := surface.New(cfg.Cells*cfg.CellSize, cfg.Rows*cfg.CellSize)
	c.Fill(surface.White)
	for r := 0; r < pattern.Rows; r++ {
		for col := 0; col < pattern.Cols; col++ {
			if pattern.At(r, col) {
				c.FillRect(col*cfg.CellSize, r*cfg.CellSize, cfg.CellSize, cfg.CellSize, surface.Black)
			}
		}
	}

	out.Finish(&engine.Frame{
		Image: c.Image(),
		Seq:   1,
		Label: fmt.Sprintf("rule%d", cfg.Rule),
	})
	return nil
}
