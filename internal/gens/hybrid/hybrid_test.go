package hybrid

import (
	"context"
	"image/color"
	"testing"

	"github.com/san-kum/genlab/internal/engine/enginetest"
	"github.com/san-kum/genlab/internal/grid"
)

func TestStrikeTogglesMarkedCells(t *testing.T) {
	g, _ := grid.FromRows([][]bool{{true, false}, {true, false}})
	p, _ := grid.FromRows([][]bool{{true, true}, {false, false}})

	out := Strike(g, p)
	want, _ := grid.FromRows([][]bool{{false, true}, {true, false}})
	if !grid.Equal(out, want) {
		t.Errorf("unexpected strike result")
	}
	if !g.At(0, 0) {
		t.Error("strike mutated its input")
	}
}

func TestColourCategories(t *testing.T) {
	tests := []struct {
		alive, struck bool
		want          color.RGBA
	}{
		{true, true, AliveStruck},
		{false, true, DeadStruck},
		{true, false, Alive},
		{false, false, Dead},
	}
	for _, tt := range tests {
		if got := Colour(tt.alive, tt.struck); got != tt.want {
			t.Errorf("Colour(%v,%v) = %v, want %v", tt.alive, tt.struck, got, tt.want)
		}
	}
}

func TestFirstGenerationIsStruck(t *testing.T) {
	cfg := Config{Cells: 9, Rows: 4, CellSize: 1, Generations: 3, Interval: 2, Edges: grid.Wrapped, Seed: 5}
	out := &enginetest.Collector{}

	if err := New(cfg).Generate(context.Background(), out); err != nil {
		t.Fatal(err)
	}

	frames := out.Frames()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}

	first := frames[0]
	if _, ok := first.Metrics["rule"]; !ok {
		t.Error("generation 1 should carry a strike")
	}
	if first.Metrics["alive"] != 0 {
		t.Error("life grid should start empty")
	}
	// single seed in the middle of the top row, drawn dead-and-struck
	if got := first.Image.RGBAAt(4, 0); got != DeadStruck {
		t.Errorf("seed cell colour = %v, want %v", got, DeadStruck)
	}
	if _, ok := frames[1].Metrics["rule"]; ok {
		t.Error("generation 2 should not be struck with interval 2")
	}
	if _, ok := frames[2].Metrics["rule"]; !ok {
		t.Error("generation 3 should be struck with interval 2")
	}
}

func TestValidateRowExtent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.CellSize = 801, 5
	if cfg.Validate() == nil {
		t.Error("expected rows x size > 4000 to fail")
	}
	cfg = DefaultConfig()
	cfg.Interval = 51
	if cfg.Validate() == nil {
		t.Error("expected interval 51 to fail")
	}
}
