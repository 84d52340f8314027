package elementary

import (
	"context"
	"testing"

	"github.com/san-kum/genlab/internal/engine/enginetest"
	"github.com/san-kum/genlab/internal/grid"
	"github.com/san-kum/genlab/internal/surface"
)

func TestRuleTableRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r++ {
		if got := NewRuleTable(uint8(r)).Number(); got != uint8(r) {
			t.Fatalf("rule %d round-tripped to %d", r, got)
		}
	}
}

func TestRuleTableBits(t *testing.T) {
	// rule 30 = 00011110: neighbourhoods 1..4 are alive
	tbl := NewRuleTable(30)
	want := RuleTable{false, true, true, true, true, false, false, false}
	if tbl != want {
		t.Errorf("rule 30 decoded to %v", tbl)
	}
}

func TestNextRule90(t *testing.T) {
	tbl := NewRuleTable(90)
	row := []bool{false, false, true, false, false}

	next := tbl.Next(row, grid.Fixed)
	want := []bool{false, true, false, true, false}
	for i := range want {
		if next[i] != want[i] {
			t.Fatalf("rule 90 step = %v, want %v", next, want)
		}
	}
}

func TestNextFixedEndsStayDead(t *testing.T) {
	tbl := NewRuleTable(255)
	next := tbl.Next([]bool{true, true, true}, grid.Fixed)
	if next[0] || next[2] {
		t.Errorf("end cells updated under fixed edges: %v", next)
	}
	if !next[1] {
		t.Error("rule 255 should turn the middle cell on")
	}
}

func TestNextWrappedEnds(t *testing.T) {
	tbl := NewRuleTable(90)
	next := tbl.Next([]bool{true, false, false, false}, grid.Wrapped)
	want := []bool{false, true, false, true}
	for i := range want {
		if next[i] != want[i] {
			t.Fatalf("wrapped rule 90 = %v, want %v", next, want)
		}
	}
}

func TestPatternStacksRows(t *testing.T) {
	p := Pattern(NewRuleTable(90), SingleSeed(7), 3, grid.Fixed)
	if p.Rows != 3 || p.Cols != 7 {
		t.Fatalf("unexpected pattern size %dx%d", p.Rows, p.Cols)
	}
	if !p.At(0, 3) || !p.At(1, 2) || !p.At(1, 4) || !p.At(2, 1) || !p.At(2, 5) {
		t.Error("rule 90 triangle not reproduced")
	}
}

func TestGenerateSingleFrame(t *testing.T) {
	cfg := Config{Cells: 11, Rows: 5, CellSize: 2, Rule: 90, Edges: grid.Fixed}
	out := &enginetest.Collector{}

	if err := New(cfg).Generate(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	if len(out.Frames()) != 0 {
		t.Error("single image generators should not publish intermediate frames")
	}
	img := out.Last().Image
	if img.Bounds().Dx() != 22 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if img.RGBAAt(10, 0) != surface.Black {
		t.Error("seed cell not drawn")
	}
}

func TestValidateExtents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.CellSize = 900, 5
	if cfg.Validate() == nil {
		t.Error("expected rows x size > 4000 to fail")
	}
	cfg = DefaultConfig()
	cfg.Rule = 256
	if cfg.Validate() == nil {
		t.Error("expected rule 256 to fail")
	}
}
