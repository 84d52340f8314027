package rft

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/engine/enginetest"
)

func TestPoolStaysInUnitInterval(t *testing.T) {
	samples := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	for _, f := range NewPool(true, 1).Funcs() {
		args := make([]float64, f.Arity)
		for _, a := range samples {
			for _, b := range samples {
				for i := range args {
					if i%2 == 0 {
						args[i] = a
					} else {
						args[i] = b
					}
				}
				v := f.F(args)
				if math.IsNaN(v) || v < 0 || v > 1 {
					t.Fatalf("%s%v = %v, outside [0,1]", f.Name, args, v)
				}
			}
		}
	}
}

func TestBasicPoolArity(t *testing.T) {
	for _, f := range NewPool(false, 1).Funcs() {
		if f.Arity < 1 || f.Arity > 2 {
			t.Errorf("%s has arity %d in the basic pool", f.Name, f.Arity)
		}
	}
}

func TestBuildTreeShape(t *testing.T) {
	var check func(n *Node, depth int)
	check = func(n *Node, depth int) {
		if depth == 0 {
			if len(n.Children) != 0 {
				t.Fatalf("leaf %s has children", n.Fn.Name)
			}
			if n.Fn.Arity > 2 {
				t.Fatalf("leaf %s has arity %d", n.Fn.Name, n.Fn.Arity)
			}
			return
		}
		if len(n.Children) != n.Fn.Arity {
			t.Fatalf("%s has %d children, want %d", n.Fn.Name, len(n.Children), n.Fn.Arity)
		}
		for _, c := range n.Children {
			check(c, depth-1)
		}
	}

	for seed := int64(0); seed < 20; seed++ {
		p := NewPool(true, seed)
		tree := BuildTree(p, 4)
		check(tree, 4)
		if tree.Depth() != 4 {
			t.Errorf("seed %d: depth %d, want 4", seed, tree.Depth())
		}
	}
}

func TestSameSeedSameTree(t *testing.T) {
	g := New(DefaultConfig())
	a := g.Tree(42, 5).String()
	b := g.Tree(42, 5).String()
	if a != b {
		t.Errorf("trees differ:\n%s\n%s", a, b)
	}
	if c := g.Tree(43, 5).String(); c == a {
		t.Log("seeds 42 and 43 drew the same tree")
	}
}

func TestEvalLeafUsesCoordinates(t *testing.T) {
	diff := &Node{Fn: basic[5]}
	if got := diff.Eval(0.75, 0.25); got != 0.5 {
		t.Errorf("|x-y| at (0.75, 0.25) = %v, want 0.5", got)
	}

	sq := &Node{Fn: basic[4], Children: []*Node{{Fn: basic[5]}, {Fn: basic[5]}}}
	if got := sq.Eval(0.75, 0.25); got != 0.25 {
		t.Errorf("mul(|x-y|, |x-y|) = %v, want 0.25", got)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 40, 30

	run := func() *engine.Frame {
		out := &enginetest.Collector{}
		if err := New(cfg).Generate(context.Background(), out); err != nil {
			t.Fatal(err)
		}
		return out.Last()
	}

	a, b := run(), run()
	if a == nil || b == nil {
		t.Fatal("no frame")
	}
	if string(a.Image.Pix) != string(b.Image.Pix) {
		t.Error("same seed, depth and hue produced different pixels")
	}
	if a.Label != "depth3seed105hue50" {
		t.Errorf("label = %q", a.Label)
	}
}

func TestHueChangesColourNotField(t *testing.T) {
	g := New(DefaultConfig())
	tree := g.Tree(105, 3)
	f1 := Evaluate(tree, 30, 30)
	f2 := Evaluate(g.Tree(105, 3), 30, 30)

	for i := range f1.V {
		if f1.V[i] != f2.V[i] {
			t.Fatalf("field differs at %d", i)
		}
	}

	a, b := f1.Image(50), f1.Image(200)
	same := true
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			same = false
			break
		}
	}
	if same && f1.Mean() > 0 {
		t.Error("changing the hue did not change any pixel")
	}
}

func TestColour(t *testing.T) {
	if got := Colour(0, 50); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Colour(0) = %v, want black", got)
	}
	// v = 1 wraps the hue back to the offset: 360+0 is pure red.
	if got := Colour(1, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Colour(1, 0) = %v, want red", got)
	}
	if got := Colour(1, 120); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Colour(1, 120) = %v, want green", got)
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 10, 10
	out := &enginetest.Collector{}
	if err := New(cfg).Generate(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	st := out.Statuses()
	if len(st) != 10 {
		t.Fatalf("got %d statuses, want 10", len(st))
	}
	if st[0] != "Calculating Randomized Function Tree Image 0 %" {
		t.Errorf("first status = %q", st[0])
	}
	if st[9] != "Calculating Randomized Function Tree Image 90 %" {
		t.Errorf("last status = %q", st[9])
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &enginetest.Collector{}
	if err := New(DefaultConfig()).Generate(ctx, out); err != nil {
		t.Fatal(err)
	}
	if out.Last() != nil {
		t.Error("cancelled run produced a frame")
	}
}

type memExporter struct {
	mu    sync.Mutex
	names []string
	fail  error
}

func (m *memExporter) Export(f *engine.Frame, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.names = append(m.names, name)
	return nil
}

func TestBatchExportsEveryImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 12, 12
	cfg.Batch = true
	cfg.Count = 4
	cfg.MinDepth, cfg.MaxDepth = 2, 2
	cfg.BatchSeed = 9

	exp := &memExporter{}
	out := &enginetest.Collector{}
	g := New(cfg)
	g.SetExporter(exp)
	if err := g.Generate(context.Background(), out); err != nil {
		t.Fatal(err)
	}

	if len(out.Frames()) != 4 {
		t.Fatalf("published %d frames, want 4", len(out.Frames()))
	}
	if len(exp.names) != 4 {
		t.Fatalf("exported %d images, want 4", len(exp.names))
	}
	for _, name := range exp.names {
		if !strings.HasPrefix(name, "depth2seed") || !strings.HasSuffix(name, "hue50") {
			t.Errorf("unexpected name %q", name)
		}
	}
	for i, f := range out.Frames() {
		if f.Seq != i+1 {
			t.Errorf("frame %d has seq %d", i, f.Seq)
		}
	}
}

func TestBatchDepthRange(t *testing.T) {
	rng := NewPool(false, 3).rng
	for i := 0; i < 200; i++ {
		d := drawDepth(rng, 1, 4)
		if d < 1 || d > 4 {
			t.Fatalf("depth %d outside [1,4]", d)
		}
	}
	if d := drawDepth(rng, 3, 3); d != 3 {
		t.Errorf("fixed range gave %d", d)
	}
}

func TestBatchExportError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	cfg.Batch = true
	cfg.Count = 3
	cfg.BatchSeed = 1

	boom := errors.New("disk full")
	g := New(cfg)
	g.SetExporter(&memExporter{fail: boom})
	err := g.Generate(context.Background(), &enginetest.Collector{})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"extended", func(c *Config) { *c = ExtendedConfig() }, false},
		{"depth too big", func(c *Config) { c.Depth = MaxDepth + 1 }, true},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"hue out of range", func(c *Config) { c.Hue = 400 }, true},
		{"batch min above max", func(c *Config) { c.Batch = true; c.MinDepth, c.MaxDepth = 5, 2 }, true},
		{"batch zero count", func(c *Config) { c.Batch = true; c.Count = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, engine.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

func ExampleName() {
	fmt.Println(Name(4, 1234, 50))
	// Output: depth4seed1234hue50
}
