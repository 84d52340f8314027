// Package rft paints images from random function trees. Every pixel is fed
// to a tree of [0,1] functions as normalised (x, y) and the result picks
// hue, saturation and brightness.
package rft

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
	"github.com/san-kum/genlab/internal/logging"
)

const (
	DefaultWidth  = 250
	DefaultHeight = 250
	DefaultDepth  = 3
	DefaultSeed   = 105
	DefaultHue    = 50
	DefaultCount  = 6

	ExtendedDepth = 5
	ExtendedSeed  = 65

	MaxDepth = 10
	MaxCount = 100
)

type Config struct {
	Width    int   `yaml:"width"`
	Height   int   `yaml:"height"`
	Depth    int   `yaml:"depth"`
	Seed     int64 `yaml:"seed"`
	Hue      int   `yaml:"hue"`
	Extended bool  `yaml:"extended"`

	// Batch mode draws Count images with fresh seeds and a depth in
	// [MinDepth, MaxDepth] and hands each to the exporter.
	Batch     bool  `yaml:"batch"`
	Count     int   `yaml:"count"`
	MinDepth  int   `yaml:"min_depth"`
	MaxDepth  int   `yaml:"max_depth"`
	BatchSeed int64 `yaml:"batch_seed"`
}

func DefaultConfig() Config {
	return Config{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Depth:    DefaultDepth,
		Seed:     DefaultSeed,
		Hue:      DefaultHue,
		Count:    DefaultCount,
		MinDepth: 0,
		MaxDepth: MaxDepth - 1,
	}
}

// ExtendedConfig uses the wide pool and its defaults.
func ExtendedConfig() Config {
	cfg := DefaultConfig()
	cfg.Extended = true
	cfg.Depth = ExtendedDepth
	cfg.Seed = ExtendedSeed
	return cfg
}

func (c Config) Validate() error {
	errs := []error{
		gens.IntRange("width", "Width", c.Width, 1, gens.MaxExtent),
		gens.IntRange("height", "Height", c.Height, 1, gens.MaxExtent),
		gens.IntRange("depth", "Depth", c.Depth, 0, MaxDepth),
		gens.IntRange("hue", "Hue", c.Hue, 0, 360),
	}
	if c.Batch {
		errs = append(errs,
			gens.IntRange("count", "Number of images", c.Count, 1, MaxCount),
			gens.IntRange("min_depth", "Minimum depth", c.MinDepth, 0, MaxDepth),
			gens.IntRange("max_depth", "Maximum depth", c.MaxDepth, 0, MaxDepth),
		)
		if c.MinDepth > c.MaxDepth {
			errs = append(errs, engine.Invalid("min_depth", "Minimum depth cannot exceed maximum depth."))
		}
	}
	return gens.FirstErr(errs...)
}

// Exporter persists a finished image under a name.
type Exporter interface {
	Export(f *engine.Frame, name string) error
}

type Generator struct {
	cfg      Config
	exporter Exporter
	pool     *Pool
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg, pool: NewPool(cfg.Extended, cfg.Seed)}
}

// SetExporter sets where batch images go, replacing any earlier one.
// Without one, batch images are only published.
func (g *Generator) SetExporter(e Exporter) {
	g.exporter = e
}

func (g *Generator) Name() string {
	switch {
	case g.cfg.Batch:
		return "rft-batch"
	case g.cfg.Extended:
		return "rft-extended"
	}
	return "rft"
}

func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

// Tree reseeds the pool and draws the tree for seed and depth.
func (g *Generator) Tree(seed int64, depth int) *Node {
	g.pool.Reseed(seed)
	return BuildTree(g.pool, depth)
}

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	if g.cfg.Batch {
		return g.batch(ctx, out)
	}
	if f := g.image(ctx, out, "", g.cfg.Seed, g.cfg.Depth); f != nil {
		out.Finish(f)
	}
	return nil
}

// image renders one picture. It returns a nil frame when ctx ends first.
func (g *Generator) image(ctx context.Context, out engine.Output, prefix string, seed int64, depth int) *engine.Frame {
	cfg := g.cfg
	tree := g.Tree(seed, depth)
	logging.Logger().Debug("rft tree", "seed", seed, "depth", depth, "tree", tree.String())

	fl := NewField(cfg.Width, cfg.Height)
	last := -1
	for x := 0; x < cfg.Width; x++ {
		if ctx.Err() != nil {
			return nil
		}
		fl.column(tree, x)
		if pct := x * 100 / cfg.Width; pct != last {
			last = pct
			out.Report(fmt.Sprintf("%sCalculating Randomized Function Tree Image %d %%", prefix, pct))
		}
	}

	return &engine.Frame{
		Image: fl.Image(cfg.Hue),
		Seq:   1,
		Label: Name(depth, seed, cfg.Hue),
		Metrics: map[string]float64{
			"seed":  float64(seed),
			"depth": float64(depth),
			"mean":  fl.Mean(),
		},
	}
}

func (g *Generator) batch(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	rng := gens.NewRand(gens.ResolveSeed(cfg.BatchSeed))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(2)

	var last *engine.Frame
	for i := 1; i <= cfg.Count; i++ {
		seed := int64(rng.Int32())
		depth := drawDepth(rng, cfg.MinDepth, cfg.MaxDepth)

		f := g.image(ectx, out, fmt.Sprintf("[%d/%d] ", i, cfg.Count), seed, depth)
		if f == nil {
			break
		}
		f.Seq = i
		last = f
		if g.exporter != nil {
			eg.Go(func() error {
				if err := g.exporter.Export(f, f.Label); err != nil {
					return fmt.Errorf("export %s: %w", f.Label, err)
				}
				return nil
			})
		}
		if !out.Publish(ectx, f) {
			break
		}
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil || last == nil {
		return nil
	}
	out.Finish(last)
	return nil
}

func drawDepth(rng *rand.Rand, lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// Name is the export name of an image.
func Name(depth int, seed int64, hue int) string {
	return fmt.Sprintf("depth%dseed%dhue%d", depth, seed, hue)
}

// Field holds tree results per pixel, row-major.
type Field struct {
	W, H int
	V    []float64
}

func NewField(w, h int) *Field {
	return &Field{W: w, H: h, V: make([]float64, w*h)}
}

// Evaluate fills the field from tree.
func Evaluate(tree *Node, w, h int) *Field {
	fl := NewField(w, h)
	for x := 0; x < w; x++ {
		fl.column(tree, x)
	}
	return fl
}

func (fl *Field) column(tree *Node, x int) {
	nx := float64(x) / float64(fl.W)
	for y := 0; y < fl.H; y++ {
		fl.V[y*fl.W+x] = tree.Eval(nx, float64(y)/float64(fl.H))
	}
}

func (fl *Field) At(x, y int) float64 { return fl.V[y*fl.W+x] }

func (fl *Field) Mean() float64 {
	if len(fl.V) == 0 {
		return 0
	}
	var s float64
	for _, v := range fl.V {
		s += v
	}
	return s / float64(len(fl.V))
}

func (fl *Field) Image(hue int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fl.W, fl.H))
	for y := 0; y < fl.H; y++ {
		for x := 0; x < fl.W; x++ {
			img.SetRGBA(x, y, Colour(fl.At(x, y), hue))
		}
	}
	return img
}

// Colour maps v in [0,1] to hue v*360+hue with saturation and value v.
func Colour(v float64, hue int) color.RGBA {
	v = math.Min(math.Max(v, 0), 1)
	h := math.Mod(v*360+float64(hue), 360)
	r, g, b := colorful.Hsv(h, v, v).RGB255()
	return color.RGBA{r, g, b, 255}
}
