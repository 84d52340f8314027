// Package lsystem expands Lindenmayer grammars (plain or probabilistic) and
// renders the resulting word with turtle graphics.
//
// Rules are written one per line as "F=F+F--F+F". In a probabilistic
// grammar a rule may end with its probability, "F=F[+F]F(0.33)"; all rules
// for one symbol must then carry probabilities that add up to 1.
package lsystem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/gens"
)

const (
	DefaultWidth      = 500
	DefaultHeight     = 500
	DefaultRotation   = 90.0
	DefaultIterations = 5
	DefaultLineWidth  = 1.0
)

type Config struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Alphabet      string  `yaml:"alphabet"`
	Axiom         string  `yaml:"axiom"`
	Rules         string  `yaml:"rules"`
	Rotation      float64 `yaml:"rotation"`
	StartAngle    float64 `yaml:"start_angle"`
	Iterations    int     `yaml:"iterations"`
	Probabilistic bool    `yaml:"probabilistic"`
	LineWidth     float64 `yaml:"line_width"`
	Seed          int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	cfg := Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Rotation:   DefaultRotation,
		Iterations: DefaultIterations,
		LineWidth:  DefaultLineWidth,
	}
	cfg, _ = cfg.WithPreset("Koch Curve")
	return cfg
}

// Preset is one of the bundled example grammars.
type Preset struct {
	Alphabet      string
	Axiom         string
	StartAngle    float64
	Rotation      float64
	Rules         string
	Probabilistic bool
}

var Presets = map[string]Preset{
	"Koch Curve":          {"F+-", "F", 0, 60, "F=F+F--F+F", false},
	"Koch Snowflake":      {"F+-", "F--F--F", 0, 60, "F=F+F--F+F", false},
	"Sierpinski Triangle": {"FG+-", "F-G-G", 0, 120, "F=F-G+F+G-F\nG=GG", false},
	"Dragon Curve":        {"XYF+-", "FX", 0, 90, "X=X+YF+\nY=-FX-Y", false},
	"Fractal Plants":      {"FX+-[]", "X", 45, 25, "X=F[-X][X]F[-X]+FX\nF=FF", false},
	"Probabilistic Plants": {"F+-[]", "F", 45, 25,
		"F=F[+F]F[-F]F(0.33)\nF=F[+F]F(0.33)\nF=F[-F]F(0.34)", true},
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithPreset copies the grammar of a bundled example into c.
func (c Config) WithPreset(name string) (Config, error) {
	p, ok := Presets[name]
	if !ok {
		return c, fmt.Errorf("unknown l-system preset: %s (available: %v)", name, PresetNames())
	}
	c.Alphabet = p.Alphabet
	c.Axiom = p.Axiom
	c.StartAngle = p.StartAngle
	c.Rotation = p.Rotation
	c.Rules = p.Rules
	c.Probabilistic = p.Probabilistic
	return c, nil
}

// Grammar parses the rule text into a grammar.
func (c Config) Grammar() (Grammar, error) {
	rules, err := ParseRules(c.Rules)
	if err != nil {
		return Grammar{}, err
	}
	return Grammar{
		Alphabet:      c.Alphabet,
		Axiom:         c.Axiom,
		Rules:         rules,
		Probabilistic: c.Probabilistic,
	}, nil
}

func (c Config) Validate() error {
	g, err := c.Grammar()
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	if c.Rotation < 0 || c.Rotation > 360 || c.StartAngle < 0 || c.StartAngle > 360 {
		return engine.Invalid("rotation", "Angles have to be between 0 and 360 degrees.")
	}
	if c.Iterations < 0 {
		return engine.Invalid("iterations", "Number of iterations cannot be negative.")
	}
	return gens.FirstErr(
		gens.IntRange("width", "Width", c.Width, 1, gens.MaxExtent),
		gens.IntRange("height", "Height", c.Height, 1, gens.MaxExtent),
	)
}

type Generator struct {
	cfg Config

	mu     sync.Mutex
	word   string
	layout Layout
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string {
	if g.cfg.Probabilistic {
		return "lsystem-probabilistic"
	}
	return "lsystem"
}

func (g *Generator) Config() Config  { return g.cfg }
func (g *Generator) Validate() error { return g.cfg.Validate() }

// Word expands the configured grammar.
func (g *Generator) Word(ctx context.Context) (string, error) {
	grammar, err := g.cfg.Grammar()
	if err != nil {
		return "", err
	}
	return grammar.Expand(ctx, g.cfg.Iterations, gens.NewRand(gens.ResolveSeed(g.cfg.Seed)))
}

// Segments returns the path of the last drawn word, or nil before the
// first complete run.
func (g *Generator) Segments() []Segment {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.word == "" {
		return nil
	}
	return g.layout.Segments(g.word)
}

func (g *Generator) Generate(ctx context.Context, out engine.Output) error {
	cfg := g.cfg
	out.Report(fmt.Sprintf("Expanding %d iterations...", cfg.Iterations))

	word, err := g.Word(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	out.Report(fmt.Sprintf("Drawing %d symbols...", len(word)))
	canvas, layout := Render(word, cfg.Width, cfg.Height, cfg.Rotation, cfg.StartAngle, cfg.LineWidth)
	if ctx.Err() != nil {
		return nil
	}

	g.mu.Lock()
	g.word, g.layout = word, layout
	g.mu.Unlock()

	out.Finish(&engine.Frame{
		Image: canvas.Image(),
		Seq:   1,
		Label: fmt.Sprintf("lsystem-%d", cfg.Iterations),
		Metrics: map[string]float64{
			"symbols": float64(len(word)),
			"scale":   layout.Scale,
		},
	})
	return nil
}
