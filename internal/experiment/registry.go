package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/export"
	"github.com/san-kum/genlab/internal/gens/cyclic"
	"github.com/san-kum/genlab/internal/gens/elementary"
	"github.com/san-kum/genlab/internal/gens/hybrid"
	"github.com/san-kum/genlab/internal/gens/life"
	"github.com/san-kum/genlab/internal/gens/lsystem"
	"github.com/san-kum/genlab/internal/gens/rft"
	"github.com/san-kum/genlab/internal/metrics"
)

type entry struct {
	about string
	build func(*config.Config) engine.Generator
	seed  func(*config.Config) int64
}

// Registry builds generators by name from the application config.
type Registry struct {
	gens map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{gens: make(map[string]entry)}

	r.gens["cyclic"] = entry{
		about: "state-cycling automaton, cells eat their successor state",
		build: func(c *config.Config) engine.Generator { return cyclic.New(c.Cyclic) },
		seed:  func(c *config.Config) int64 { return c.Cyclic.Seed },
	}
	r.gens["life"] = entry{
		about: "Game of Life with fixed or wrapped edges",
		build: func(c *config.Config) engine.Generator { return life.New(c.Life) },
		seed:  func(c *config.Config) int64 { return c.Life.Seed },
	}
	r.gens["hybrid"] = entry{
		about: "Game of Life struck by elementary automaton patterns",
		build: func(c *config.Config) engine.Generator { return hybrid.New(c.Hybrid) },
		seed:  func(c *config.Config) int64 { return c.Hybrid.Seed },
	}
	r.gens["elementary"] = entry{
		about: "one-dimensional Wolfram rule drawn row by row",
		build: func(c *config.Config) engine.Generator { return elementary.New(c.Elementary) },
		seed:  func(c *config.Config) int64 { return c.Elementary.Seed },
	}
	r.gens["lsystem"] = entry{
		about: "Lindenmayer system drawn with turtle graphics",
		build: func(c *config.Config) engine.Generator { return lsystem.New(c.LSystem) },
		seed:  func(c *config.Config) int64 { return c.LSystem.Seed },
	}
	r.gens["rft"] = entry{
		about: "random function tree image",
		build: func(c *config.Config) engine.Generator { return rft.New(c.RFT) },
		seed:  func(c *config.Config) int64 { return c.RFT.Seed },
	}
	r.gens["rft-batch"] = entry{
		about: "set of random function tree images with fresh seeds",
		build: func(c *config.Config) engine.Generator {
			cfg := c.RFT
			cfg.Batch = true
			g := rft.New(cfg)
			g.SetExporter(export.NewPNG(c.ExportDir(), c.Export.Scale))
			return g
		},
		seed: func(c *config.Config) int64 { return c.RFT.BatchSeed },
	}

	return r
}

func (r *Registry) Get(name string, cfg *config.Config) (engine.Generator, error) {
	e, ok := r.gens[name]
	if !ok {
		return nil, fmt.Errorf("unknown generator: %s", name)
	}
	return e.build(cfg), nil
}

// Seed reports the configured seed of a generator; zero means time based.
func (r *Registry) Seed(name string, cfg *config.Config) int64 {
	if e, ok := r.gens[name]; ok {
		return e.seed(cfg)
	}
	return 0
}

func (r *Registry) Describe(name string) string {
	return r.gens[name].about
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.gens))
	for name := range r.gens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []metrics.Metric {
	return metrics.Standard()
}
