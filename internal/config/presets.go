package config

import (
	"sort"
	"strings"

	"github.com/san-kum/genlab/internal/gens/lsystem"
	"github.com/san-kum/genlab/internal/gens/rft"
	"github.com/san-kum/genlab/internal/grid"
)

func preset(gen string, mut func(*Config)) *Config {
	c := DefaultConfig()
	c.Generator = gen
	mut(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"cyclic": {
		"classic": preset("cyclic", func(*Config) {}),
		"few-states": preset("cyclic", func(c *Config) {
			c.Cyclic.States = 4
			c.Cyclic.Generations = 200
		}),
		"large": preset("cyclic", func(c *Config) {
			c.Cyclic.Cells = 300
			c.Cyclic.CellSize = 2
		}),
	},
	"life": {
		"sparse": preset("life", func(c *Config) { c.Life.Density = 0.1 }),
		"dense":  preset("life", func(c *Config) { c.Life.Density = 0.5 }),
		"torus": preset("life", func(c *Config) {
			c.Life.Cells = 150
			c.Life.CellSize = 4
			c.Life.Edges = grid.Wrapped
			c.Life.Generations = 1000
		}),
	},
	"hybrid": {
		"default": preset("hybrid", func(*Config) {}),
		"frequent": preset("hybrid", func(c *Config) {
			c.Hybrid.Interval = 3
		}),
		"seeded": preset("hybrid", func(c *Config) {
			c.Hybrid.LifeDensity = 0.3
			c.Hybrid.RandomInit = true
		}),
	},
	"elementary": {
		"rule30":  preset("elementary", func(c *Config) { c.Elementary.Rule = 30 }),
		"rule90":  preset("elementary", func(c *Config) { c.Elementary.Rule = 90 }),
		"rule110": preset("elementary", func(c *Config) { c.Elementary.Rule = 110 }),
		"noise": preset("elementary", func(c *Config) {
			c.Elementary.Rule = 110
			c.Elementary.RandomInit = true
		}),
	},
	"lsystem": lsystemPresets(),
	"rft": {
		"standard": preset("rft", func(*Config) {}),
		"extended": preset("rft", func(c *Config) { c.RFT = rft.ExtendedConfig() }),
		"set": preset("rft", func(c *Config) {
			c.RFT.Batch = true
			c.RFT.MinDepth, c.RFT.MaxDepth = 2, 6
		}),
	},
}

func lsystemPresets() map[string]*Config {
	out := make(map[string]*Config, len(lsystem.Presets))
	for _, name := range lsystem.PresetNames() {
		out[name] = preset("lsystem", func(c *Config) {
			c.LSystem, _ = c.LSystem.WithPreset(name)
		})
	}
	return out
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(gen, name string) *Config {
	genPresets, ok := Presets[gen]
	if !ok {
		return nil
	}
	cfg, ok := genPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(gen string) []string {
	genPresets, ok := Presets[gen]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(genPresets))
	for name := range genPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Section is the config section holding a generator's settings, so
// rft-batch reads the rft section.
func Section(gen string) string {
	gen, _, _ = strings.Cut(gen, "-")
	return gen
}
