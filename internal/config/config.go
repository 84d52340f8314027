package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/genlab/internal/gens/cyclic"
	"github.com/san-kum/genlab/internal/gens/elementary"
	"github.com/san-kum/genlab/internal/gens/hybrid"
	"github.com/san-kum/genlab/internal/gens/life"
	"github.com/san-kum/genlab/internal/gens/lsystem"
	"github.com/san-kum/genlab/internal/gens/rft"
)

const (
	DefaultGenerator = "life"
	DefaultLogLevel  = "info"
	DefaultDataDir   = "runs"
	DefaultAddr      = "localhost:8080"
	DefaultScale     = 1
)

type Config struct {
	Generator string `yaml:"generator"`
	LogLevel  string `yaml:"log_level"`
	DataDir   string `yaml:"data_dir"`

	Export ExportConfig `yaml:"export"`
	Server ServerConfig `yaml:"server"`

	Cyclic     cyclic.Config     `yaml:"cyclic"`
	Life       life.Config       `yaml:"life"`
	Hybrid     hybrid.Config     `yaml:"hybrid"`
	Elementary elementary.Config `yaml:"elementary"`
	LSystem    lsystem.Config    `yaml:"lsystem"`
	RFT        rft.Config        `yaml:"rft"`
}

type ExportConfig struct {
	Dir   string `yaml:"dir"`
	Scale int    `yaml:"scale"`
	SVG   bool   `yaml:"svg"`
	// Every stores every n-th frame of an animated run; zero keeps only
	// the last one.
	Every int `yaml:"every"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Generator:  DefaultGenerator,
		LogLevel:   DefaultLogLevel,
		DataDir:    DefaultDataDir,
		Export:     ExportConfig{Scale: DefaultScale},
		Server:     ServerConfig{Addr: DefaultAddr},
		Cyclic:     cyclic.DefaultConfig(),
		Life:       life.DefaultConfig(),
		Hybrid:     hybrid.DefaultConfig(),
		Elementary: elementary.DefaultConfig(),
		LSystem:    lsystem.DefaultConfig(),
		RFT:        rft.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone copies c. Every section is a plain value.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ExportDir is where exported images land when no explicit dir is set.
func (c *Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return c.DataDir + "/export"
}
