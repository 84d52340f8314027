package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/logging"
	"github.com/san-kum/genlab/internal/storage"
)

// Scenario defines a scripted sequence of generator runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Config is laid over the preset, or over
// the base config when no preset is named, using the config file layout.
type ScenarioStep struct {
	Generator string    `yaml:"generator"`
	Preset    string    `yaml:"preset"`
	Config    yaml.Node `yaml:"config"`
	MaxFrames int       `yaml:"max_frames"`
	SVG       bool      `yaml:"svg"`
	Save      bool      `yaml:"save"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// StepConfig resolves the config a step runs with.
func StepConfig(step ScenarioStep, base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if step.Preset != "" {
		p := config.GetPreset(config.Section(step.Generator), step.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for %s", step.Preset, step.Generator)
		}
		cfg = p
	}
	if step.Config.Kind != 0 {
		if err := step.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	cfg.Generator = step.Generator
	return cfg, nil
}

// RunScenario executes all steps in a scenario. Steps with Save set are
// written to store when it is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, base *config.Config, store *storage.Store) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))
	log := logging.Logger().With("scenario", scenario.Name)

	for i, step := range scenario.Steps {
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "generator", step.Generator, "preset", step.Preset)

		cfg, err := StepConfig(step, base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		gen, err := registry.Get(step.Generator, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(experiment.Config{
			Generator:   step.Generator,
			Seed:        registry.Seed(step.Generator, cfg),
			MaxFrames:   step.MaxFrames,
			ExportEvery: cfg.Export.Every,
			Scale:       cfg.Export.Scale,
			SVG:         step.SVG,
			Settings:    cfg,
		})
		var st *storage.Store
		if step.Save {
			st = store
		}
		if err := exp.Setup(gen, registry.DefaultMetrics(), st); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ParameterSweep runs one generator across a range of integer values of
// one config key, such as rule for elementary or states for cyclic.
type ParameterSweep struct {
	Generator string
	Param     string
	Min       int
	Max       int
	Step      int
	MaxFrames int
}

// SweepResult holds results from one value of a sweep
type SweepResult struct {
	Value   int
	Frames  int
	Metrics map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, base *config.Config) ([]SweepResult, error) {
	if sweep.Step <= 0 {
		sweep.Step = 1
	}
	if sweep.Max < sweep.Min {
		return nil, fmt.Errorf("sweep range %d..%d is empty", sweep.Min, sweep.Max)
	}
	section := config.Section(sweep.Generator)
	results := make([]SweepResult, 0, (sweep.Max-sweep.Min)/sweep.Step+1)

	for v := sweep.Min; v <= sweep.Max; v += sweep.Step {
		var node yaml.Node
		doc := fmt.Sprintf("%s:\n  %s: %d\n", section, sweep.Param, v)
		if err := yaml.Unmarshal([]byte(doc), &node); err != nil {
			return nil, err
		}

		cfg, err := StepConfig(ScenarioStep{Generator: sweep.Generator, Config: *node.Content[0]}, base)
		if err != nil {
			return nil, err
		}
		gen, err := registry.Get(sweep.Generator, cfg)
		if err != nil {
			return nil, err
		}

		exp := experiment.New(experiment.Config{Generator: sweep.Generator, MaxFrames: sweep.MaxFrames})
		if err := exp.Setup(gen, registry.DefaultMetrics(), nil); err != nil {
			return nil, err
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s=%d: %w", sweep.Param, v, err)
		}

		results = append(results, SweepResult{Value: v, Frames: res.Frames, Metrics: res.Metrics})
		logging.Logger().Info("sweep", "param", sweep.Param, "value", v, "done", len(results))
	}

	return results, nil
}
