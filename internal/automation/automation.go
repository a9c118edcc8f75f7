package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of headless runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep configures one run. Preset is looked up by name; the other
// fields override it when set.
type ScenarioStep struct {
	Preset      string  `yaml:"preset"`
	Mode        string  `yaml:"mode"`
	Count       *int    `yaml:"count"`
	Frames      int     `yaml:"frames"`
	SampleEvery int     `yaml:"sample_every"`
	Seed        int64   `yaml:"seed"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Events      []Event `yaml:"events"`
	SaveAs      string  `yaml:"save_as"`
}

// Event is a host input at a frame. X and Y are the pointer position, or the
// new size for a resize.
type Event struct {
	Frame  uint64  `yaml:"frame"`
	Kind   string  `yaml:"kind"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Scroll float64 `yaml:"scroll"`
}

type StepResult struct {
	Name   string
	Config *config.Config
	Result *dynamo.Result
}

var eventKinds = map[string]experiment.InputKind{
	"pointer_down": experiment.PointerDown,
	"pointer_move": experiment.PointerMove,
	"pointer_up":   experiment.PointerUp,
	"scroll":       experiment.Scroll,
	"resize":       experiment.Resize,
}

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
	for i, step := range scenario.Steps {
		for _, ev := range step.Events {
			if _, ok := eventKinds[ev.Kind]; !ok {
				return nil, fmt.Errorf("step %d: unknown event kind %q", i+1, ev.Kind)
			}
		}
	}
	return &scenario, nil
}

// Config resolves the step against the defaults.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.FindPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Mode != "" {
		cfg.Mode = s.Mode
	}
	if s.Count != nil {
		cfg.Count = *s.Count
	}
	if s.Frames > 0 {
		cfg.Frames = s.Frames
	}
	if s.SampleEvery > 0 {
		cfg.SampleEvery = s.SampleEvery
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Width > 0 {
		cfg.Width = s.Width
	}
	if s.Height > 0 {
		cfg.Height = s.Height
	}
	return cfg, nil
}

func (s ScenarioStep) inputs() []experiment.Input {
	in := make([]experiment.Input, len(s.Events))
	for i, ev := range s.Events {
		in[i] = experiment.Input{Frame: ev.Frame, Kind: eventKinds[ev.Kind], X: ev.X, Y: ev.Y, Scroll: ev.Scroll}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Frame < in[j].Frame })
	return in
}

// RunScenario executes every step in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running step", zap.Int("step", i+1), zap.Int("of", len(scenario.Steps)), zap.String("mode", cfg.Mode))

		exp := experiment.New(cfg, registry)
		exp.SetLogger(logger)
		if err := exp.Setup(nil, registry.DefaultMetrics(cfg.Mode)); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		exp.Script(step.inputs()...)

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		results = append(results, StepResult{Name: name, Config: cfg, Result: res})
	}
	return results, nil
}

// Setters name the parameters a sweep may vary.
var Setters = map[string]func(*config.Config, float64){
	"gravity":     func(c *config.Config, v float64) { c.Gravity.Gravity = v },
	"friction":    func(c *config.Config, v float64) { c.Gravity.Friction = v },
	"bounce":      func(c *config.Config, v float64) { c.Gravity.Bounce = v },
	"softness":    func(c *config.Config, v float64) { c.Gravity.Softness = v },
	"speed":       func(c *config.Config, v float64) { c.Speed = v },
	"opacity":     func(c *config.Config, v float64) { c.Opacity = v },
	"scroll_gain": func(c *config.Config, v float64) { c.Starfield.ScrollGain = v },
}

// ParameterSweep runs the same base config across evenly spaced values of
// one parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	set, ok := Setters[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("parameter %s is not tunable", sweep.ParamName)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		val := sweep.ParamMin + float64(i)*step
		cfg := sweep.Base.Clone()
		set(cfg, val)

		exp := experiment.New(cfg, registry)
		if err := exp.Setup(nil, registry.DefaultMetrics(cfg.Mode)); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, val, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, SweepResult{ParamValue: val, Metrics: res.Metrics})
	}
	return results, nil
}

// MonteCarloResult summarises one seed of a multi-seed run.
type MonteCarloResult struct {
	Seed    int64
	Metrics map[string]float64
	Stable  bool // no invariant violations
}

// RunMonteCarlo runs trials seeds concurrently, starting at base.Seed.
func RunMonteCarlo(ctx context.Context, base *config.Config, trials int, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	factory := func(seed int64) (*dynamo.Engine, error) {
		cfg := base.Clone()
		cfg.Seed = seed
		eng, err := registry.NewEngine(cfg, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, m := range registry.DefaultMetrics(cfg.Mode) {
			eng.AddMetric(m)
		}
		return eng, nil
	}

	runs, err := dynamo.NewEnsemble(factory, trials, base.Seed).Run(ctx, base.Frames)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			Seed:    base.Seed + int64(i),
			Metrics: r.Metrics,
			Stable:  len(r.Errors) == 0,
		}
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
