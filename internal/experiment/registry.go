package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/physics"
)

type modeFactory func(cfg *config.Config) (dynamo.Mode, error)

type Registry struct {
	modes map[string]modeFactory
}

func NewRegistry() *Registry {
	r := &Registry{modes: make(map[string]modeFactory)}

	r.modes["gravity-board"] = func(cfg *config.Config) (dynamo.Mode, error) {
		g := physics.NewGravityBoard()
		gc := cfg.Gravity
		g.Gravity, g.Friction, g.Bounce = gc.Gravity, gc.Friction, gc.Bounce
		g.DragSpring, g.Softness, g.Throw = gc.DragSpring, gc.Softness, gc.Throw
		g.MinRadius, g.MaxRadius = gc.MinRadius, gc.MaxRadius
		if len(gc.Labels) > 0 {
			g.Labels = gc.Labels
		}
		palette, err := physics.ParsePalette(gc.Palette)
		if err != nil {
			return nil, err
		}
		g.Palette = palette
		return g, nil
	}

	r.modes["starfield-3d"] = func(cfg *config.Config) (dynamo.Mode, error) {
		col, err := physics.ParseColor(cfg.Color)
		if err != nil {
			return nil, err
		}
		s := physics.NewStarfield()
		sc := cfg.Starfield
		s.BaseSpeed, s.ScrollGain = sc.BaseSpeed*cfg.Speed, sc.ScrollGain
		s.ReducedSpeed, s.ReducedCount = sc.ReducedSpeed, sc.ReducedCount
		s.MaxSize, s.FadeAlpha = sc.MaxSize, sc.Fade
		s.Color = col
		return s, nil
	}

	for _, kind := range []physics.FieldKind{physics.FieldStars, physics.FieldDust, physics.FieldNetwork} {
		kind := kind
		r.modes[kind.String()] = func(cfg *config.Config) (dynamo.Mode, error) {
			col, err := physics.ParseColor(cfg.Color)
			if err != nil {
				return nil, err
			}
			f := physics.NewField(kind)
			f.Speed, f.Color, f.Opacity = cfg.Speed, col, cfg.Opacity
			f.LinkDistance, f.LinkWidth = cfg.Field.LinkDistance, cfg.Field.LinkWidth
			return f, nil
		}
	}

	r.modes["matrix"] = func(cfg *config.Config) (dynamo.Mode, error) {
		col, err := physics.ParseColor(cfg.Color)
		if err != nil {
			return nil, err
		}
		m := physics.NewMatrix()
		m.Speed, m.Color, m.Opacity = cfg.Speed, col, cfg.Opacity
		m.SwapChance, m.MaxSize = cfg.Matrix.SwapChance, cfg.Matrix.MaxSize
		return m, nil
	}

	r.modes["noise"] = func(cfg *config.Config) (dynamo.Mode, error) {
		n := physics.NewNoise()
		n.Density = cfg.Noise.Density
		return n, nil
	}

	return r
}

// GetMode builds the mode named by cfg.Mode.
func (r *Registry) GetMode(cfg *config.Config) (dynamo.Mode, error) {
	fn, ok := r.modes[cfg.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownMode, cfg.Mode)
	}
	m, err := fn(cfg)
	if err != nil {
		return nil, fmt.Errorf("mode %s: %w", cfg.Mode, err)
	}
	return m, nil
}

func (r *Registry) ListModes() []string {
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEngine validates cfg and builds an engine for it.
func (r *Registry) NewEngine(cfg *config.Config, surface dynamo.Surface, motion dynamo.MotionSettings) (*dynamo.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := r.GetMode(cfg)
	if err != nil {
		return nil, err
	}
	if motion == nil {
		motion = dynamo.ReducedMotion(cfg.ReducedMotion)
	}
	return dynamo.New(mode, surface, cfg.Engine(), motion)
}

func (r *Registry) DefaultMetrics(mode string) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewPeakSpeed(),
		metrics.NewValidity(),
	}
	switch mode {
	case "gravity-board":
		ms = append(ms, metrics.NewContainment(), metrics.NewOverlaps(), metrics.NewMaxDraggers(), metrics.NewDragTime())
	case "starfield-3d":
		ms = append(ms, metrics.NewMeanDepth())
	case "stars", "dust", "network", "matrix":
		ms = append(ms, metrics.NewContainment())
	}
	return ms
}
