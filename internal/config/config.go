package config

import (
	"fmt"
	"os"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMode    = "starfield-3d"
	DefaultCount   = 800
	DefaultSpeed   = 1.0
	DefaultColor   = "#ffffff"
	DefaultOpacity = 0.5
	DefaultWidth   = 1280
	DefaultHeight  = 720
	DefaultFPS     = 60
	DefaultFrames  = 600
)

type Config struct {
	Mode          string  `yaml:"mode"`
	Count         int     `yaml:"count"`
	Speed         float64 `yaml:"speed"`
	Color         string  `yaml:"color"`
	Opacity       float64 `yaml:"opacity"`
	Seed          int64   `yaml:"seed"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	FPS           int     `yaml:"fps"`
	Frames        int     `yaml:"frames"`
	SampleEvery   int     `yaml:"sample_every"`
	ReducedMotion bool    `yaml:"reduced_motion"`

	Gravity   GravityConfig   `yaml:"gravity"`
	Starfield StarfieldConfig `yaml:"starfield"`
	Field     FieldConfig     `yaml:"field"`
	Matrix    MatrixConfig    `yaml:"matrix"`
	Noise     NoiseConfig     `yaml:"noise"`
}

type GravityConfig struct {
	Gravity    float64  `yaml:"gravity"`
	Friction   float64  `yaml:"friction"`
	Bounce     float64  `yaml:"bounce"`
	DragSpring float64  `yaml:"drag_spring"`
	Softness   float64  `yaml:"softness"`
	Throw      float64  `yaml:"throw"`
	MinRadius  float64  `yaml:"min_radius"`
	MaxRadius  float64  `yaml:"max_radius"`
	Labels     []string `yaml:"labels,omitempty"`
	Palette    []string `yaml:"palette,omitempty"`
}

type StarfieldConfig struct {
	BaseSpeed    float64 `yaml:"base_speed"`
	ScrollGain   float64 `yaml:"scroll_gain"`
	ReducedSpeed float64 `yaml:"reduced_speed"`
	ReducedCount int     `yaml:"reduced_count"`
	MaxSize      float64 `yaml:"max_size"`
	Fade         float64 `yaml:"fade"`
}

type FieldConfig struct {
	LinkDistance float64 `yaml:"link_distance"`
	LinkWidth    float64 `yaml:"link_width"`
}

type MatrixConfig struct {
	SwapChance float64 `yaml:"swap_chance"`
	MaxSize    float64 `yaml:"max_size"`
}

type NoiseConfig struct {
	Density float64 `yaml:"density"`
}

func DefaultConfig() *Config {
	g := physics.NewGravityBoard()
	s := physics.NewStarfield()
	f := physics.NewField(physics.FieldNetwork)
	m := physics.NewMatrix()
	n := physics.NewNoise()

	return &Config{
		Mode:    DefaultMode,
		Count:   DefaultCount,
		Speed:   DefaultSpeed,
		Color:   DefaultColor,
		Opacity: DefaultOpacity,
		Seed:    1,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		FPS:     DefaultFPS,
		Frames:  DefaultFrames,
		Gravity: GravityConfig{
			Gravity:    g.Gravity,
			Friction:   g.Friction,
			Bounce:     g.Bounce,
			DragSpring: g.DragSpring,
			Softness:   g.Softness,
			Throw:      g.Throw,
			MinRadius:  g.MinRadius,
			MaxRadius:  g.MaxRadius,
		},
		Starfield: StarfieldConfig{
			BaseSpeed:    s.BaseSpeed,
			ScrollGain:   s.ScrollGain,
			ReducedSpeed: s.ReducedSpeed,
			ReducedCount: s.ReducedCount,
			MaxSize:      s.MaxSize,
			Fade:         s.FadeAlpha,
		},
		Field: FieldConfig{
			LinkDistance: f.LinkDistance,
			LinkWidth:    f.LinkWidth,
		},
		Matrix: MatrixConfig{
			SwapChance: m.SwapChance,
			MaxSize:    m.MaxSize,
		},
		Noise: NoiseConfig{Density: n.Density},
	}
}

// Load reads a YAML file on top of the defaults, so a file only needs the
// keys it changes.
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

func (c *Config) Clone() *Config {
	cp := *c
	cp.Gravity.Labels = append([]string(nil), c.Gravity.Labels...)
	cp.Gravity.Palette = append([]string(nil), c.Gravity.Palette...)
	return &cp
}

func (c *Config) Validate() error {
	if c.Mode == "" {
		return fmt.Errorf("%w: mode is required", dynamo.ErrInvalidConfig)
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("%w: opacity must be in [0, 1], got %g", dynamo.ErrInvalidConfig, c.Opacity)
	}
	if c.Speed < 0 {
		return fmt.Errorf("%w: speed must not be negative, got %g", dynamo.ErrInvalidConfig, c.Speed)
	}
	if c.Frames < 0 || c.SampleEvery < 0 {
		return fmt.Errorf("%w: frames and sample_every must not be negative", dynamo.ErrInvalidConfig)
	}
	if c.Gravity.MinRadius <= 0 || c.Gravity.MaxRadius < c.Gravity.MinRadius {
		return fmt.Errorf("%w: gravity radius range [%g, %g] is empty", dynamo.ErrInvalidConfig, c.Gravity.MinRadius, c.Gravity.MaxRadius)
	}
	if err := c.Gravity.validate(); err != nil {
		return err
	}
	if c.Starfield.MaxSize <= 0 || c.Matrix.MaxSize <= 0 {
		return fmt.Errorf("%w: particle sizes must be positive", dynamo.ErrInvalidConfig)
	}
	if c.Noise.Density < 0 || c.Noise.Density > 1 {
		return fmt.Errorf("%w: noise density must be in [0, 1], got %g", dynamo.ErrInvalidConfig, c.Noise.Density)
	}
	if _, err := physics.ParseColor(c.Color); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	if _, err := physics.ParsePalette(c.Gravity.Palette); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	return c.Engine().Validate()
}

// validate keeps the board dissipative: separation pushes bodies apart
// without overshooting and no contact adds energy.
func (g GravityConfig) validate() error {
	switch {
	case g.Softness <= 0 || g.Softness >= 1:
		return fmt.Errorf("%w: gravity softness must be in (0, 1), got %g", dynamo.ErrInvalidConfig, g.Softness)
	case g.Bounce < 0 || g.Bounce > 1:
		return fmt.Errorf("%w: gravity bounce must be in [0, 1], got %g", dynamo.ErrInvalidConfig, g.Bounce)
	case g.Friction < 0 || g.Friction > 1:
		return fmt.Errorf("%w: gravity friction must be in [0, 1], got %g", dynamo.ErrInvalidConfig, g.Friction)
	case g.DragSpring <= 0 || g.DragSpring > 1:
		return fmt.Errorf("%w: gravity drag_spring must be in (0, 1], got %g", dynamo.ErrInvalidConfig, g.DragSpring)
	}
	return nil
}

// Engine returns the engine-level part of the configuration.
func (c *Config) Engine() dynamo.Config {
	return dynamo.Config{
		Count:          c.Count,
		Width:          c.Width,
		Height:         c.Height,
		FPS:            c.FPS,
		Seed:           c.Seed,
		ValidateBodies: true,
	}
}
