package dynamo

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a point or displacement in surface-local pixels.
type Vec = r2.Vec

// Body is a single simulated particle.
type Body struct {
	Pos      Vec
	Z        float64 // depth, starfield only
	Vel      Vec
	Radius   float64
	Glyph    rune
	Alpha    float64
	Color    color.NRGBA
	Label    string
	Dragging bool
}

func (b Body) IsValid() bool {
	for _, v := range [...]float64{b.Pos.X, b.Pos.Y, b.Z, b.Vel.X, b.Vel.Y, b.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Radius > 0
}

// Speed returns the magnitude of the planar velocity.
func (b Body) Speed() float64 {
	return r2.Norm(b.Vel)
}

func CloneBodies(bodies []Body) []Body {
	c := make([]Body, len(bodies))
	copy(c, bodies)
	return c
}

// Frame carries the inputs for one tick. Every field is sampled once before
// the integrator runs and stays constant until the tick ends.
type Frame struct {
	Index          uint64
	Width, Height  float64
	Pointer        Vec
	ScrollVelocity float64
	ReducedMotion  bool
	Rand           *rand.Rand
}

// HasArea reports whether the surface can be drawn into.
func (f *Frame) HasArea() bool {
	return f.Width > 0 && f.Height > 0
}

// Surface is the drawing target a Mode renders into.
type Surface interface {
	Size() (w, h float64)
	Resize(w, h float64)
	Clear()
	// Fade paints the background colour over the whole surface at the given alpha.
	Fade(alpha float64)
	FillCircle(c Vec, r float64, col color.NRGBA)
	StrokeCircle(c Vec, r, width float64, col color.NRGBA)
	Line(a, b Vec, width float64, col color.NRGBA)
	// Text draws s centred on at.
	Text(at Vec, s string, size float64, col color.NRGBA)
	Dot(p Vec, col color.NRGBA)
}

// Mode selects the integration, collision and draw policy of an engine.
type Mode interface {
	Name() string
	Spawn(n int, f *Frame) []Body
	Integrate(b *Body, f *Frame)
	Resolve(bodies []Body, f *Frame)
	Draw(s Surface, bodies []Body, f *Frame)
}

// Resizer is implemented by modes that must repair bodies after the surface
// changes size.
type Resizer interface {
	Resize(bodies []Body, f *Frame)
}

// Interactive is implemented by modes that react to pointer presses.
type Interactive interface {
	PointerDown(bodies []Body, p Vec) int
	PointerUp(bodies []Body, f *Frame)
}

// ScrollSource is polled once per frame for the current scroll velocity.
type ScrollSource interface {
	ScrollVelocity() float64
}

// MotionSettings exposes the user's reduced-motion preference.
type MotionSettings interface {
	IsReducedMotion() bool
}

type Metric interface {
	Name() string
	Observe(bodies []Body, f *Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(bodies []Body, f *Frame)
}

type Config struct {
	Count  int
	Width  float64
	Height float64
	FPS    int
	Seed   int64
	// ValidateBodies checks body invariants after every frame and logs violations.
	ValidateBodies bool
}

// MaxFPS bounds the frame rate so the frame interval stays a positive duration.
const MaxFPS = 1000

func DefaultConfig() Config {
	return Config{
		Count:          100,
		Width:          1280,
		Height:         720,
		FPS:            60,
		Seed:           1,
		ValidateBodies: true,
	}
}

func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidConfig, c.Count)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: surface size must not be negative, got %.0fx%.0f", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FPS <= 0 || c.FPS > MaxFPS {
		return fmt.Errorf("%w: fps must be in [1, %d], got %d", ErrInvalidConfig, MaxFPS, c.FPS)
	}
	return nil
}

type Snapshot struct {
	Frame  uint64
	Bodies []Body
}

type Result struct {
	Snapshots []Snapshot
	Metrics   map[string]float64
	Frames    uint64
	Errors    []error
}
