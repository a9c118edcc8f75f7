package physics

import (
	"image/color"
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Starfield flies stars toward the viewer. Depth shrinks every frame by a
// speed that grows with the absolute scroll velocity; a star that passes the
// viewer is recycled to the far plane.
type Starfield struct {
	BaseSpeed    float64
	ScrollGain   float64
	ReducedSpeed float64
	ReducedCount int
	MaxSize      float64
	FadeAlpha    float64
	Color        color.NRGBA
}

func NewStarfield() *Starfield {
	return &Starfield{
		BaseSpeed:    2,
		ScrollGain:   3,
		ReducedSpeed: 0.5,
		ReducedCount: 200,
		MaxSize:      3,
		FadeAlpha:    0.3,
		Color:        White,
	}
}

func (s *Starfield) Name() string { return "starfield-3d" }

// MaxDepth is the far plane. It tracks the surface width so the projection
// keeps its field of view across resizes.
func (s *Starfield) MaxDepth(f *dynamo.Frame) float64 {
	return f.Width
}

func (s *Starfield) Spawn(n int, f *dynamo.Frame) []dynamo.Body {
	if f.ReducedMotion && s.ReducedCount > 0 && n > s.ReducedCount {
		n = s.ReducedCount
	}
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		b := &bodies[i]
		b.Radius = s.MaxSize
		b.Alpha = f.Rand.Float64()
		b.Color = s.Color
		s.scatter(b, f)
		// (0, max]: never spawn on the viewer plane
		b.Z = s.MaxDepth(f) * (1 - f.Rand.Float64())
	}
	return bodies
}

func (s *Starfield) scatter(b *dynamo.Body, f *dynamo.Frame) {
	b.Pos.X = f.Rand.Float64()*f.Width - f.Width/2
	b.Pos.Y = f.Rand.Float64()*f.Height - f.Height/2
}

// Speed is the depth decrement for this frame.
func (s *Starfield) Speed(f *dynamo.Frame) float64 {
	if f.ReducedMotion {
		return s.ReducedSpeed
	}
	return s.BaseSpeed + s.ScrollGain*math.Abs(f.ScrollVelocity)
}

// Integrate is a no-op on a zero-area surface: the far plane collapses to
// zero and the projection would divide by it.
func (s *Starfield) Integrate(b *dynamo.Body, f *dynamo.Frame) {
	if !f.HasArea() {
		return
	}
	b.Z -= s.Speed(f)
	if b.Z <= 0 {
		b.Z = s.MaxDepth(f)
		s.scatter(b, f)
	}
}

func (s *Starfield) Resolve([]dynamo.Body, *dynamo.Frame) {}

// Project maps a star onto the surface.
func (s *Starfield) Project(b *dynamo.Body, f *dynamo.Frame) (dynamo.Vec, bool) {
	if !f.HasArea() || b.Z <= 0 {
		return dynamo.Vec{}, false
	}
	return dynamo.Vec{
		X: b.Pos.X/b.Z*f.Width + f.Width/2,
		Y: b.Pos.Y/b.Z*f.Width + f.Height/2,
	}, true
}

func (s *Starfield) Draw(surf dynamo.Surface, bodies []dynamo.Body, f *dynamo.Frame) {
	if !f.HasArea() {
		return
	}
	surf.Fade(s.FadeAlpha)
	for i := range bodies {
		b := &bodies[i]
		p, ok := s.Project(b, f)
		if !ok || p.X <= 0 || p.X >= f.Width || p.Y <= 0 || p.Y >= f.Height {
			continue
		}
		size := (1 - b.Z/s.MaxDepth(f)) * b.Radius
		if size <= 0 {
			continue
		}
		surf.FillCircle(p, size, WithAlpha(b.Color, b.Alpha))
	}
}

// Resize regenerates stars that lie beyond the new far plane or outside the
// new scatter rectangle. Every other star keeps its state.
func (s *Starfield) Resize(bodies []dynamo.Body, f *dynamo.Frame) {
	if !f.HasArea() {
		return
	}
	maxDepth := s.MaxDepth(f)
	for i := range bodies {
		b := &bodies[i]
		if b.Z > maxDepth || math.Abs(b.Pos.X) > f.Width/2 || math.Abs(b.Pos.Y) > f.Height/2 {
			s.scatter(b, f)
			b.Z = maxDepth * (1 - f.Rand.Float64())
		}
	}
}
