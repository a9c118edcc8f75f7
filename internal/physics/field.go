package physics

import (
	"image/color"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/integrators"
	"gonum.org/v1/gonum/spatial/r2"
)

type FieldKind int

const (
	FieldStars FieldKind = iota
	FieldDust
	FieldNetwork
)

func (k FieldKind) String() string {
	switch k {
	case FieldStars:
		return "stars"
	case FieldDust:
		return "dust"
	default:
		return "network"
	}
}

// Field drifts particles at a constant velocity fixed at spawn and wraps them
// around every edge. The network kind also links nearby particles.
type Field struct {
	Kind         FieldKind
	Speed        float64
	Color        color.NRGBA
	Opacity      float64
	LinkDistance float64
	LinkWidth    float64
}

func NewField(kind FieldKind) *Field {
	return &Field{
		Kind:         kind,
		Speed:        1,
		Color:        White,
		Opacity:      0.5,
		LinkDistance: 100,
		LinkWidth:    0.5,
	}
}

func (p *Field) Name() string { return p.Kind.String() }

func (p *Field) Spawn(n int, f *dynamo.Frame) []dynamo.Body {
	spread, maxSize := 1.0, 3.0
	if p.Kind == FieldStars {
		spread, maxSize = 5, 2
	}
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		bodies[i] = dynamo.Body{
			Pos: dynamo.Vec{X: f.Rand.Float64() * f.Width, Y: f.Rand.Float64() * f.Height},
			Vel: dynamo.Vec{
				X: (f.Rand.Float64() - 0.5) * p.Speed * spread,
				Y: (f.Rand.Float64() - 0.5) * p.Speed * spread,
			},
			Radius: maxSize * (0.1 + 0.9*f.Rand.Float64()),
			Alpha:  p.Opacity,
			Color:  p.Color,
		}
	}
	return bodies
}

func (p *Field) Integrate(b *dynamo.Body, f *dynamo.Frame) {
	integrators.Drift(b)
	b.Pos.X = integrators.Wrap(b.Pos.X, f.Width)
	b.Pos.Y = integrators.Wrap(b.Pos.Y, f.Height)
}

func (p *Field) Resolve([]dynamo.Body, *dynamo.Frame) {}

func (p *Field) Draw(s dynamo.Surface, bodies []dynamo.Body, f *dynamo.Frame) {
	if p.Kind == FieldStars {
		s.Clear()
	} else {
		s.Fade(TrailFade(p.Opacity))
	}

	if p.Kind == FieldNetwork {
		for _, l := range Links(bodies, p.LinkDistance) {
			alpha := (p.LinkDistance - l.Dist) / p.LinkDistance * p.Opacity * 0.5
			s.Line(bodies[l.I].Pos, bodies[l.J].Pos, p.LinkWidth, WithAlpha(p.Color, alpha))
		}
	}

	col := WithAlpha(p.Color, p.Opacity)
	for i := range bodies {
		s.FillCircle(bodies[i].Pos, bodies[i].Radius, col)
	}
}

// Link is an edge between two particles closer than the link distance.
type Link struct {
	I, J int
	Dist float64
}

// Links returns every pair i < j whose centres are strictly closer than
// threshold.
func Links(bodies []dynamo.Body, threshold float64) []Link {
	var links []Link
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			d := r2.Norm(r2.Sub(bodies[i].Pos, bodies[j].Pos))
			if d < threshold {
				links = append(links, Link{I: i, J: j, Dist: d})
			}
		}
	}
	return links
}
