package physics

import (
	"image/color"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/integrators"
)

// DefaultSkills are the labels of the stock gravity board.
var DefaultSkills = []string{
	"JavaScript", "Python", "React", "SQL", "Math",
	"WebGL", "Node.js", "AI/ML", "Data", "Optimization",
	"Git", "Docker", "Three.js", "Physics", "Canvas",
}

// GravityBoard drops labelled balls that bounce off the walls, push each
// other apart and can be grabbed and thrown with the pointer.
type GravityBoard struct {
	Gravity    float64
	Friction   float64 // horizontal damping on floor contact
	Bounce     float64
	DragSpring float64
	Softness   float64 // fraction of penetration removed per frame
	Throw      float64 // release impulse spans [-Throw/2, Throw/2] per axis
	MinRadius  float64
	MaxRadius  float64
	Labels     []string
	Palette    []color.NRGBA
	Fill       color.NRGBA
	TextColor  color.NRGBA
	FontSize   float64
	LineWidth  float64
}

func NewGravityBoard() *GravityBoard {
	palette, _ := ParsePalette(nil)
	return &GravityBoard{
		Gravity:    0.4,
		Friction:   0.9,
		Bounce:     0.7,
		DragSpring: 0.2,
		Softness:   0.5,
		Throw:      20,
		MinRadius:  30,
		MaxRadius:  50,
		Labels:     DefaultSkills,
		Palette:    palette,
		Fill:       WithAlpha(White, 0.05),
		TextColor:  White,
		FontSize:   12,
		LineWidth:  2,
	}
}

func (g *GravityBoard) Name() string { return "gravity-board" }

// Spawn places bodies in the upper half of the board so they drop in.
func (g *GravityBoard) Spawn(n int, f *dynamo.Frame) []dynamo.Body {
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		r := g.MinRadius + f.Rand.Float64()*(g.MaxRadius-g.MinRadius)
		b := dynamo.Body{
			Pos: dynamo.Vec{
				X: integrators.Clamp(f.Rand.Float64()*f.Width, r, f.Width),
				Y: integrators.Clamp(f.Rand.Float64()*f.Height/2, r, f.Height),
			},
			Vel: dynamo.Vec{
				X: (f.Rand.Float64() - 0.5) * 4,
				Y: f.Rand.Float64() * 5,
			},
			Radius: r,
			Alpha:  1,
		}
		if len(g.Labels) > 0 {
			b.Label = g.Labels[i%len(g.Labels)]
		}
		if len(g.Palette) > 0 {
			b.Color = g.Palette[i%len(g.Palette)]
		} else {
			b.Color = White
		}
		bodies[i] = b
	}
	return bodies
}

func (g *GravityBoard) Integrate(b *dynamo.Body, f *dynamo.Frame) {
	if b.Dragging {
		// pointer coordinates are not clamped, a dragged ball may leave the board
		integrators.Spring(b, f.Pointer, g.DragSpring)
		return
	}

	integrators.Euler(b, dynamo.Vec{Y: g.Gravity})
	integrators.Reflect(&b.Pos.X, &b.Vel.X, b.Radius, f.Width, g.Bounce)
	_, floor := integrators.Reflect(&b.Pos.Y, &b.Vel.Y, b.Radius, f.Height, g.Bounce)
	if floor {
		b.Vel.X *= g.Friction
	}
}

func (g *GravityBoard) Resolve(bodies []dynamo.Body, f *dynamo.Frame) {
	if Separate(bodies, g.Softness) == 0 {
		return
	}
	for i := range bodies {
		b := &bodies[i]
		if b.Dragging {
			continue
		}
		b.Pos.X = integrators.Clamp(b.Pos.X, b.Radius, f.Width)
		b.Pos.Y = integrators.Clamp(b.Pos.Y, b.Radius, f.Height)
	}
}

func (g *GravityBoard) Draw(s dynamo.Surface, bodies []dynamo.Body, f *dynamo.Frame) {
	s.Clear()
	for i := range bodies {
		b := &bodies[i]
		s.FillCircle(b.Pos, b.Radius, g.Fill)
		s.StrokeCircle(b.Pos, b.Radius, g.LineWidth, b.Color)
		if b.Label != "" {
			s.Text(b.Pos, b.Label, g.FontSize, g.TextColor)
		}
	}
}

// PointerDown grabs the first body under p. While a body is held no other
// body can be grabbed.
func (g *GravityBoard) PointerDown(bodies []dynamo.Body, p dynamo.Vec) int {
	if held := Dragged(bodies); held >= 0 {
		return held
	}
	idx := HitTest(bodies, p)
	if idx >= 0 {
		bodies[idx].Dragging = true
	}
	return idx
}

// PointerUp releases the held body with a random throw drawn from the
// engine's seeded source. The spring velocity from the drag is discarded.
func (g *GravityBoard) PointerUp(bodies []dynamo.Body, f *dynamo.Frame) {
	for i := range bodies {
		b := &bodies[i]
		if !b.Dragging {
			continue
		}
		b.Dragging = false
		b.Vel = dynamo.Vec{
			X: (f.Rand.Float64() - 0.5) * g.Throw,
			Y: (f.Rand.Float64() - 0.5) * g.Throw,
		}
	}
}

// Dragged returns the index of the held body, or -1.
func Dragged(bodies []dynamo.Body) int {
	for i := range bodies {
		if bodies[i].Dragging {
			return i
		}
	}
	return -1
}
