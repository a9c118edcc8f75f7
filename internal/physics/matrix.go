package physics

import (
	"image/color"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/integrators"
)

const (
	katakanaBase  = 0x30A0
	katakanaRange = 96
)

// Matrix rains glyphs down the surface. Each glyph falls at a rate
// proportional to its size and has a small chance per frame of changing.
type Matrix struct {
	Speed      float64
	FallScale  float64
	MaxSize    float64
	SwapChance float64
	Color      color.NRGBA
	Opacity    float64
}

func NewMatrix() *Matrix {
	return &Matrix{
		Speed:      1,
		FallScale:  2,
		MaxSize:    3,
		SwapChance: 0.05,
		Color:      MustParseColor("#00ff41"),
		Opacity:    0.5,
	}
}

func (m *Matrix) Name() string { return "matrix" }

func RandomGlyph(f *dynamo.Frame) rune {
	return rune(katakanaBase + f.Rand.Intn(katakanaRange))
}

func (m *Matrix) Spawn(n int, f *dynamo.Frame) []dynamo.Body {
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		bodies[i] = dynamo.Body{
			Pos:    dynamo.Vec{X: f.Rand.Float64() * f.Width, Y: f.Rand.Float64() * f.Height},
			Radius: m.MaxSize * (0.1 + 0.9*f.Rand.Float64()),
			Glyph:  RandomGlyph(f),
			Alpha:  m.Opacity,
			Color:  m.Color,
		}
	}
	return bodies
}

func (m *Matrix) Integrate(b *dynamo.Body, f *dynamo.Frame) {
	b.Pos.Y += b.Radius * m.Speed * m.FallScale
	if b.Pos.Y > f.Height {
		b.Pos.Y = 0
	}
	b.Pos.X = integrators.Wrap(b.Pos.X, f.Width)
}

func (m *Matrix) Resolve([]dynamo.Body, *dynamo.Frame) {}

// Draw writes each glyph and may swap it. The swap is cosmetic and never
// touches position or velocity.
func (m *Matrix) Draw(s dynamo.Surface, bodies []dynamo.Body, f *dynamo.Frame) {
	s.Clear()
	col := WithAlpha(m.Color, m.Opacity)
	for i := range bodies {
		b := &bodies[i]
		s.Text(b.Pos, string(b.Glyph), b.Radius+10, col)
		if f.Rand.Float64() < m.SwapChance {
			b.Glyph = RandomGlyph(f)
		}
	}
}
