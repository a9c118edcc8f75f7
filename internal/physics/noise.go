package physics

import (
	"image/color"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Noise repaints a sparse layer of random grey dots every frame, a film
// grain overlay. It carries no bodies and draws nothing when the user asks
// for reduced motion.
type Noise struct {
	Density float64 // fraction of surface pixels painted per frame
}

func NewNoise() *Noise {
	return &Noise{Density: 0.1}
}

func (n *Noise) Name() string { return "noise" }

func (n *Noise) Spawn(int, *dynamo.Frame) []dynamo.Body {
	return []dynamo.Body{}
}

func (n *Noise) Integrate(*dynamo.Body, *dynamo.Frame) {}

func (n *Noise) Resolve([]dynamo.Body, *dynamo.Frame) {}

func (n *Noise) Draw(s dynamo.Surface, _ []dynamo.Body, f *dynamo.Frame) {
	s.Clear()
	if f.ReducedMotion || !f.HasArea() {
		return
	}
	dots := int(n.Density * f.Width * f.Height)
	for i := 0; i < dots; i++ {
		p := dynamo.Vec{X: f.Rand.Float64() * f.Width, Y: f.Rand.Float64() * f.Height}
		v := uint8(f.Rand.Intn(256))
		s.Dot(p, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
}
