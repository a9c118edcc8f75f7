package physics

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func testFrame(w, h float64) *dynamo.Frame {
	return &dynamo.Frame{Width: w, Height: h, Rand: rand.New(rand.NewSource(7))}
}

func allModes() []dynamo.Mode {
	return []dynamo.Mode{
		NewGravityBoard(),
		NewStarfield(),
		NewField(FieldStars),
		NewField(FieldDust),
		NewField(FieldNetwork),
		NewMatrix(),
		NewNoise(),
	}
}

func TestRadiusPositivity(t *testing.T) {
	for _, m := range allModes() {
		t.Run(m.Name(), func(t *testing.T) {
			f := testFrame(800, 600)
			bodies := m.Spawn(60, f)
			surf := dynamo.NewDiscardSurface(800, 600)

			for frame := 0; frame < 300; frame++ {
				f.Index = uint64(frame)
				f.ScrollVelocity = float64(frame%7) - 3
				for i := range bodies {
					m.Integrate(&bodies[i], f)
				}
				m.Resolve(bodies, f)
				m.Draw(surf, bodies, f)

				for i, b := range bodies {
					if !b.IsValid() {
						t.Fatalf("frame %d body %d invalid: %+v", frame, i, b)
					}
				}
			}
		})
	}
}

func TestBoundaryContainment(t *testing.T) {
	g := NewGravityBoard()
	f := testFrame(640, 480)
	bodies := g.Spawn(15, f)

	for frame := 0; frame < 600; frame++ {
		for i := range bodies {
			g.Integrate(&bodies[i], f)
		}
		g.Resolve(bodies, f)

		for i, b := range bodies {
			if b.Pos.X < 0 || b.Pos.X > f.Width || b.Pos.Y < 0 || b.Pos.Y > f.Height {
				t.Fatalf("frame %d body %d escaped: (%f, %f)", frame, i, b.Pos.X, b.Pos.Y)
			}
		}
	}
}

func TestWrapReentersOppositeEdge(t *testing.T) {
	field := NewField(FieldDust)
	f := testFrame(400, 300)

	b := dynamo.Body{Pos: dynamo.Vec{X: 399, Y: 50}, Vel: dynamo.Vec{X: 3}, Radius: 1}
	field.Integrate(&b, f)

	if math.Abs(b.Pos.X-2) > 1e-9 {
		t.Errorf("expected x 2 after wrapping right edge, got %f", b.Pos.X)
	}
	if b.Pos.Y != 50 {
		t.Errorf("expected y unchanged at 50, got %f", b.Pos.Y)
	}

	b = dynamo.Body{Pos: dynamo.Vec{X: 100, Y: 1}, Vel: dynamo.Vec{Y: -2}, Radius: 1}
	field.Integrate(&b, f)
	if math.Abs(b.Pos.Y-299) > 1e-9 || b.Pos.X != 100 {
		t.Errorf("expected (100, 299) after wrapping top edge, got (%f, %f)", b.Pos.X, b.Pos.Y)
	}
}

func TestMatrixFallResetsAtBottom(t *testing.T) {
	m := NewMatrix()
	f := testFrame(400, 300)

	b := dynamo.Body{Pos: dynamo.Vec{X: 10, Y: 298}, Radius: 2, Glyph: 'ア'}
	m.Integrate(&b, f)
	if b.Pos.Y != 0 {
		t.Errorf("expected glyph to restart at the top, got y %f", b.Pos.Y)
	}

	b = dynamo.Body{Pos: dynamo.Vec{X: 10, Y: 100}, Radius: 2, Glyph: 'ア'}
	m.Integrate(&b, f)
	if b.Pos.Y != 104 {
		t.Errorf("expected fall of radius*speed*2 = 4, got y %f", b.Pos.Y)
	}
}

func TestMatrixGlyphRange(t *testing.T) {
	f := testFrame(100, 100)
	for i := 0; i < 1000; i++ {
		g := RandomGlyph(f)
		if g < katakanaBase || g >= katakanaBase+katakanaRange {
			t.Fatalf("glyph %U outside katakana block", g)
		}
	}
}

func TestStarfieldRecycle(t *testing.T) {
	s := NewStarfield()
	f := testFrame(800, 600)

	b := dynamo.Body{Pos: dynamo.Vec{X: 5, Y: 5}, Z: 1.5, Radius: s.MaxSize}
	s.Integrate(&b, f)

	if b.Z != s.MaxDepth(f) {
		t.Errorf("expected recycled depth %f, got %f", s.MaxDepth(f), b.Z)
	}
	if b.Pos.X < -f.Width/2 || b.Pos.X >= f.Width/2 || b.Pos.Y < -f.Height/2 || b.Pos.Y >= f.Height/2 {
		t.Errorf("recycled star outside scatter range: (%f, %f)", b.Pos.X, b.Pos.Y)
	}

	bodies := s.Spawn(500, f)
	for frame := 0; frame < 1000; frame++ {
		for i := range bodies {
			s.Integrate(&bodies[i], f)
			if bodies[i].Z <= 0 || bodies[i].Z > s.MaxDepth(f) {
				t.Fatalf("frame %d star %d depth %f outside (0, %f]", frame, i, bodies[i].Z, s.MaxDepth(f))
			}
		}
	}
}

func TestStarfieldSpeedModulation(t *testing.T) {
	s := NewStarfield()

	tests := []struct {
		name    string
		scroll  float64
		reduced bool
		want    float64
	}{
		{"at rest", 0, false, 2},
		{"scrolling down", 3, false, 2 + 3*3},
		{"scrolling up", -3, false, 2 + 3*3},
		{"reduced motion ignores scroll", 3, true, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFrame(800, 600)
			f.ScrollVelocity = tt.scroll
			f.ReducedMotion = tt.reduced

			b := dynamo.Body{Z: 400, Radius: s.MaxSize}
			s.Integrate(&b, f)

			if got := 400 - b.Z; math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected decrement %f, got %f", tt.want, got)
			}
		})
	}
}

func TestStarfieldReducedCount(t *testing.T) {
	s := NewStarfield()
	f := testFrame(800, 600)
	f.ReducedMotion = true

	if n := len(s.Spawn(800, f)); n != 200 {
		t.Errorf("expected 200 stars under reduced motion, got %d", n)
	}
}

func TestStarfieldZeroSurface(t *testing.T) {
	s := NewStarfield()
	f := testFrame(800, 600)
	bodies := s.Spawn(50, f)
	before := dynamo.CloneBodies(bodies)

	empty := testFrame(0, 0)
	for i := range bodies {
		s.Integrate(&bodies[i], empty)
	}
	s.Draw(&recordingSurface{}, bodies, empty)
	s.Resize(bodies, empty)

	for i := range bodies {
		if bodies[i] != before[i] {
			t.Fatalf("star %d changed on a zero-area frame", i)
		}
	}
	if _, ok := s.Project(&bodies[0], empty); ok {
		t.Error("expected projection to fail on a zero-area surface")
	}
}

func TestStarfieldResizeRegeneratesDeepStars(t *testing.T) {
	s := NewStarfield()
	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 10, Y: 10}, Z: 700, Radius: 3},
		{Pos: dynamo.Vec{X: 10, Y: 10}, Z: 100, Radius: 3},
	}

	small := testFrame(400, 300)
	s.Resize(bodies, small)

	if bodies[0].Z > 400 {
		t.Errorf("expected deep star regenerated within 400, got %f", bodies[0].Z)
	}
	if bodies[1].Z != 100 || bodies[1].Pos.X != 10 {
		t.Errorf("expected in-range star untouched, got %+v", bodies[1])
	}
}

func TestNetworkEdgeThreshold(t *testing.T) {
	tests := []struct {
		dist float64
		want int
	}{
		{99, 1},
		{100, 0},
		{101, 0},
	}

	for _, tt := range tests {
		bodies := []dynamo.Body{
			{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 1},
			{Pos: dynamo.Vec{X: 100 + tt.dist, Y: 100}, Radius: 1},
		}
		if got := len(Links(bodies, 100)); got != tt.want {
			t.Errorf("distance %.0f: expected %d edges, got %d", tt.dist, tt.want, got)
		}
	}
}

func TestNetworkDrawsEdges(t *testing.T) {
	field := NewField(FieldNetwork)
	f := testFrame(400, 400)
	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 1},
		{Pos: dynamo.Vec{X: 199, Y: 100}, Radius: 1},
		{Pos: dynamo.Vec{X: 350, Y: 350}, Radius: 1},
	}

	surf := &recordingSurface{}
	field.Draw(surf, bodies, f)

	if surf.lines != 1 {
		t.Errorf("expected 1 edge, got %d", surf.lines)
	}
	if surf.circles != 3 {
		t.Errorf("expected 3 particles, got %d", surf.circles)
	}
	if surf.clears != 0 || surf.fades != 1 {
		t.Errorf("expected a single fade and no clear, got %d fades %d clears", surf.fades, surf.clears)
	}
}

func TestHitTestTieBreak(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 500, Y: 500}, Radius: 10},
		{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 40},
		{Pos: dynamo.Vec{X: 110, Y: 100}, Radius: 40},
	}
	p := dynamo.Vec{X: 105, Y: 100}

	for i := 0; i < 10; i++ {
		if got := HitTest(bodies, p); got != 1 {
			t.Fatalf("expected body 1, got %d", got)
		}
	}
	if got := HitTest(bodies, dynamo.Vec{X: 800, Y: 800}); got != -1 {
		t.Errorf("expected miss, got %d", got)
	}
}

func TestSeparationMonotonic(t *testing.T) {
	g := NewGravityBoard()
	g.Gravity = 0
	f := testFrame(1000, 1000)

	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 480, Y: 500}, Radius: 40},
		{Pos: dynamo.Vec{X: 520, Y: 500}, Radius: 30},
	}
	reach := 70.0
	prev := r2.Norm(r2.Sub(bodies[1].Pos, bodies[0].Pos))

	for step := 0; step < 50; step++ {
		for i := range bodies {
			g.Integrate(&bodies[i], f)
		}
		g.Resolve(bodies, f)

		d := r2.Norm(r2.Sub(bodies[1].Pos, bodies[0].Pos))
		if d < prev-1e-9 {
			t.Fatalf("step %d: distance shrank from %f to %f", step, prev, d)
		}
		prev = d
	}
	if prev < reach-1e-6 {
		t.Errorf("expected bodies separated to %f, got %f", reach, prev)
	}
}

func TestSeparateCoincidentCentres(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 10},
		{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 10},
	}
	if n := Separate(bodies, 0.5); n != 1 {
		t.Fatalf("expected 1 overlap, got %d", n)
	}
	if bodies[0].Pos.X != 95 || bodies[1].Pos.X != 105 {
		t.Errorf("expected split along x to 95/105, got %f/%f", bodies[0].Pos.X, bodies[1].Pos.X)
	}
}

func TestSeparatePinsDraggedBody(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.Vec{X: 100, Y: 100}, Radius: 10, Dragging: true},
		{Pos: dynamo.Vec{X: 110, Y: 100}, Radius: 10},
	}
	Separate(bodies, 0.5)

	if bodies[0].Pos.X != 100 {
		t.Errorf("dragged body moved to %f", bodies[0].Pos.X)
	}
	if bodies[1].Pos.X != 115 {
		t.Errorf("expected partner pushed to 115, got %f", bodies[1].Pos.X)
	}
}

func TestFieldSpawnSpeed(t *testing.T) {
	f := testFrame(400, 400)
	for _, kind := range []FieldKind{FieldStars, FieldDust, FieldNetwork} {
		field := NewField(kind)
		field.Speed = 2
		limit := field.Speed / 2
		if kind == FieldStars {
			limit *= 5
		}
		for _, b := range field.Spawn(200, f) {
			if math.Abs(b.Vel.X) > limit || math.Abs(b.Vel.Y) > limit {
				t.Fatalf("%s: velocity %v exceeds %f", kind, b.Vel, limit)
			}
		}
	}
}

func TestNoiseReducedMotion(t *testing.T) {
	n := NewNoise()
	n.Density = 0.25
	f := testFrame(100, 100)

	surf := &recordingSurface{}
	n.Draw(surf, nil, f)
	if surf.dots != 2500 {
		t.Errorf("expected 2500 grain dots, got %d", surf.dots)
	}

	f.ReducedMotion = true
	surf = &recordingSurface{}
	n.Draw(surf, nil, f)
	if surf.dots != 0 {
		t.Errorf("expected no grain under reduced motion, got %d", surf.dots)
	}
	if len(n.Spawn(50, f)) != 0 {
		t.Error("noise should not carry bodies")
	}
}

func TestTrailFade(t *testing.T) {
	tests := []struct {
		opacity, want float64
	}{
		{0, 1},
		{0.5, 0.5},
		{0.95, 0.1},
		{1, 0.1},
	}
	for _, tt := range tests {
		if got := TrailFade(tt.opacity); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("TrailFade(%f) = %f, want %f", tt.opacity, got, tt.want)
		}
	}
}

type recordingSurface struct {
	clears, fades, circles, strokes, lines, texts, dots int
}

func (r *recordingSurface) Size() (float64, float64)                        { return 0, 0 }
func (r *recordingSurface) Resize(float64, float64)                         {}
func (r *recordingSurface) Clear()                                          { r.clears++ }
func (r *recordingSurface) Fade(float64)                                    { r.fades++ }
func (r *recordingSurface) FillCircle(dynamo.Vec, float64, color.NRGBA)     { r.circles++ }
func (r *recordingSurface) StrokeCircle(dynamo.Vec, float64, float64, color.NRGBA) {
	r.strokes++
}
func (r *recordingSurface) Line(dynamo.Vec, dynamo.Vec, float64, color.NRGBA) { r.lines++ }
func (r *recordingSurface) Text(dynamo.Vec, string, float64, color.NRGBA)     { r.texts++ }
func (r *recordingSurface) Dot(dynamo.Vec, color.NRGBA)                       { r.dots++ }
