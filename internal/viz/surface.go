package viz

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/fieldsim/internal/dynamo"
)

// inkThreshold is the intensity at which a sub-pixel lights up.
const inkThreshold = 0.25

// BrailleSurface renders world coordinates onto a braille Canvas. Each
// sub-pixel keeps an intensity so Fade can dim trails over several frames;
// each cell keeps the colour of the last primitive that touched it.
type BrailleSurface struct {
	canvas *Canvas
	w, h   float64
	ink    []float64
	tint   []color.NRGBA
	text   map[int]rune
	styles map[color.NRGBA]lipgloss.Style
}

// NewBrailleSurface maps a w×h world onto a cols×rows character grid.
func NewBrailleSurface(cols, rows int, w, h float64) *BrailleSurface {
	s := &BrailleSurface{styles: make(map[color.NRGBA]lipgloss.Style)}
	s.SetGrid(cols, rows)
	s.Resize(w, h)
	return s
}

// SetGrid changes the character grid. The picture is lost.
func (s *BrailleSurface) SetGrid(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	s.canvas = NewCanvas(cols, rows)
	s.ink = make([]float64, cols*2*rows*4)
	s.tint = make([]color.NRGBA, cols*rows)
	s.text = make(map[int]rune)
}

func (s *BrailleSurface) Grid() (cols, rows int) { return s.canvas.Width, s.canvas.Height }

func (s *BrailleSurface) Size() (float64, float64) { return s.w, s.h }

func (s *BrailleSurface) Resize(w, h float64) {
	s.w, s.h = w, h
	s.Clear()
}

func (s *BrailleSurface) Clear() {
	clear(s.ink)
	clear(s.text)
}

func (s *BrailleSurface) Fade(alpha float64) {
	keep := 1 - alpha
	for i := range s.ink {
		s.ink[i] *= keep
	}
	clear(s.text)
}

// sub converts world units to sub-pixels along x.
func (s *BrailleSurface) sub(v float64) float64 {
	if s.w <= 0 {
		return 0
	}
	return v * float64(s.canvas.Width*2) / s.w
}

func (s *BrailleSurface) toSub(p dynamo.Vec) (float64, float64) {
	if s.w <= 0 || s.h <= 0 {
		return -1, -1
	}
	return p.X / s.w * float64(s.canvas.Width*2), p.Y / s.h * float64(s.canvas.Height*4)
}

func (s *BrailleSurface) plot(x, y int, intensity float64, col color.NRGBA) {
	cw, ch := s.canvas.Width*2, s.canvas.Height*4
	if x < 0 || y < 0 || x >= cw || y >= ch {
		return
	}
	i := y*cw + x
	if intensity > s.ink[i] {
		s.ink[i] = intensity
	}
	s.tint[(y/4)*s.canvas.Width+x/2] = col
}

func (s *BrailleSurface) FillCircle(c dynamo.Vec, r float64, col color.NRGBA) {
	cx, cy := s.toSub(c)
	rr := s.sub(r)
	a := float64(col.A) / 255
	if rr < 0.75 {
		s.plot(int(cx), int(cy), a, col)
		return
	}
	for y := int(cy - rr); y <= int(cy+rr); y++ {
		for x := int(cx - rr); x <= int(cx+rr); x++ {
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= rr {
				s.plot(x, y, a, col)
			}
		}
	}
}

func (s *BrailleSurface) StrokeCircle(c dynamo.Vec, r, width float64, col color.NRGBA) {
	cx, cy := s.toSub(c)
	rr := s.sub(r)
	steps := max(8, int(2*math.Pi*rr))
	for i := 0; i < steps; i++ {
		th := 2 * math.Pi * float64(i) / float64(steps)
		s.plot(int(cx+rr*math.Cos(th)), int(cy+rr*math.Sin(th)), 1, col)
	}
}

func (s *BrailleSurface) Line(a, b dynamo.Vec, width float64, col color.NRGBA) {
	x0, y0 := s.toSub(a)
	x1, y1 := s.toSub(b)
	n := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))) + 1
	// thin, faint edges still need to register on a 1-bit grid
	intensity := math.Max(float64(col.A)/255*4, inkThreshold)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		s.plot(int(x0+(x1-x0)*t), int(y0+(y1-y0)*t), intensity, col)
	}
}

func (s *BrailleSurface) Dot(p dynamo.Vec, col color.NRGBA) {
	x, y := s.toSub(p)
	l, _, _ := colorful.Color{R: float64(col.R) / 255, G: float64(col.G) / 255, B: float64(col.B) / 255}.Lab()
	s.plot(int(x), int(y), l*float64(col.A)/255, col)
}

// Text writes s centred on the cell under at. Characters replace braille.
func (s *BrailleSurface) Text(at dynamo.Vec, str string, size float64, col color.NRGBA) {
	x, y := s.toSub(at)
	if x < 0 || y < 0 {
		return
	}
	row, col0 := int(y)/4, int(x)/2
	runes := []rune(str)
	col0 -= len(runes) / 2
	if row < 0 || row >= s.canvas.Height {
		return
	}
	for i, r := range runes {
		c := col0 + i
		if c < 0 || c >= s.canvas.Width {
			continue
		}
		s.text[row*s.canvas.Width+c] = narrow(r)
		s.tint[row*s.canvas.Width+c] = col
	}
}

// narrow maps full-width katakana onto the half-width block so glyphs take
// one terminal cell.
func narrow(r rune) rune {
	if r >= 0x30A0 && r < 0x3100 {
		return 0xFF66 + (r-0x30A0)%56
	}
	return r
}

// Canvas lights the braille dots whose intensity reaches the threshold and
// returns the canvas.
func (s *BrailleSurface) Canvas() *Canvas {
	s.canvas.Clear()
	cw := s.canvas.Width * 2
	for i, v := range s.ink {
		if v >= inkThreshold {
			s.canvas.Set(i%cw, i/cw)
		}
	}
	return s.canvas
}

// Render returns the picture as coloured terminal text.
func (s *BrailleSurface) Render() string {
	c := s.Canvas()
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		var run []rune
		var runCol color.NRGBA
		flush := func() {
			if len(run) > 0 {
				b.WriteString(s.style(runCol).Render(string(run)))
				run = run[:0]
			}
		}
		for col := 0; col < c.Width; col++ {
			idx := row*c.Width + col
			r, ok := s.text[idx]
			if !ok {
				r = c.Rune(col, row)
			}
			tint := s.tint[idx]
			if r == brailleBlank {
				tint = color.NRGBA{}
			}
			if tint != runCol {
				flush()
				runCol = tint
			}
			run = append(run, r)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *BrailleSurface) style(c color.NRGBA) lipgloss.Style {
	if st, ok := s.styles[c]; ok {
		return st
	}
	st := lipgloss.NewStyle()
	if c.A != 0 {
		hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
		st = st.Foreground(lipgloss.Color(hex))
	}
	s.styles[c] = st
	return st
}
