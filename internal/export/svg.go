package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/viz"
)

// minOpacity is where a faded element can no longer change an 8-bit pixel.
const minOpacity = 1.0 / 255

type svgElement struct {
	head    string // opening tag without its opacity attribute
	attr    string // name of the opacity attribute
	tail    string // "/>" or ">text</text>"
	opacity float64
}

func (e svgElement) String() string {
	return fmt.Sprintf(`%s %s="%.3f"%s`, e.head, e.attr, e.opacity, e.tail)
}

// SVG is a Surface that records primitives as SVG elements. Fade is emulated
// by dimming earlier elements and dropping those that become invisible.
type SVG struct {
	w, h       float64
	Background color.NRGBA
	elems      []svgElement
}

func NewSVG(w, h float64) *SVG {
	return &SVG{w: w, h: h, Background: color.NRGBA{A: 255}}
}

func (s *SVG) Size() (float64, float64) { return s.w, s.h }

func (s *SVG) Resize(w, h float64) {
	s.w, s.h = w, h
	s.elems = s.elems[:0]
}

func (s *SVG) Clear() { s.elems = s.elems[:0] }

func (s *SVG) Fade(alpha float64) {
	keep := s.elems[:0]
	for _, e := range s.elems {
		e.opacity *= 1 - alpha
		if e.opacity >= minOpacity {
			keep = append(keep, e)
		}
	}
	s.elems = keep
}

func (s *SVG) add(col color.NRGBA, head, attr, tail string) {
	op := float64(col.A) / 255
	if op < minOpacity {
		return
	}
	s.elems = append(s.elems, svgElement{head: head, attr: attr, tail: tail, opacity: op})
}

func (s *SVG) FillCircle(c dynamo.Vec, r float64, col color.NRGBA) {
	s.add(col, fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s"`, c.X, c.Y, r, hex(col)), "fill-opacity", "/>")
}

func (s *SVG) StrokeCircle(c dynamo.Vec, r, width float64, col color.NRGBA) {
	s.add(col, fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.2f" fill="none" stroke="%s" stroke-width="%.1f"`,
		c.X, c.Y, r, hex(col), width), "stroke-opacity", "/>")
}

func (s *SVG) Line(a, b dynamo.Vec, width float64, col color.NRGBA) {
	s.add(col, fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.2f"`,
		a.X, a.Y, b.X, b.Y, hex(col), width), "stroke-opacity", "/>")
}

func (s *SVG) Text(at dynamo.Vec, str string, size float64, col color.NRGBA) {
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(str))
	s.add(col, fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="%.0f" text-anchor="middle" dominant-baseline="central" fill="%s"`,
		at.X, at.Y, size, hex(col)), "fill-opacity", ">"+esc.String()+"</text>")
}

func (s *SVG) Dot(p dynamo.Vec, col color.NRGBA) {
	s.add(col, fmt.Sprintf(`<rect x="%.0f" y="%.0f" width="1" height="1" fill="%s"`, math.Floor(p.X), math.Floor(p.Y), hex(col)), "fill-opacity", "/>")
}

// Len is the number of live elements.
func (s *SVG) Len() int { return len(s.elems) }

func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

func (s *SVG) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, s.w, s.h, s.w, s.h, hex(s.Background))
	for _, e := range s.elems {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func hex(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fg string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, width, height, width, height, fg)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrailsToSVG draws the path of every body across the sampled snapshots.
func TrailsToSVG(snapshots []dynamo.Snapshot, width, height float64, stroke string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if len(snapshots) > 1 {
		n := len(snapshots[0].Bodies)
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.8" d="`, stroke)
			for j, snap := range snapshots {
				if i >= len(snap.Bodies) {
					break
				}
				cmd := 'L'
				if j == 0 {
					cmd = 'M'
				}
				fmt.Fprintf(&sb, "%c%.1f,%.1f ", cmd, snap.Bodies[i].Pos.X, snap.Bodies[i].Pos.Y)
			}
			sb.WriteString("\"/>\n")
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
