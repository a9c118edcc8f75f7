package export

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster is an in-memory Surface backed by an RGBA image. It blends every
// primitive source-over, so fade trails build up the way they do on a canvas.
type Raster struct {
	img        *image.RGBA
	w, h       float64
	Background color.NRGBA
}

func NewRaster(w, h float64) *Raster {
	r := &Raster{Background: color.NRGBA{A: 255}}
	r.Resize(w, h)
	return r
}

func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (float64, float64) { return r.w, r.h }

// Resize reallocates the backing image. Like a canvas, resizing clears it.
func (r *Raster) Resize(w, h float64) {
	r.w, r.h = math.Max(w, 0), math.Max(h, 0)
	r.img = image.NewRGBA(image.Rect(0, 0, int(math.Ceil(r.w)), int(math.Ceil(r.h))))
	r.Clear()
}

func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
}

func (r *Raster) Fade(alpha float64) {
	bg := r.Background
	bg.A = uint8(math.Round(math.Min(math.Max(alpha, 0), 1) * 255))
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Over)
}

func (r *Raster) FillCircle(c dynamo.Vec, radius float64, col color.NRGBA) {
	r.span(c, radius, func(d float64) float64 {
		return clamp01(radius + 0.5 - d)
	}, col)
}

func (r *Raster) StrokeCircle(c dynamo.Vec, radius, width float64, col color.NRGBA) {
	half := math.Max(width, 1) / 2
	r.span(c, radius+half, func(d float64) float64 {
		return clamp01(half + 0.5 - math.Abs(d-radius))
	}, col)
}

// span visits every pixel within reach of c and blends col scaled by the
// coverage cover returns for that pixel's distance from c.
func (r *Raster) span(c dynamo.Vec, reach float64, cover func(d float64) float64, col color.NRGBA) {
	b := r.img.Bounds()
	x0 := max(int(math.Floor(c.X-reach-1)), b.Min.X)
	x1 := min(int(math.Ceil(c.X+reach+1)), b.Max.X-1)
	y0 := max(int(math.Floor(c.Y-reach-1)), b.Min.Y)
	y1 := min(int(math.Ceil(c.Y+reach+1)), b.Max.Y-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-c.X, float64(y)+0.5-c.Y)
			if a := cover(d); a > 0 {
				r.blend(x, y, col, a)
			}
		}
	}
}

func (r *Raster) Line(a, b dynamo.Vec, width float64, col color.NRGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	steps := int(math.Ceil(length * 2))
	if steps == 0 {
		r.Dot(a, col)
		return
	}
	// sub-pixel widths thin the colour instead of the stroke
	cov := math.Min(width, 1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		r.blend(pixel(a.X+dx*t), pixel(a.Y+dy*t), col, cov)
	}
}

func (r *Raster) Dot(p dynamo.Vec, col color.NRGBA) {
	r.blend(pixel(p.X), pixel(p.Y), col, 1)
}

// pixel maps a coordinate to the pixel containing it, so [-1, 0) stays off-surface.
func pixel(v float64) int {
	return int(math.Floor(v))
}

// Text centres s on at. basicfont has a single size, so size is ignored.
func (r *Raster) Text(at dynamo.Vec, s string, size float64, col color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(col), Face: face}
	w := d.MeasureString(s)
	m := face.Metrics()
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(at.X)) - w/2,
		Y: fixed.I(int(at.Y)) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(s)
}

func (r *Raster) blend(x, y int, col color.NRGBA, coverage float64) {
	if !(image.Point{X: x, Y: y}.In(r.img.Bounds())) {
		return
	}
	a := float64(col.A) / 255 * coverage
	if a <= 0 {
		return
	}
	i := r.img.PixOffset(x, y)
	px := r.img.Pix[i : i+4 : i+4]
	px[0] = uint8(float64(col.R)*a + float64(px[0])*(1-a) + 0.5)
	px[1] = uint8(float64(col.G)*a + float64(px[1])*(1-a) + 0.5)
	px[2] = uint8(float64(col.B)*a + float64(px[2])*(1-a) + 0.5)
	px[3] = uint8(255*a + float64(px[3])*(1-a) + 0.5)
}

func (r *Raster) WritePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
