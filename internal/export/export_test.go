package export

import (
	"bytes"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{R: 255, A: 255}

func TestRasterClearAndFill(t *testing.T) {
	r := NewRaster(10, 10)
	assert.Equal(t, color.RGBA{A: 255}, r.Image().RGBAAt(5, 5))

	r.FillCircle(dynamo.Vec{X: 5, Y: 5}, 3, red)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, r.Image().RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{A: 255}, r.Image().RGBAAt(0, 0), "corner outside the circle")

	r.Clear()
	assert.Equal(t, color.RGBA{A: 255}, r.Image().RGBAAt(5, 5))
}

func TestRasterFadeDimsPixels(t *testing.T) {
	r := NewRaster(4, 4)
	r.FillCircle(dynamo.Vec{X: 2, Y: 2}, 4, red)
	r.Fade(0.5)

	got := r.Image().RGBAAt(2, 2).R
	assert.InDelta(t, 127, float64(got), 3)

	for i := 0; i < 20; i++ {
		r.Fade(0.5)
	}
	assert.Less(t, r.Image().RGBAAt(2, 2).R, uint8(5))
}

func TestRasterClipsOffSurface(t *testing.T) {
	r := NewRaster(5, 5)
	assert.NotPanics(t, func() {
		r.FillCircle(dynamo.Vec{X: -50, Y: -50}, 10, red)
		r.StrokeCircle(dynamo.Vec{X: 100, Y: 2}, 3, 2, red)
		r.Line(dynamo.Vec{X: -10, Y: -10}, dynamo.Vec{X: 20, Y: 20}, 1, red)
		r.Dot(dynamo.Vec{X: 7, Y: 7}, red)
	})
}

func TestRasterFloorsNegativeCoordinates(t *testing.T) {
	black := color.RGBA{A: 255}
	r := NewRaster(4, 4)

	r.Dot(dynamo.Vec{X: -0.5, Y: 2}, red)
	assert.Equal(t, black, r.Image().RGBAAt(0, 2), "dot left of the surface")

	r.Line(dynamo.Vec{X: -0.9, Y: 1}, dynamo.Vec{X: -0.1, Y: 1}, 1, red)
	assert.Equal(t, black, r.Image().RGBAAt(0, 1), "line left of the surface")

	r.Dot(dynamo.Vec{X: 1, Y: -0.25}, red)
	assert.Equal(t, black, r.Image().RGBAAt(1, 0), "dot above the surface")

	r.Dot(dynamo.Vec{X: 0.5, Y: 2}, red)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, r.Image().RGBAAt(0, 2))
}

func TestRasterResizeClears(t *testing.T) {
	r := NewRaster(4, 4)
	r.FillCircle(dynamo.Vec{X: 2, Y: 2}, 4, red)
	r.Resize(8, 6)

	w, h := r.Size()
	assert.Equal(t, 8.0, w)
	assert.Equal(t, 6.0, h)
	assert.Equal(t, 8, r.Image().Bounds().Dx())
	assert.Equal(t, color.RGBA{A: 255}, r.Image().RGBAAt(2, 2))
}

func TestRasterText(t *testing.T) {
	r := NewRaster(100, 40)
	r.Text(dynamo.Vec{X: 50, Y: 20}, "Go", 12, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	lit := 0
	b := r.Image().Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r.Image().RGBAAt(x, y).G > 0 {
				lit++
				assert.InDelta(t, 50, x, 10, "text is centred horizontally")
			}
		}
	}
	assert.Positive(t, lit)
}

func TestRasterWritePNG(t *testing.T) {
	r := NewRaster(12, 7)
	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 7, img.Bounds().Dy())
}

func TestGIFRecorderSamplesEveryNth(t *testing.T) {
	r := NewRaster(8, 8)
	rec := NewGIFRecorder(r, 2, 30)
	for i := uint64(0); i < 5; i++ {
		rec.OnFrame(nil, &dynamo.Frame{Index: i})
	}
	assert.Equal(t, 3, rec.Frames())

	var buf bytes.Buffer
	require.NoError(t, rec.Encode(&buf))
	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, 6, anim.Delay[0])
}

func TestSVGFadeDropsInvisible(t *testing.T) {
	s := NewSVG(100, 100)
	s.FillCircle(dynamo.Vec{X: 10, Y: 10}, 5, red)
	s.Line(dynamo.Vec{}, dynamo.Vec{X: 5, Y: 5}, 1, red)
	s.Dot(dynamo.Vec{X: 1, Y: 1}, color.NRGBA{R: 255})
	assert.Equal(t, 2, s.Len(), "a transparent dot is not recorded")

	s.Fade(0.5)
	assert.Equal(t, 2, s.Len())
	assert.Contains(t, s.String(), `fill-opacity="0.500"`)

	s.Fade(1)
	assert.Zero(t, s.Len())
}

func TestSVGClearAndResize(t *testing.T) {
	s := NewSVG(10, 10)
	s.FillCircle(dynamo.Vec{X: 1, Y: 1}, 1, red)
	s.Clear()
	assert.Zero(t, s.Len())

	s.StrokeCircle(dynamo.Vec{X: 1, Y: 1}, 1, 2, red)
	s.Resize(20, 30)
	assert.Zero(t, s.Len())
	assert.Contains(t, s.String(), `width="20" height="30"`)
}

func TestSVGTextEscaped(t *testing.T) {
	s := NewSVG(50, 50)
	s.Text(dynamo.Vec{X: 25, Y: 25}, "<a&b>", 12, red)

	out := s.String()
	assert.Contains(t, out, "&lt;a&amp;b&gt;</text>")
	assert.Contains(t, out, `fill="#ff0000"`)
	assert.Contains(t, out, `fill-opacity="1.000"`)
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSVGWriteTo(t *testing.T) {
	s := NewSVG(10, 10)
	s.FillCircle(dynamo.Vec{X: 5, Y: 5}, 2, red)

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, s.String(), buf.String())
}

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 4, "#fff"))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	out := CanvasToSVG(c, 4, "#00ff41")

	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `<g fill="#00ff41">`)
	assert.Contains(t, out, `cx="2.0" cy="2.0"`)
	assert.Contains(t, out, `cx="14.0" cy="14.0"`)
}

func TestTrailsToSVG(t *testing.T) {
	snaps := []dynamo.Snapshot{
		{Frame: 0, Bodies: []dynamo.Body{{Pos: dynamo.Vec{X: 1, Y: 2}}}},
		{Frame: 5, Bodies: []dynamo.Body{{Pos: dynamo.Vec{X: 3, Y: 4}}}},
	}
	out := TrailsToSVG(snaps, 100, 50, "#ffffff")
	assert.Contains(t, out, "M1.0,2.0 L3.0,4.0")
	assert.Equal(t, 1, strings.Count(out, "<path"))

	assert.NotContains(t, TrailsToSVG(snaps[:1], 100, 50, "#ffffff"), "<path")
}
