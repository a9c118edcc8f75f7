package export

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// GIFRecorder is an engine observer that copies every Nth frame of a Raster
// into an animated GIF.
type GIFRecorder struct {
	raster *Raster
	every  uint64
	delay  int
	anim   gif.GIF
}

// NewGIFRecorder samples every frames; fps sets the playback delay.
func NewGIFRecorder(r *Raster, every int, fps int) *GIFRecorder {
	if every < 1 {
		every = 1
	}
	delay := 100 * every / max(fps, 1)
	return &GIFRecorder{raster: r, every: uint64(every), delay: max(delay, 2)}
}

func (g *GIFRecorder) OnFrame(_ []dynamo.Body, f *dynamo.Frame) {
	if f.Index%g.every != 0 {
		return
	}
	src := g.raster.Image()
	frame := image.NewPaletted(src.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(frame, src.Bounds(), src, image.Point{})
	g.anim.Image = append(g.anim.Image, frame)
	g.anim.Delay = append(g.anim.Delay, g.delay)
}

func (g *GIFRecorder) Frames() int { return len(g.anim.Image) }

func (g *GIFRecorder) Encode(w io.Writer) error {
	return gif.EncodeAll(w, &g.anim)
}
