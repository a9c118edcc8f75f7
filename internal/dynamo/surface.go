package dynamo

import "image/color"

// DiscardSurface tracks its size and draws nothing. Headless runs use it.
type DiscardSurface struct {
	w, h float64
}

func NewDiscardSurface(w, h float64) *DiscardSurface {
	return &DiscardSurface{w: w, h: h}
}

func (d *DiscardSurface) Size() (float64, float64) { return d.w, d.h }
func (d *DiscardSurface) Resize(w, h float64)       { d.w, d.h = w, h }
func (d *DiscardSurface) Clear()                    {}
func (d *DiscardSurface) Fade(float64)              {}

func (d *DiscardSurface) FillCircle(Vec, float64, color.NRGBA)            {}
func (d *DiscardSurface) StrokeCircle(Vec, float64, float64, color.NRGBA) {}
func (d *DiscardSurface) Line(Vec, Vec, float64, color.NRGBA)             {}
func (d *DiscardSurface) Text(Vec, string, float64, color.NRGBA)          {}
func (d *DiscardSurface) Dot(Vec, color.NRGBA)                            {}
