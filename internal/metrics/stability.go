package metrics

import (
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/physics"
)

// Containment is the fraction of frames in which every body that is not
// being dragged stayed on the surface.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	c.samples++
	for i := range bodies {
		b := &bodies[i]
		if b.Dragging {
			continue
		}
		if b.Pos.X < 0 || b.Pos.X > f.Width || b.Pos.Y < 0 || b.Pos.Y > f.Height {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Overlaps is the mean number of interpenetrating pairs per frame.
type Overlaps struct {
	name    string
	total   int
	samples int
}

func NewOverlaps() *Overlaps {
	return &Overlaps{name: "overlaps"}
}

func (o *Overlaps) Name() string { return o.name }

func (o *Overlaps) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	o.total += physics.CountOverlaps(bodies)
	o.samples++
}

func (o *Overlaps) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.total) / float64(o.samples)
}

func (o *Overlaps) Reset() {
	o.total = 0
	o.samples = 0
}

// Validity is the number of frames with at least one body whose radius is
// not positive or whose state is not finite.
type Validity struct {
	name    string
	invalid int
}

func NewValidity() *Validity {
	return &Validity{name: "invalid_frames"}
}

func (v *Validity) Name() string { return v.name }

func (v *Validity) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	for i := range bodies {
		if !bodies[i].IsValid() {
			v.invalid++
			return
		}
	}
}

func (v *Validity) Value() float64 { return float64(v.invalid) }

func (v *Validity) Reset() { v.invalid = 0 }
