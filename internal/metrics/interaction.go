package metrics

import "github.com/san-kum/fieldsim/internal/dynamo"

// MaxDraggers is the largest number of bodies held in a single frame. It
// should never exceed one.
type MaxDraggers struct {
	name string
	max  int
}

func NewMaxDraggers() *MaxDraggers {
	return &MaxDraggers{name: "max_draggers"}
}

func (m *MaxDraggers) Name() string { return m.name }

func (m *MaxDraggers) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	n := 0
	for i := range bodies {
		if bodies[i].Dragging {
			n++
		}
	}
	if n > m.max {
		m.max = n
	}
}

func (m *MaxDraggers) Value() float64 { return float64(m.max) }

func (m *MaxDraggers) Reset() { m.max = 0 }

// DragTime counts the frames in which some body was held.
type DragTime struct {
	name   string
	frames int
}

func NewDragTime() *DragTime {
	return &DragTime{name: "drag_frames"}
}

func (d *DragTime) Name() string { return d.name }

func (d *DragTime) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	for i := range bodies {
		if bodies[i].Dragging {
			d.frames++
			return
		}
	}
}

func (d *DragTime) Value() float64 { return float64(d.frames) }

func (d *DragTime) Reset() { d.frames = 0 }
