package metrics

import "github.com/san-kum/fieldsim/internal/dynamo"

// MeanDepth averages body depth over all frames. Only the starfield uses
// depth; for flat modes it stays zero.
type MeanDepth struct {
	name    string
	total   float64
	samples int
}

func NewMeanDepth() *MeanDepth {
	return &MeanDepth{name: "mean_depth"}
}

func (m *MeanDepth) Name() string { return m.name }

func (m *MeanDepth) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	for i := range bodies {
		m.total += bodies[i].Z
		m.samples++
	}
}

func (m *MeanDepth) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanDepth) Reset() {
	m.total = 0
	m.samples = 0
}
