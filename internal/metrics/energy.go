package metrics

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// KineticEnergy is the mean over frames of the total kinetic energy of the
// body set, with mass taken proportional to area (r²).
type KineticEnergy struct {
	name    string
	total   float64
	last    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	k.last = Energy(bodies)
	k.total += k.last
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

// Last returns the energy of the most recent frame.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.last = 0
	k.samples = 0
}

func Energy(bodies []dynamo.Body) float64 {
	e := 0.0
	for i := range bodies {
		m := bodies[i].Radius * bodies[i].Radius
		s := bodies[i].Speed()
		e += 0.5 * m * s * s
	}
	return e
}

// PeakSpeed tracks the fastest planar speed seen on any body.
type PeakSpeed struct {
	name string
	max  float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(bodies []dynamo.Body, f *dynamo.Frame) {
	for i := range bodies {
		p.max = math.Max(p.max, bodies[i].Speed())
	}
}

func (p *PeakSpeed) Value() float64 { return p.max }

func (p *PeakSpeed) Reset() { p.max = 0 }
