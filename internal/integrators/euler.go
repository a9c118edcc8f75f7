package integrators

import (
	"github.com/san-kum/fieldsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Euler advances a body by one display frame with semi-implicit Euler:
// velocity picks up the acceleration first, then position moves by the new
// velocity. The timestep is fixed at one frame.
func Euler(b *dynamo.Body, acc dynamo.Vec) {
	b.Vel = r2.Add(b.Vel, acc)
	b.Pos = r2.Add(b.Pos, b.Vel)
}

// Drift moves a body by its velocity without any acceleration.
func Drift(b *dynamo.Body) {
	b.Pos = r2.Add(b.Pos, b.Vel)
}

// Spring sets the velocity to the spring term pulling pos toward target and
// snaps pos onto target.
func Spring(b *dynamo.Body, target dynamo.Vec, k float64) {
	b.Vel = r2.Scale(k, r2.Sub(target, b.Pos))
	b.Pos = target
}
