package physics

import (
	"github.com/san-kum/fieldsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// HitTest returns the first body, in construction order, whose radius
// contains p, or -1.
func HitTest(bodies []dynamo.Body, p dynamo.Vec) int {
	for i := range bodies {
		if r2.Norm(r2.Sub(p, bodies[i].Pos)) < bodies[i].Radius {
			return i
		}
	}
	return -1
}

// Overlap reports whether two bodies interpenetrate and by how much.
func Overlap(a, b *dynamo.Body) (depth float64, ok bool) {
	d := r2.Norm(r2.Sub(b.Pos, a.Pos))
	reach := a.Radius + b.Radius
	if d >= reach {
		return 0, false
	}
	return reach - d, true
}

// Separate scans every unordered pair and moves overlapping bodies apart by
// softness × penetration along the line between their centres, split evenly.
// A dragged body is pinned to the pointer, so its partner takes the whole
// correction. The approaching part of the relative velocity is removed so
// resting stacks do not sink.
//
// The scan is O(n²). It is meant for the few dozen bodies a board carries;
// larger sets need a spatial grid.
func Separate(bodies []dynamo.Body, softness float64) int {
	overlaps := 0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := &bodies[i], &bodies[j]
			if a.Dragging && b.Dragging {
				continue
			}

			d := r2.Sub(b.Pos, a.Pos)
			dist := r2.Norm(d)
			reach := a.Radius + b.Radius
			if dist >= reach {
				continue
			}
			overlaps++

			// coincident centres get a fixed axis so the result is reproducible
			n := dynamo.Vec{X: 1}
			if dist > 0 {
				n = r2.Scale(1/dist, d)
			}
			corr := (reach - dist) * softness
			rel := r2.Dot(r2.Sub(b.Vel, a.Vel), n)

			switch {
			case a.Dragging:
				b.Pos = r2.Add(b.Pos, r2.Scale(corr, n))
				if rel < 0 {
					b.Vel = r2.Sub(b.Vel, r2.Scale(rel, n))
				}
			case b.Dragging:
				a.Pos = r2.Sub(a.Pos, r2.Scale(corr, n))
				if rel < 0 {
					a.Vel = r2.Add(a.Vel, r2.Scale(rel, n))
				}
			default:
				half := r2.Scale(corr/2, n)
				a.Pos = r2.Sub(a.Pos, half)
				b.Pos = r2.Add(b.Pos, half)
				if rel < 0 {
					dv := r2.Scale(rel/2, n)
					a.Vel = r2.Add(a.Vel, dv)
					b.Vel = r2.Sub(b.Vel, dv)
				}
			}
		}
	}
	return overlaps
}

// CountOverlaps returns the number of interpenetrating pairs.
func CountOverlaps(bodies []dynamo.Body) int {
	n := 0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if _, ok := Overlap(&bodies[i], &bodies[j]); ok {
				n++
			}
		}
	}
	return n
}
