package integrators

import "math"

// Wrap maps v into [0, size) with exact modulo arithmetic, so a body leaving
// one edge re-enters the opposite edge having travelled the same distance.
// A non-positive size leaves v unchanged.
func Wrap(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	m := math.Mod(v, size)
	if m < 0 {
		m += size
	}
	if m >= size {
		m = 0
	}
	return m
}

// Limits returns the range a centre of radius r may occupy along an axis of
// the given size. Bodies wider than the axis are pinned to its middle.
func Limits(r, size float64) (lo, hi float64) {
	if size <= 0 {
		return 0, 0
	}
	if 2*r >= size {
		return size / 2, size / 2
	}
	return r, size - r
}

// Clamp keeps a centre inside Limits(r, size).
func Clamp(v, r, size float64) float64 {
	lo, hi := Limits(r, size)
	return math.Min(math.Max(v, lo), hi)
}

// Reflect handles a wall contact along one axis. When the centre crosses a
// limit it is put back on the limit and the velocity component is reversed
// and scaled by bounce. hitHigh reports a contact with the far wall.
func Reflect(pos, vel *float64, r, size, bounce float64) (hitLow, hitHigh bool) {
	lo, hi := Limits(r, size)
	switch {
	case *pos > hi:
		*pos = hi
		*vel *= -bounce
		return false, true
	case *pos < lo:
		*pos = lo
		*vel *= -bounce
		return true, false
	}
	return false, false
}
