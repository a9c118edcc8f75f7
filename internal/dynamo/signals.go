package dynamo

import (
	"math"
	"sync/atomic"
)

// ScrollRef is a live scroll-velocity cell shared between an input source
// and an engine. The zero value reports zero velocity.
type ScrollRef struct {
	bits *atomic.Uint64
}

func NewScrollRef() ScrollRef {
	return ScrollRef{bits: new(atomic.Uint64)}
}

func (r ScrollRef) ScrollVelocity() float64 {
	if r.bits == nil {
		return 0
	}
	return math.Float64frombits(r.bits.Load())
}

func (r ScrollRef) Set(v float64) {
	if r.bits == nil {
		return
	}
	r.bits.Store(math.Float64bits(v))
}

func (r ScrollRef) Add(dv float64) {
	if r.bits == nil {
		return
	}
	for {
		old := r.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + dv)
		if r.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Decay scales the velocity by factor and snaps values below 1e-3 to zero,
// the way momentum scrolling settles.
func (r ScrollRef) Decay(factor float64) {
	if r.bits == nil {
		return
	}
	for {
		old := r.bits.Load()
		v := math.Float64frombits(old) * factor
		if math.Abs(v) < 1e-3 {
			v = 0
		}
		if r.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}

// ReducedMotion is a fixed reduced-motion preference.
type ReducedMotion bool

func (r ReducedMotion) IsReducedMotion() bool { return bool(r) }

// MotionToggle is a reduced-motion preference that can flip at runtime.
type MotionToggle struct {
	on atomic.Bool
}

func (m *MotionToggle) IsReducedMotion() bool { return m.on.Load() }

func (m *MotionToggle) Set(on bool) { m.on.Store(on) }

func (m *MotionToggle) Toggle() bool {
	for {
		old := m.on.Load()
		if m.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
