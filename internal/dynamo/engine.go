package dynamo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxRecordedErrors = 64

type engineState int

const (
	stateIdle engineState = iota
	stateRunning
	stateStopped
)

func (s engineState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Engine owns one body set, one surface and one frame loop.
type Engine struct {
	mu sync.Mutex

	mode      Mode
	surface   Surface
	cfg       Config
	bodies    []Body
	rng       *rand.Rand
	scroll    ScrollSource
	motion    MotionSettings
	logger    *zap.Logger
	metrics   []Metric
	observers []Observer

	pointer       Vec
	width, height float64
	frame         uint64
	errs          []error

	state  engineState
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds an engine and spawns its bodies. The body count is fixed for the
// lifetime of the engine. A nil surface renders nowhere.
func New(mode Mode, surface Surface, cfg Config, motion MotionSettings) (*Engine, error) {
	if mode == nil {
		return nil, fmt.Errorf("%w: nil mode", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		surface = NewDiscardSurface(cfg.Width, cfg.Height)
	}
	if motion == nil {
		motion = ReducedMotion(false)
	}

	surface.Resize(cfg.Width, cfg.Height)

	e := &Engine{
		mode:    mode,
		surface: surface,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		scroll:  ScrollRef{},
		motion:  motion,
		logger:  zap.NewNop(),
		width:   cfg.Width,
		height:  cfg.Height,
	}
	e.bodies = mode.Spawn(cfg.Count, e.sample())
	return e, nil
}

func (e *Engine) SetLogger(l *zap.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	e.logger = l.With(zap.String("mode", e.mode.Name()))
}

func (e *Engine) SetScrollSource(s ScrollSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil {
		s = ScrollRef{}
	}
	e.scroll = s
}

func (e *Engine) AddMetric(m Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, m)
}

func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) Mode() Mode { return e.mode }

func (e *Engine) Surface() Surface { return e.surface }

// Bodies returns a copy of the current body set.
func (e *Engine) Bodies() []Body {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CloneBodies(e.bodies)
}

func (e *Engine) FrameIndex() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Errors returns the invariant violations recorded so far.
func (e *Engine) Errors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// Start schedules frames at the configured rate until Stop is called or ctx
// is cancelled. Cancelling ctx returns the engine to idle; only Stop is final.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case stateRunning:
		e.mu.Unlock()
		return ErrRunning
	case stateStopped:
		e.mu.Unlock()
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.state = stateRunning
	interval := time.Second / time.Duration(e.cfg.FPS)
	e.logger.Debug("engine started", zap.Int("bodies", len(e.bodies)), zap.Duration("interval", interval))
	e.mu.Unlock()

	go e.loop(ctx, interval, done)
	return nil
}

func (e *Engine) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// a cancelled parent returns the engine to idle so it can be started again
			e.mu.Lock()
			if e.state == stateRunning {
				e.state = stateIdle
			}
			e.mu.Unlock()
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.state != stateRunning {
				e.mu.Unlock()
				return
			}
			e.step()
			e.mu.Unlock()
		}
	}
}

// Stop cancels the pending frame and detaches all input. When Stop returns no
// further frame runs and every input method is a no-op. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == stateStopped {
		e.mu.Unlock()
		return
	}
	e.state = stateStopped
	cancel, done := e.cancel, e.done
	frames, logger := e.frame, e.logger
	e.mu.Unlock()

	// the loop may have gone idle on its own; its goroutine still has to finish
	if cancel != nil {
		cancel()
		<-done
	}
	logger.Debug("engine stopped", zap.Uint64("frames", frames))
}

// Frame runs exactly one integrate → resolve → render cycle. Hosts that own
// their own loop (terminal, window) call it once per refresh.
func (e *Engine) Frame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateStopped {
		return ErrStopped
	}
	e.step()
	return nil
}

// Run drives frames synchronously without waiting for a display refresh.
// Snapshots are taken every sampleEvery frames (0 disables sampling).
func (e *Engine) Run(ctx context.Context, frames, sampleEvery int) (*Result, error) {
	return e.RunWithCallback(ctx, frames, sampleEvery, nil)
}

// RunWithCallback is Run with a hook invoked before every frame. The hook may
// deliver input to the engine; returning false ends the run early.
func (e *Engine) RunWithCallback(ctx context.Context, frames, sampleEvery int, before func(frame uint64) bool) (*Result, error) {
	if frames < 0 {
		return nil, fmt.Errorf("%w: frames must not be negative, got %d", ErrInvalidConfig, frames)
	}

	e.mu.Lock()
	for _, m := range e.metrics {
		m.Reset()
	}
	e.mu.Unlock()

	result := &Result{
		Snapshots: make([]Snapshot, 0),
		Metrics:   make(map[string]float64),
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			e.finish(result)
			return result, ctx.Err()
		default:
		}

		if before != nil && !before(e.FrameIndex()) {
			break
		}

		e.mu.Lock()
		if e.state == stateStopped {
			e.mu.Unlock()
			e.finish(result)
			return result, ErrStopped
		}
		e.step()
		if sampleEvery > 0 && (e.frame-1)%uint64(sampleEvery) == 0 {
			result.Snapshots = append(result.Snapshots, Snapshot{Frame: e.frame - 1, Bodies: CloneBodies(e.bodies)})
		}
		e.mu.Unlock()
		result.Frames++
	}

	e.finish(result)
	return result, nil
}

func (e *Engine) finish(result *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Errors = append(result.Errors, e.errs...)
}

// Resize changes the surface dimensions. Existing bodies keep their state;
// only modes implementing Resizer may repair bodies that fell out of range.
func (e *Engine) Resize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateStopped {
		return
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	e.width, e.height = w, h
	e.surface.Resize(w, h)
	if r, ok := e.mode.(Resizer); ok {
		r.Resize(e.bodies, e.sample())
	}
	e.logger.Debug("surface resized", zap.Float64("width", w), zap.Float64("height", h))
}

func (e *Engine) PointerMove(p Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateStopped {
		return
	}
	e.pointer = p
}

// PointerDown returns the index of the grabbed body, or -1.
func (e *Engine) PointerDown(p Vec) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateStopped {
		return -1
	}
	e.pointer = p
	in, ok := e.mode.(Interactive)
	if !ok {
		return -1
	}
	idx := in.PointerDown(e.bodies, p)
	if idx >= 0 {
		e.logger.Debug("body grabbed", zap.Int("body", idx), zap.String("label", e.bodies[idx].Label))
	}
	return idx
}

func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateStopped {
		return
	}
	if in, ok := e.mode.(Interactive); ok {
		in.PointerUp(e.bodies, e.sample())
	}
}

func (e *Engine) sample() *Frame {
	return &Frame{
		Index:          e.frame,
		Width:          e.width,
		Height:         e.height,
		Pointer:        e.pointer,
		ScrollVelocity: e.scroll.ScrollVelocity(),
		ReducedMotion:  e.motion.IsReducedMotion(),
		Rand:           e.rng,
	}
}

// step must be called with e.mu held.
func (e *Engine) step() {
	f := e.sample()

	for i := range e.bodies {
		e.mode.Integrate(&e.bodies[i], f)
	}
	e.mode.Resolve(e.bodies, f)
	e.mode.Draw(e.surface, e.bodies, f)

	if e.cfg.ValidateBodies {
		e.validate(f)
	}
	for _, m := range e.metrics {
		m.Observe(e.bodies, f)
	}
	for _, o := range e.observers {
		o.OnFrame(e.bodies, f)
	}
	e.frame++
}

func (e *Engine) validate(f *Frame) {
	dragging := 0
	for i, b := range e.bodies {
		if b.Dragging {
			dragging++
		}
		if !b.IsValid() {
			e.record(&FrameError{Frame: f.Index, Body: i, Wrapped: ErrBodyInvariant})
		}
	}
	if dragging > 1 {
		e.record(&FrameError{Frame: f.Index, Body: -1, Wrapped: fmt.Errorf("%w: %d bodies dragging", ErrBodyInvariant, dragging)})
	}
}

func (e *Engine) record(err error) {
	e.logger.Warn("invariant violated", zap.Error(err))
	if len(e.errs) < maxRecordedErrors {
		e.errs = append(e.errs, err)
	}
}

// State reports "idle", "running" or "stopped".
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.String()
}
