package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// driftMode moves every body by its velocity and records the inputs it saw.
type driftMode struct {
	scroll   []float64
	resized  int
	breakAt  uint64
	released int
}

func (d *driftMode) Name() string { return "drift" }

func (d *driftMode) Spawn(n int, f *Frame) []Body {
	bodies := make([]Body, n)
	for i := range bodies {
		bodies[i] = Body{
			Pos:    Vec{X: f.Rand.Float64() * f.Width, Y: f.Rand.Float64() * f.Height},
			Vel:    Vec{X: 1, Y: 1},
			Radius: 5,
		}
	}
	return bodies
}

func (d *driftMode) Integrate(b *Body, f *Frame) {
	b.Pos.X += b.Vel.X
	b.Pos.Y += b.Vel.Y
	if d.breakAt > 0 && f.Index == d.breakAt {
		b.Radius = 0
	}
}

func (d *driftMode) Resolve(_ []Body, f *Frame) {
	d.scroll = append(d.scroll, f.ScrollVelocity)
}

func (d *driftMode) Draw(s Surface, bodies []Body, _ *Frame) {
	s.Clear()
}

func (d *driftMode) Resize([]Body, *Frame) { d.resized++ }

func (d *driftMode) PointerDown(bodies []Body, p Vec) int {
	for i := range bodies {
		if bodies[i].Pos == p {
			bodies[i].Dragging = true
			return i
		}
	}
	return -1
}

func (d *driftMode) PointerUp(bodies []Body, _ *Frame) {
	d.released++
	for i := range bodies {
		bodies[i].Dragging = false
	}
}

type countMetric struct {
	frames int
}

func (c *countMetric) Name() string             { return "frames" }
func (c *countMetric) Observe([]Body, *Frame)   { c.frames++ }
func (c *countMetric) Value() float64           { return float64(c.frames) }
func (c *countMetric) Reset()                   { c.frames = 0 }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Count = 10
	cfg.Width, cfg.Height = 200, 100
	cfg.FPS = 240
	return cfg
}

func newTestEngine(t *testing.T, mode Mode) *Engine {
	t.Helper()
	eng, err := New(mode, nil, testConfig(), nil)
	require.NoError(t, err)
	return eng
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, nil, testConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testConfig()
	cfg.FPS = 0
	_, err = New(&driftMode{}, nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig()
	cfg.Count = -1
	_, err = New(&driftMode{}, nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestZeroCountRunsIdle(t *testing.T) {
	cfg := testConfig()
	cfg.Count = 0
	eng, err := New(&driftMode{}, nil, cfg, nil)
	require.NoError(t, err)
	defer eng.Stop()

	res, err := eng.Run(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), res.Frames)
	assert.Empty(t, eng.Bodies())
}

func TestStartStopLifecycle(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	assert.Equal(t, "idle", eng.State())

	require.NoError(t, eng.Start(context.Background()))
	assert.Equal(t, "running", eng.State())
	assert.ErrorIs(t, eng.Start(context.Background()), ErrRunning)

	require.Eventually(t, func() bool { return eng.FrameIndex() > 3 }, 2*time.Second, 5*time.Millisecond)

	eng.Stop()
	assert.Equal(t, "stopped", eng.State())
	stoppedAt := eng.FrameIndex()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stoppedAt, eng.FrameIndex(), "no frame may run after Stop")

	assert.ErrorIs(t, eng.Start(context.Background()), ErrStopped)
	assert.ErrorIs(t, eng.Frame(), ErrStopped)

	eng.Stop()
}

func TestStopBeforeStart(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	eng.Stop()
	assert.ErrorIs(t, eng.Start(context.Background()), ErrStopped)
}

func TestContextCancelEndsLoop(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, eng.Start(ctx))
	cancel()
	eng.Stop()
}

func TestContextCancelReturnsToIdle(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	defer eng.Stop()
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, eng.Start(ctx))
	cancel()
	require.Eventually(t, func() bool { return eng.State() == "idle" }, 2*time.Second, 5*time.Millisecond)

	before := eng.FrameIndex()
	require.NoError(t, eng.Start(context.Background()), "an idle engine can be restarted")
	assert.Equal(t, "running", eng.State())
	require.Eventually(t, func() bool { return eng.FrameIndex() > before+2 }, 2*time.Second, 5*time.Millisecond)

	eng.Stop()
	assert.Equal(t, "stopped", eng.State())
}

func TestFPSAboveLimitRejected(t *testing.T) {
	cfg := testConfig()
	cfg.FPS = 2_000_000_000
	_, err := New(&driftMode{}, nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.FPS = MaxFPS
	eng, err := New(&driftMode{}, nil, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	eng.Stop()
}

// orderMode logs each stage of a frame together with the Frame it was given.
type orderMode struct {
	calls  []string
	frames []*Frame
}

func (o *orderMode) log(stage string, f *Frame) {
	o.calls = append(o.calls, stage)
	o.frames = append(o.frames, f)
}

func (o *orderMode) Name() string { return "order" }

func (o *orderMode) Spawn(n int, _ *Frame) []Body {
	bodies := make([]Body, n)
	for i := range bodies {
		bodies[i] = Body{Radius: 1}
	}
	return bodies
}

func (o *orderMode) Integrate(_ *Body, f *Frame)        { o.log("integrate", f) }
func (o *orderMode) Resolve(_ []Body, f *Frame)         { o.log("resolve", f) }
func (o *orderMode) Draw(_ Surface, _ []Body, f *Frame) { o.log("draw", f) }

type orderObserver struct{ mode *orderMode }

func (o orderObserver) OnFrame(_ []Body, f *Frame) { o.mode.log("observe", f) }

func TestFrameStageOrder(t *testing.T) {
	mode := &orderMode{}
	cfg := testConfig()
	cfg.Count = 2
	eng, err := New(mode, nil, cfg, nil)
	require.NoError(t, err)
	defer eng.Stop()

	scroll := NewScrollRef()
	scroll.Set(4)
	eng.SetScrollSource(scroll)
	eng.PointerMove(Vec{X: 7, Y: 9})
	eng.AddObserver(orderObserver{mode: mode})

	require.NoError(t, eng.Frame())

	assert.Equal(t, []string{"integrate", "integrate", "resolve", "draw", "observe"}, mode.calls)

	first := mode.frames[0]
	for i, f := range mode.frames {
		assert.Same(t, first, f, "stage %d (%s) saw a different frame", i, mode.calls[i])
	}
	assert.Equal(t, 4.0, first.ScrollVelocity)
	assert.Equal(t, Vec{X: 7, Y: 9}, first.Pointer)
	assert.Equal(t, uint64(0), first.Index)
}

func TestInputIgnoredAfterStop(t *testing.T) {
	mode := &driftMode{}
	eng := newTestEngine(t, mode)
	target := eng.Bodies()[2].Pos

	eng.Stop()

	assert.Equal(t, -1, eng.PointerDown(target))
	eng.PointerUp()
	eng.Resize(50, 50)
	eng.PointerMove(Vec{X: 1, Y: 1})

	w, h := eng.Surface().Size()
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 100.0, h)
	assert.Zero(t, mode.resized)
	assert.Zero(t, mode.released)
}

func TestPointerDelegatesToMode(t *testing.T) {
	mode := &driftMode{}
	eng := newTestEngine(t, mode)
	defer eng.Stop()

	target := eng.Bodies()[4].Pos
	assert.Equal(t, 4, eng.PointerDown(target))
	assert.True(t, eng.Bodies()[4].Dragging)

	eng.PointerUp()
	assert.Equal(t, 1, mode.released)
	assert.False(t, eng.Bodies()[4].Dragging)
}

func TestResizePreservesBodies(t *testing.T) {
	mode := &driftMode{}
	eng := newTestEngine(t, mode)
	defer eng.Stop()

	before := eng.Bodies()
	eng.Resize(640, -10)

	assert.Equal(t, before, eng.Bodies())
	assert.Equal(t, 1, mode.resized)
	w, h := eng.Surface().Size()
	assert.Equal(t, 640.0, w)
	assert.Equal(t, 0.0, h)
}

func TestRunSamplesSnapshots(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	defer eng.Stop()
	metric := &countMetric{}
	eng.AddMetric(metric)

	res, err := eng.Run(context.Background(), 10, 3)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), res.Frames)
	require.Len(t, res.Snapshots, 4)
	for i, want := range []uint64{0, 3, 6, 9} {
		assert.Equal(t, want, res.Snapshots[i].Frame)
	}
	assert.Equal(t, 10.0, res.Metrics["frames"])

	// metrics restart with every run
	res, err = eng.Run(context.Background(), 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Metrics["frames"])
	assert.Empty(t, res.Snapshots)
}

func TestRunSnapshotsAreCopies(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	defer eng.Stop()

	res, err := eng.Run(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, res.Snapshots, 2)
	assert.NotEqual(t, res.Snapshots[0].Bodies[0].Pos, res.Snapshots[1].Bodies[0].Pos)
}

func TestRunWithCallbackStopsEarly(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	defer eng.Stop()

	res, err := eng.RunWithCallback(context.Background(), 100, 0, func(frame uint64) bool {
		return frame < 7
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.Frames)
}

func TestRunHonoursContext(t *testing.T) {
	eng := newTestEngine(t, &driftMode{})
	defer eng.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.Run(ctx, 10, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)

	_, err = eng.Run(context.Background(), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScrollSampledPerFrame(t *testing.T) {
	mode := &driftMode{}
	eng := newTestEngine(t, mode)
	defer eng.Stop()

	scroll := NewScrollRef()
	eng.SetScrollSource(scroll)

	scroll.Set(-2.5)
	require.NoError(t, eng.Frame())
	scroll.Set(4)
	require.NoError(t, eng.Frame())

	assert.Equal(t, []float64{-2.5, 4}, mode.scroll)
}

func TestInvariantViolationsRecorded(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	eng := newTestEngine(t, &driftMode{breakAt: 2})
	defer eng.Stop()
	eng.SetLogger(zap.New(core))

	res, err := eng.Run(context.Background(), 4, 0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Errors)

	var fe *FrameError
	require.True(t, errors.As(res.Errors[0], &fe))
	assert.Equal(t, uint64(2), fe.Frame)
	assert.ErrorIs(t, res.Errors[0], ErrBodyInvariant)
	assert.NotZero(t, logs.FilterMessage("invariant violated").Len())
}

func TestEnsembleRunsIndependentSeeds(t *testing.T) {
	factory := func(seed int64) (*Engine, error) {
		cfg := testConfig()
		cfg.Seed = seed
		return New(&driftMode{}, nil, cfg, nil)
	}

	results, err := NewEnsemble(factory, 4, 10).Run(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, uint64(5), r.Frames)
	}
}

func TestEnsembleFactoryError(t *testing.T) {
	boom := errors.New("boom")
	factory := func(seed int64) (*Engine, error) {
		if seed == 2 {
			return nil, boom
		}
		return New(&driftMode{}, nil, testConfig(), nil)
	}

	_, err := NewEnsemble(factory, 4, 0).Run(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}
