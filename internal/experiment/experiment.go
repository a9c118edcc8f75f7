package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"go.uber.org/zap"
)

// Input is a scripted host event delivered before a given frame.
type Input struct {
	Frame  uint64
	Kind   InputKind
	X, Y   float64
	Scroll float64
}

type InputKind string

const (
	PointerDown InputKind = "pointer_down"
	PointerMove InputKind = "pointer_move"
	PointerUp   InputKind = "pointer_up"
	Scroll      InputKind = "scroll"
	Resize      InputKind = "resize"
)

// Experiment runs one configured engine headless.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	engine   *dynamo.Engine
	scroll   dynamo.ScrollRef
	inputs   []Input
	logger   *zap.Logger
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	return &Experiment{cfg: cfg, registry: registry, scroll: dynamo.NewScrollRef(), logger: zap.NewNop()}
}

func (e *Experiment) SetLogger(l *zap.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Script queues inputs; they must be ordered by frame.
func (e *Experiment) Script(inputs ...Input) {
	e.inputs = append(e.inputs, inputs...)
}

func (e *Experiment) Setup(surface dynamo.Surface, metrics []dynamo.Metric) error {
	eng, err := e.registry.NewEngine(e.cfg, surface, nil)
	if err != nil {
		return err
	}
	eng.SetLogger(e.logger)
	eng.SetScrollSource(e.scroll)
	for _, m := range metrics {
		eng.AddMetric(m)
	}
	e.engine = eng
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.engine == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	defer e.engine.Stop()

	next := 0
	return e.engine.RunWithCallback(ctx, e.cfg.Frames, e.cfg.SampleEvery, func(frame uint64) bool {
		for next < len(e.inputs) && e.inputs[next].Frame <= frame {
			e.apply(e.inputs[next])
			next++
		}
		return true
	})
}

func (e *Experiment) apply(in Input) {
	p := dynamo.Vec{X: in.X, Y: in.Y}
	switch in.Kind {
	case PointerDown:
		e.engine.PointerDown(p)
	case PointerMove:
		e.engine.PointerMove(p)
	case PointerUp:
		e.engine.PointerUp()
	case Scroll:
		e.scroll.Set(in.Scroll)
	case Resize:
		e.engine.Resize(in.X, in.Y)
	default:
		e.logger.Warn("unknown input", zap.String("kind", string(in.Kind)))
	}
}

// Engine returns the underlying engine for adding observers.
func (e *Experiment) Engine() *dynamo.Engine {
	return e.engine
}
