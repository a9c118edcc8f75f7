package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh engine for the given seed.
type Factory func(seed int64) (*Engine, error)

// Ensemble runs independent headless engines concurrently. Each run owns its
// engine; nothing is shared between runs.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, frames int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			eng, err := e.factory(e.seedStart + int64(idx))
			if err != nil {
				return err
			}
			defer eng.Stop()

			res, err := eng.Run(ctx, frames, 0)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
