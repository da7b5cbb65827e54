package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Limiter interface {
	limiterSetup()
}

// gate combines a request rate with a bound on in-flight calls. Either part
// may be nil.
type gate struct {
	limiter   *rate.Limiter
	semaphore *semaphore.Weighted
}

func newGate(l *rate.Limiter, concurrency int) gate {
	g := gate{
		limiter: l,
	}

	if concurrency > 0 {
		g.semaphore = semaphore.NewWeighted(int64(concurrency))
	}

	return g
}

func (g gate) acquire(ctx context.Context) (func(), error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if g.semaphore == nil {
		return func() {}, nil
	}

	if err := g.semaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	return func() { g.semaphore.Release(1) }, nil
}
