package limiter

import (
	"context"

	"github.com/adrianliechti/vectorgate/pkg/index"

	"golang.org/x/time/rate"
)

type Index interface {
	Limiter
	index.Provider
}

type limitedIndex struct {
	gate     gate
	provider index.Provider
}

// NewIndex limits p to the given rate and number of concurrent operations.
func NewIndex(l *rate.Limiter, concurrency int, p index.Provider) Index {
	return &limitedIndex{
		gate:     newGate(l, concurrency),
		provider: p,
	}
}

func (p *limitedIndex) limiterSetup() {
}

func (p *limitedIndex) Upsert(ctx context.Context, chunks []index.Chunk) error {
	release, err := p.gate.acquire(ctx)

	if err != nil {
		return err
	}

	defer release()

	return p.provider.Upsert(ctx, chunks)
}

func (p *limitedIndex) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	release, err := p.gate.acquire(ctx)

	if err != nil {
		return nil, err
	}

	defer release()

	return p.provider.Query(ctx, query, options)
}

func (p *limitedIndex) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	release, err := p.gate.acquire(ctx)

	if err != nil {
		return nil, err
	}

	defer release()

	return p.provider.Delete(ctx, docURL)
}
