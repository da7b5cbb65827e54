package limiter

import (
	"context"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	"golang.org/x/time/rate"
)

type Embedder interface {
	Limiter
	provider.Encoder
}

type limitedEmbedder struct {
	gate     gate
	provider provider.Encoder
}

func NewEmbedder(l *rate.Limiter, concurrency int, p provider.Encoder) Embedder {
	return &limitedEmbedder{
		gate:     newGate(l, concurrency),
		provider: p,
	}
}

func (p *limitedEmbedder) limiterSetup() {
}

func (p *limitedEmbedder) Dimensions() int {
	return p.provider.Dimensions()
}

func (p *limitedEmbedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	release, err := p.gate.acquire(ctx)

	if err != nil {
		return nil, err
	}

	defer release()

	return p.provider.Embed(ctx, texts)
}
