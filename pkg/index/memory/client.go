package memory

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

)

var _ index.Provider = &Provider{}

type Provider struct {
	embedder   provider.Embedder
	dimensions int

	deleter index.Deleter

	mu     sync.RWMutex
	chunks map[string]index.Chunk
}

type Option func(*Provider)

func WithEmbedder(embedder provider.Embedder) Option {
	return func(p *Provider) {
		p.embedder = embedder
	}
}

func WithDimensions(dimensions int) Option {
	return func(p *Provider) {
		p.dimensions = dimensions
	}
}

func New(options ...Option) (*Provider, error) {
	p := &Provider{
		chunks: make(map[string]index.Chunk),
	}

	for _, option := range options {
		option(p)
	}

	if p.embedder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("memory: embedder is required"))
	}

	p.deleter = index.FilterDeleter(p.deleteByURL)

	return p, nil
}

func (p *Provider) Upsert(ctx context.Context, chunks []index.Chunk) error {
	if err := index.CheckChunks(chunks, p.dimensions); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range chunks {
		c.Score = 0
		c.Embedding = slices.Clone(c.Embedding)
		c.Metadata = c.Attributes()

		p.chunks[c.ID] = c
	}

	return nil
}

func (p *Provider) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	embedding, err := index.EmbedQuery(ctx, p.embedder, query)

	if err != nil {
		return nil, err
	}

	p.mu.RLock()

	results := make([]index.Chunk, 0, len(p.chunks))

	for _, c := range p.chunks {
		if len(c.Embedding) != len(embedding) {
			continue
		}

		c.Score = cosineSimilarity(embedding, c.Embedding)
		c.Metadata = maps.Clone(c.Metadata)

		results = append(results, c)
	}

	p.mu.RUnlock()

	slices.SortFunc(results, func(a, b index.Chunk) int {
		return cmp.Compare(b.Score, a.Score)
	})

	limit := min(options.TopK(), len(results))

	return results[:limit], nil
}

func (p *Provider) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	return p.deleter.Delete(ctx, docURL)
}

func (p *Provider) deleteByURL(ctx context.Context, docURL string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0

	for id, c := range p.chunks {
		if c.DocURL != docURL {
			continue
		}

		delete(p.chunks, id)
		count++
	}

	return count, nil
}

func cosineSimilarity(vals1, vals2 []float32) float32 {
	l2norm := func(v float64, s, t float64) (float64, float64) {
		if v == 0 {
			return s, t
		}

		a := math.Abs(v)

		if a > t {
			r := t / v
			s = 1 + s*r*r
			t = a
		} else {
			r := v / t
			s = s + r*r
		}

		return s, t
	}

	dot := float64(0)

	s1 := float64(1)
	t1 := float64(0)

	s2 := float64(1)
	t2 := float64(0)

	for i, v1f := range vals1 {
		v1 := float64(v1f)
		v2 := float64(vals2[i])

		dot += v1 * v2

		s1, t1 = l2norm(v1, s1, t1)
		s2, t2 = l2norm(v2, s2, t2)
	}

	l1 := t1 * math.Sqrt(s1)
	l2 := t2 * math.Sqrt(s2)

	if l1 == 0 || l2 == 0 {
		return 0
	}

	return float32(dot / (l1 * l2))
}
