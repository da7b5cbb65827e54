package cache

import (
	"context"
	"errors"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	lru "github.com/hashicorp/golang-lru/v2"
)

var _ provider.Encoder = (*Cache)(nil)

// Cache keeps recently embedded texts so repeated queries skip the encoder.
type Cache struct {
	*Config

	encoder provider.Encoder
	entries *lru.Cache[string, []float32]
}

func New(encoder provider.Encoder, opts ...Option) (*Cache, error) {
	cfg := &Config{
		size: 1024,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if encoder == nil {
		return nil, errors.New("encoder is required")
	}

	entries, err := lru.New[string, []float32](cfg.size)

	if err != nil {
		return nil, err
	}

	return &Cache{
		Config: cfg,

		encoder: encoder,
		entries: entries,
	}, nil
}

func (c *Cache) Dimensions() int {
	return c.encoder.Dimensions()
}

func (c *Cache) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	result := &provider.Embedding{
		Embeddings: make([][]float32, len(texts)),
	}

	var missing []string
	var positions []int

	for i, text := range texts {
		if vector, ok := c.entries.Get(text); ok {
			result.Embeddings[i] = vector
			continue
		}

		missing = append(missing, text)
		positions = append(positions, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	embedding, err := c.encoder.Embed(ctx, missing)

	if err != nil {
		return nil, err
	}

	if len(embedding.Embeddings) != len(missing) {
		return nil, errors.New("encoder returned unexpected number of vectors")
	}

	result.Model = embedding.Model
	result.Usage = embedding.Usage

	for i, vector := range embedding.Embeddings {
		c.entries.Add(missing[i], vector)
		result.Embeddings[positions[i]] = vector
	}

	return result, nil
}
