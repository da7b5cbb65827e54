package openai

import (
	"context"
	"errors"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/openai/openai-go/v3"
)

var _ provider.Encoder = (*Embedder)(nil)

type Embedder struct {
	*Config
	embeddings openai.EmbeddingService
}

func NewEmbedder(url, model string, options ...Option) (*Embedder, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		return nil, errors.New("invalid model")
	}

	if cfg.native <= 0 {
		cfg.native = ModelDimensions[cfg.model]
	}

	if cfg.dimensions <= 0 {
		cfg.dimensions = cfg.native
	}

	if cfg.dimensions <= 0 {
		return nil, errors.New("unknown dimensions for model " + cfg.model)
	}

	return &Embedder{
		Config:     cfg,
		embeddings: openai.NewEmbeddingService(cfg.Options()...),
	}, nil
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	params := openai.EmbeddingNewParams{
		Model: e.model,

		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	if e.native != e.dimensions {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	result, err := e.embeddings.New(ctx, params)

	if err != nil {
		return nil, convertError(err)
	}

	embedding := &provider.Embedding{
		Model: e.model,

		Embeddings: make([][]float32, len(result.Data)),

		Usage: &provider.Usage{
			InputTokens: int(result.Usage.PromptTokens),
		},
	}

	if result.Model != "" {
		embedding.Model = result.Model
	}

	for _, d := range result.Data {
		if d.Index < 0 || int(d.Index) >= len(embedding.Embeddings) {
			continue
		}

		vector := make([]float32, len(d.Embedding))

		for i, v := range d.Embedding {
			vector[i] = float32(v)
		}

		embedding.Embeddings[d.Index] = vector
	}

	return embedding, nil
}
