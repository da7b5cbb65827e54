package google

import (
	"context"
	"errors"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	"google.golang.org/genai"
)

var _ provider.Encoder = (*Embedder)(nil)

type Embedder struct {
	*Config
}

// ModelDimensions lists the default output size of the Gemini embedding models.
var ModelDimensions = map[string]int{
	"gemini-embedding-001": 3072,
	"text-embedding-004":   768,
}

func NewEmbedder(model string, options ...Option) (*Embedder, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		return nil, errors.New("invalid model")
	}

	if cfg.dimensions <= 0 {
		cfg.dimensions = ModelDimensions[cfg.model]
	}

	if cfg.dimensions <= 0 {
		return nil, errors.New("unknown dimensions for model " + cfg.model)
	}

	return &Embedder{
		Config: cfg,
	}, nil
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	client, err := e.newClient(ctx)

	if err != nil {
		return nil, err
	}

	var contents []*genai.Content

	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	var config *genai.EmbedContentConfig

	if native, ok := ModelDimensions[e.model]; !ok || native != e.dimensions {
		dim := int32(e.dimensions)

		config = &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		}
	}

	resp, err := client.Models.EmbedContent(ctx, e.model, contents, config)

	if err != nil {
		return nil, convertError(err)
	}

	result := &provider.Embedding{
		Model: e.model,
	}

	for _, e := range resp.Embeddings {
		var values []float32

		if e != nil {
			values = e.Values
		}

		result.Embeddings = append(result.Embeddings, values)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, errors.New("google: unexpected number of embeddings")
	}

	return result, nil
}
