package mistral

import (
	"github.com/adrianliechti/vectorgate/pkg/provider/openai"
)

type Embedder = openai.Embedder

var ModelDimensions = map[string]int{
	"mistral-embed":   1024,
	"codestral-embed": 1536,
}

func NewEmbedder(model string, options ...Option) (*Embedder, error) {
	cfg := &Config{
		url: "https://api.mistral.ai/v1/",
	}

	for _, option := range options {
		option(cfg)
	}

	if native, ok := ModelDimensions[model]; ok {
		cfg.options = append(cfg.options, openai.WithNativeDimensions(native))
	}

	return openai.NewEmbedder(cfg.url, model, cfg.options...)
}
