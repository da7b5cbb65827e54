package provider

import (
	"context"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) (*Embedding, error)
}

// Encoder is an Embedder with a fixed output size, read once when an index
// is created or opened.
type Encoder interface {
	Embedder

	Dimensions() int
}

type Embedding struct {
	Model string

	Embeddings [][]float32

	Usage *Usage
}
