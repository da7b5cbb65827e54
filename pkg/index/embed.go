package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/adrianliechti/vectorgate/pkg/provider"
)

// EmbedQuery embeds a single query text and returns the first vector.
func EmbedQuery(ctx context.Context, embedder provider.Embedder, query string) ([]float32, error) {
	if embedder == nil {
		return nil, errors.New("no embedder configured")
	}

	embedding, err := embedder.Embed(ctx, []string{query})

	if err != nil {
		return nil, err
	}

	if embedding == nil || len(embedding.Embeddings) == 0 || len(embedding.Embeddings[0]) == 0 {
		return nil, errors.New("embedder returned no vectors")
	}

	return embedding.Embeddings[0], nil
}

// CheckChunks fails when a chunk has no id or when its embedding does not
// match the index dimension. A dimension of zero skips the size check.
func CheckChunks(chunks []Chunk, dimensions int) error {
	for i, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: chunk %d has no id", ErrInvalidChunk, i)
		}

		if dimensions > 0 && len(c.Embedding) != dimensions {
			return fmt.Errorf("%w: chunk %s: embedding has %d dimensions, index expects %d", ErrInvalidChunk, c.ID, len(c.Embedding), dimensions)
		}
	}

	return nil
}
