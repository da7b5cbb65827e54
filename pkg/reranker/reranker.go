package reranker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"
)

const DefaultTopN = 5

type Option func(*Reranker)

// WithTopN sets the limit used when Rerank is called with topN <= 0.
func WithTopN(n int) Option {
	return func(r *Reranker) {
		r.topN = n
	}
}

// Reranker reorders query results of any backend through a ranking model.
type Reranker struct {
	ranker provider.Reranker

	topN int
}

func New(ranker provider.Reranker, options ...Option) (*Reranker, error) {
	r := &Reranker{
		ranker: ranker,

		topN: DefaultTopN,
	}

	for _, option := range options {
		option(r)
	}

	if r.ranker == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("reranker: ranker is required"))
	}

	return r, nil
}

// Rerank drops chunks with repeated content (first occurrence wins), ranks
// the rest against query and returns at most topN chunks in ranking order.
func (r *Reranker) Rerank(ctx context.Context, query string, chunks []index.Chunk, topN int) ([]index.Chunk, error) {
	if topN <= 0 {
		topN = r.topN
	}

	candidates := Dedup(chunks)

	if len(candidates) == 0 {
		return []index.Chunk{}, nil
	}

	inputs := make([]string, 0, len(candidates))

	for _, c := range candidates {
		inputs = append(inputs, c.Content)
	}

	slog.Debug("reranking chunks", "query", query, "chunks", len(chunks), "candidates", len(candidates), "top_n", topN)

	rankings, err := r.ranker.Rerank(ctx, query, inputs, &provider.RerankOptions{
		Limit: &topN,
	})

	if err != nil {
		slog.Error("error while reranking", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %w", index.ErrRerank, err)
	}

	results := make([]index.Chunk, 0, len(rankings))

	for _, ranking := range rankings {
		if ranking.Index < 0 || ranking.Index >= len(candidates) {
			err := index.Mismatch("reranker returned index %d for %d documents", ranking.Index, len(candidates))

			slog.Error("error while reranking", "query", query, "error", err)
			return nil, fmt.Errorf("%w: %w", index.ErrRerank, err)
		}

		chunk := candidates[ranking.Index]
		chunk.Score = float32(ranking.Score)

		results = append(results, chunk)
	}

	return results, nil
}

// Dedup keeps the first chunk for every distinct content, preserving order.
func Dedup(chunks []index.Chunk) []index.Chunk {
	seen := make(map[string]bool, len(chunks))
	result := make([]index.Chunk, 0, len(chunks))

	for _, c := range chunks {
		if seen[c.Content] {
			continue
		}

		seen[c.Content] = true
		result = append(result, c)
	}

	return result
}
