package reranker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"
	"github.com/adrianliechti/vectorgate/pkg/reranker"

	"github.com/stretchr/testify/require"
)

type fakeRanker struct {
	inputs []string
	limit  int

	rankings []provider.Ranking
	err      error
}

func (f *fakeRanker) Rerank(ctx context.Context, query string, inputs []string, options *provider.RerankOptions) ([]provider.Ranking, error) {
	f.inputs = inputs

	if options != nil && options.Limit != nil {
		f.limit = *options.Limit
	}

	return f.rankings, f.err
}

func TestRerankDeduplicates(t *testing.T) {
	ranker := &fakeRanker{
		rankings: []provider.Ranking{
			{Index: 1, Score: 0.9},
			{Index: 0, Score: 0.4},
		},
	}

	r, err := reranker.New(ranker)
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "rivers", []index.Chunk{
		{ID: "1", Content: "a"},
		{ID: "2", Content: "b"},
		{ID: "3", Content: "a"},
	}, 2)

	require.NoError(t, err)

	require.Equal(t, []string{"a", "b"}, ranker.inputs)
	require.Equal(t, 2, ranker.limit)

	require.Len(t, results, 2)
	require.Equal(t, "2", results[0].ID)
	require.InDelta(t, 0.9, results[0].Score, 1e-6)
	require.Equal(t, "1", results[1].ID)
	require.InDelta(t, 0.4, results[1].Score, 1e-6)
}

func TestRerankDefaultTopN(t *testing.T) {
	ranker := &fakeRanker{}

	r, err := reranker.New(ranker)
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []index.Chunk{{Content: "a"}}, 0)
	require.NoError(t, err)
	require.Equal(t, reranker.DefaultTopN, ranker.limit)

	r, err = reranker.New(ranker, reranker.WithTopN(3))
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []index.Chunk{{Content: "a"}}, -1)
	require.NoError(t, err)
	require.Equal(t, 3, ranker.limit)
}

func TestRerankEmpty(t *testing.T) {
	ranker := &fakeRanker{}

	r, err := reranker.New(ranker)
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
	require.Nil(t, ranker.inputs)
}

func TestRerankError(t *testing.T) {
	ranker := &fakeRanker{
		err: errors.New("rate limited"),
	}

	r, err := reranker.New(ranker)
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []index.Chunk{{Content: "a"}}, 5)
	require.ErrorIs(t, err, index.ErrRerank)
	require.ErrorContains(t, err, "rate limited")
}

func TestRerankInvalidIndex(t *testing.T) {
	ranker := &fakeRanker{
		rankings: []provider.Ranking{
			{Index: 4, Score: 0.9},
		},
	}

	r, err := reranker.New(ranker)
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []index.Chunk{{Content: "a"}}, 5)
	require.ErrorIs(t, err, index.ErrRerank)
	require.ErrorIs(t, err, index.ErrSchemaMismatch)
}

func TestNewWithoutRanker(t *testing.T) {
	_, err := reranker.New(nil)
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestDedup(t *testing.T) {
	result := reranker.Dedup([]index.Chunk{
		{ID: "1", Content: "x"},
		{ID: "2", Content: "y"},
		{ID: "3", Content: "x"},
		{ID: "4", Content: "z"},
		{ID: "5", Content: "y"},
	})

	var ids []string

	for _, c := range result {
		ids = append(ids, c.ID)
	}

	require.Equal(t, []string{"1", "2", "4"}, ids)
}
