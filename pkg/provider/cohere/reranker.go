package cohere

import (
	"context"
	"errors"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	v2 "github.com/cohere-ai/cohere-go/v2"
	client "github.com/cohere-ai/cohere-go/v2/v2"
)

var _ provider.Reranker = (*Reranker)(nil)

const DefaultModel = "rerank-multilingual-v3.0"

type Reranker struct {
	*Config
	client *client.Client
}

func NewReranker(model string, options ...Option) (*Reranker, error) {
	if model == "" {
		model = DefaultModel
	}

	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.token == "" {
		return nil, errors.New("cohere: missing token")
	}

	return &Reranker{
		Config: cfg,
		client: client.NewClient(cfg.Options()...),
	}, nil
}

func (r *Reranker) Rerank(ctx context.Context, query string, inputs []string, options *provider.RerankOptions) ([]provider.Ranking, error) {
	if options == nil {
		options = new(provider.RerankOptions)
	}

	req := &v2.V2RerankRequest{
		Model: r.model,

		Query:     query,
		Documents: inputs,
	}

	if options.Limit != nil {
		limit := min(*options.Limit, len(inputs))
		req.TopN = &limit
	}

	resp, err := r.client.Rerank(ctx, req)

	if err != nil {
		return nil, err
	}

	var result []provider.Ranking

	for _, r := range resp.Results {
		if r == nil {
			continue
		}

		result = append(result, provider.Ranking{
			Index: r.Index,
			Score: r.RelevanceScore,
		})
	}

	return result, nil
}
