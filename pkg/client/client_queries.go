package client

import (
	"context"

	"github.com/adrianliechti/vectorgate/server/api"
)

type QueryService struct {
	Options []RequestOption
}

func NewQueryService(opts ...RequestOption) QueryService {
	return QueryService{
		Options: opts,
	}
}

type QueryRequest struct {
	Target

	Input string

	TopK *int

	Rerank bool
	TopN   *int
}

func (r *QueryService) New(ctx context.Context, input QueryRequest, opts ...RequestOption) ([]Chunk, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := api.QueryRequest{
		Target: input.Target,

		Input:  input.Input,
		Rerank: input.Rerank,
	}

	if input.TopK != nil {
		body.TopK = *input.TopK
	}

	if input.TopN != nil {
		body.TopN = *input.TopN
	}

	var result api.QueryResponse

	if err := post(ctx, c, "/v1/query", body, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}
