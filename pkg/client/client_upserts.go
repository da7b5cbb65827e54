package client

import (
	"context"

	"github.com/adrianliechti/vectorgate/server/api"
)

type UpsertService struct {
	Options []RequestOption
}

func NewUpsertService(opts ...RequestOption) UpsertService {
	return UpsertService{
		Options: opts,
	}
}

type UpsertRequest struct {
	Target

	Chunks []Chunk
}

func (r *UpsertService) New(ctx context.Context, input UpsertRequest, opts ...RequestOption) (int, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := api.UpsertRequest{
		Target: input.Target,
		Chunks: input.Chunks,
	}

	var result api.UpsertResponse

	if err := post(ctx, c, "/v1/upsert", body, &result); err != nil {
		return 0, err
	}

	return result.Count, nil
}
