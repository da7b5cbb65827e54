package client

import (
	"context"

	"github.com/adrianliechti/vectorgate/server/api"
)

type DeletionService struct {
	Options []RequestOption
}

func NewDeletionService(opts ...RequestOption) DeletionService {
	return DeletionService{
		Options: opts,
	}
}

type DeletionRequest struct {
	Target

	DocURL string
}

func (r *DeletionService) New(ctx context.Context, input DeletionRequest, opts ...RequestOption) (int, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := api.DeleteRequest{
		Target: input.Target,
		DocURL: input.DocURL,
	}

	var result api.DeleteResponse

	if err := post(ctx, c, "/v1/delete", body, &result); err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
