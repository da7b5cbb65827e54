package otel

import (
	"context"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Reranker interface {
	Observable
	provider.Reranker
}

type observableReranker struct {
	model    string
	provider string

	reranker provider.Reranker
}

func NewReranker(provider, model string, p provider.Reranker) Reranker {
	return &observableReranker{
		reranker: p,

		model:    model,
		provider: provider,
	}
}

func (p *observableReranker) otelSetup() {
}

func (p *observableReranker) Rerank(ctx context.Context, query string, inputs []string, options *provider.RerankOptions) ([]provider.Ranking, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "rerank "+p.model)
	defer span.End()

	span.SetAttributes(
		attribute.String("provider", p.provider),
		attribute.Int("inputs", len(inputs)),
	)

	if EnableDebug {
		span.SetAttributes(attribute.String("query", query))
	}

	result, err := p.reranker.Rerank(ctx, query, inputs, options)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}
