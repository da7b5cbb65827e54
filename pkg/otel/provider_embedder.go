package otel

import (
	"context"
	"time"

	"github.com/adrianliechti/vectorgate/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
)

type Embedder interface {
	Observable
	provider.Encoder
}

type observableEmbedder struct {
	model    string
	provider string

	encoder provider.Encoder

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewEmbedder(provider, model string, p provider.Encoder) Embedder {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableEmbedder{
		encoder: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableEmbedder) otelSetup() {
}

func (p *observableEmbedder) Dimensions() int {
	return p.encoder.Dimensions()
}

func (p *observableEmbedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "embeddings "+p.model)
	defer span.End()

	span.SetAttributes(attribute.Int("inputs", len(texts)))

	timestamp := time.Now()

	result, err := p.encoder.Embed(ctx, texts)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if result != nil {
		duration := time.Since(timestamp).Seconds()

		providerName := genaiconv.ProviderNameAttr(p.provider)
		providerModel := p.model

		if result.Model != "" {
			providerModel = result.Model
		}

		p.operationDurationMetric.Record(ctx, duration,
			genaiconv.OperationNameEmbeddings,
			providerName,
			p.operationDurationMetric.AttrRequestModel(p.model),
			p.operationDurationMetric.AttrResponseModel(providerModel),
		)

		if result.Usage != nil && result.Usage.InputTokens > 0 {
			p.tokenUsageMetric.Record(ctx, int64(result.Usage.InputTokens),
				genaiconv.OperationNameEmbeddings,
				providerName,
				genaiconv.TokenTypeInput,
				p.tokenUsageMetric.AttrRequestModel(p.model),
				p.tokenUsageMetric.AttrResponseModel(providerModel),
			)
		}
	}

	return result, err
}
