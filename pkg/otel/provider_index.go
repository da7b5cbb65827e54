package otel

import (
	"context"
	"time"

	"github.com/adrianliechti/vectorgate/pkg/index"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Index interface {
	Observable
	index.Provider
}

type observableIndex struct {
	kind index.Kind
	name string

	index index.Provider

	operationDurationMetric metric.Float64Histogram
}

// NewIndex wraps p so every operation gets a span and a duration sample.
func NewIndex(kind index.Kind, name string, p index.Provider) Index {
	meter := otel.Meter(instrumentationName)

	operationDurationMetric, _ := meter.Float64Histogram("db.client.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of vector database operations."),
	)

	return &observableIndex{
		index: p,

		kind: kind,
		name: name,

		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableIndex) otelSetup() {
}

func (p *observableIndex) Upsert(ctx context.Context, chunks []index.Chunk) error {
	ctx, span := p.start(ctx, "upsert")
	defer span.End()

	span.SetAttributes(attribute.Int("db.operation.batch.size", len(chunks)))

	timestamp := time.Now()

	err := p.index.Upsert(ctx, chunks)

	p.finish(ctx, span, "upsert", timestamp, err)

	return err
}

func (p *observableIndex) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	ctx, span := p.start(ctx, "query")
	defer span.End()

	span.SetAttributes(attribute.Int("top_k", options.TopK()))

	if EnableDebug {
		span.SetAttributes(attribute.String("query", query))
	}

	timestamp := time.Now()

	result, err := p.index.Query(ctx, query, options)

	p.finish(ctx, span, "query", timestamp, err)

	span.SetAttributes(attribute.Int("db.response.returned_rows", len(result)))

	return result, err
}

func (p *observableIndex) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	ctx, span := p.start(ctx, "delete")
	defer span.End()

	span.SetAttributes(attribute.String("doc_url", docURL))

	timestamp := time.Now()

	result, err := p.index.Delete(ctx, docURL)

	p.finish(ctx, span, "delete", timestamp, err)

	if result != nil {
		span.SetAttributes(attribute.Int("deleted", result.Count))
	}

	return result, err
}

func (p *observableIndex) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, operation+" "+p.name)

	span.SetAttributes(p.attrs(operation)...)
	span.SetAttributes(EndUserAttrs(ctx)...)

	return ctx, span
}

func (p *observableIndex) finish(ctx context.Context, span trace.Span, operation string, timestamp time.Time, err error) {
	attrs := p.attrs(operation)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		attrs = append(attrs, attribute.String("error.type", "error"))
	}

	p.operationDurationMetric.Record(ctx, time.Since(timestamp).Seconds(), metric.WithAttributes(attrs...))
}

func (p *observableIndex) attrs(operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system.name", string(p.kind)),
		attribute.String("db.collection.name", p.name),
		attribute.String("db.operation.name", operation),
	}
}
