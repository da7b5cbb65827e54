package factory

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/index/astra"
	"github.com/adrianliechti/vectorgate/pkg/index/memory"
	"github.com/adrianliechti/vectorgate/pkg/index/pinecone"
	"github.com/adrianliechti/vectorgate/pkg/index/qdrant"
	"github.com/adrianliechti/vectorgate/pkg/index/weaviate"
	"github.com/adrianliechti/vectorgate/pkg/provider"
)

// Credential keys understood by the adapters.
const (
	KeyHost      = "host"
	KeyAPIKey    = "api_key"
	KeyPort      = "port"
	KeyCloud     = "cloud"
	KeyRegion    = "region"
	KeyNamespace = "namespace"
	KeyKeyspace  = "keyspace"
)

type Option func(*Factory)

type Factory struct {
	client *http.Client
}

func WithClient(client *http.Client) Option {
	return func(f *Factory) {
		f.client = client
	}
}

// New returns the adapter for creds.Kind. Unknown kinds and missing required
// credentials fail with index.ErrConfiguration before any backend is contacted.
func New(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder, options ...Option) (index.Provider, error) {
	f := &Factory{
		client: http.DefaultClient,
	}

	for _, option := range options {
		option(f)
	}

	if encoder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("encoder is required"))
	}

	if name == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("index name is required"))
	}

	dimensions := encoder.Dimensions()

	switch creds.Kind {
	case index.KindPinecone:
		return f.pinecone(ctx, name, creds, encoder, dimensions)

	case index.KindQdrant:
		return f.qdrant(ctx, name, creds, encoder, dimensions)

	case index.KindWeaviate:
		return f.weaviate(ctx, name, creds, encoder, dimensions)

	case index.KindAstra:
		return f.astra(ctx, name, creds, encoder, dimensions)

	case index.KindMemory:
		p, err := memory.New(
			memory.WithEmbedder(encoder),
			memory.WithDimensions(dimensions),
		)

		if err != nil {
			return nil, err
		}

		return p, nil

	default:
		return nil, errors.Join(index.ErrConfiguration, errors.New("unsupported provider: "+string(creds.Kind)))
	}
}

func (f *Factory) pinecone(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder, dimensions int) (index.Provider, error) {
	if err := creds.Require(KeyAPIKey); err != nil {
		return nil, err
	}

	options := []pinecone.Option{
		pinecone.WithClient(f.client),
		pinecone.WithToken(creds.Value(KeyAPIKey)),
		pinecone.WithEmbedder(encoder),
		pinecone.WithDimensions(dimensions),
	}

	if val := creds.Value(KeyHost); val != "" {
		options = append(options, pinecone.WithURL(val))
	}

	if val := creds.Value(KeyNamespace); val != "" {
		options = append(options, pinecone.WithNamespace(val))
	}

	cloud := creds.Value(KeyCloud)
	region := creds.Value(KeyRegion)

	if cloud != "" || region != "" {
		options = append(options, pinecone.WithServerless(cloud, region))
	}

	p, err := pinecone.New(ctx, name, options...)

	if err != nil {
		return nil, err
	}

	return p, nil
}

func (f *Factory) qdrant(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder, dimensions int) (index.Provider, error) {
	if err := creds.Require(KeyHost); err != nil {
		return nil, err
	}

	options := []qdrant.Option{
		qdrant.WithEmbedder(encoder),
		qdrant.WithDimensions(dimensions),
	}

	if val := creds.Value(KeyAPIKey); val != "" {
		options = append(options, qdrant.WithToken(val))
	}

	if val := creds.Value(KeyPort); val != "" {
		port, err := strconv.Atoi(val)

		if err != nil {
			return nil, errors.Join(index.ErrConfiguration, errors.New("invalid qdrant port: "+val))
		}

		options = append(options, qdrant.WithPort(port))
	}

	p, err := qdrant.New(ctx, creds.Value(KeyHost), name, options...)

	if err != nil {
		return nil, err
	}

	return p, nil
}

func (f *Factory) weaviate(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder, dimensions int) (index.Provider, error) {
	if err := creds.Require(KeyHost); err != nil {
		return nil, err
	}

	options := []weaviate.Option{
		weaviate.WithClient(f.client),
		weaviate.WithEmbedder(encoder),
		weaviate.WithDimensions(dimensions),
	}

	if val := creds.Value(KeyAPIKey); val != "" {
		options = append(options, weaviate.WithToken(val))
	}

	p, err := weaviate.New(ctx, creds.Value(KeyHost), name, options...)

	if err != nil {
		return nil, err
	}

	return p, nil
}

func (f *Factory) astra(ctx context.Context, name string, creds index.Credentials, encoder provider.Encoder, dimensions int) (index.Provider, error) {
	if err := creds.Require(KeyHost, KeyAPIKey); err != nil {
		return nil, err
	}

	options := []astra.Option{
		astra.WithClient(f.client),
		astra.WithToken(creds.Value(KeyAPIKey)),
		astra.WithEmbedder(encoder),
		astra.WithDimensions(dimensions),
	}

	if val := creds.Value(KeyKeyspace); val != "" {
		options = append(options, astra.WithKeyspace(val))
	}

	p, err := astra.New(ctx, creds.Value(KeyHost), name, options...)

	if err != nil {
		return nil, err
	}

	return p, nil
}
