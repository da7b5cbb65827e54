package index

import (
	"context"
	"errors"
	"strings"
)

// Provider is the storage contract every vector database adapter satisfies.
type Provider interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Query(ctx context.Context, query string, options *QueryOptions) ([]Chunk, error)
	Delete(ctx context.Context, docURL string) (*DeleteResult, error)
}

const DefaultLimit = 25

type QueryOptions struct {
	Limit *int
}

func (o *QueryOptions) TopK() int {
	if o == nil || o.Limit == nil || *o.Limit <= 0 {
		return DefaultLimit
	}

	return *o.Limit
}

type Chunk struct {
	ID         string
	DocumentID string

	Content string

	DocURL     string
	PageNumber *int

	Score     float32
	Embedding []float32

	Metadata map[string]any
}

type DeleteResult struct {
	Count int
}

type Kind string

const (
	KindPinecone Kind = "pinecone"
	KindQdrant   Kind = "qdrant"
	KindWeaviate Kind = "weaviate"
	KindAstra    Kind = "astra"
	KindMemory   Kind = "memory"
)

var Kinds = []Kind{
	KindPinecone,
	KindQdrant,
	KindWeaviate,
	KindAstra,
	KindMemory,
}

func ParseKind(val string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(val)))

	for _, k := range Kinds {
		if k == kind {
			return k, nil
		}
	}

	return "", errors.Join(ErrConfiguration, errors.New("unsupported provider: "+val))
}

type Credentials struct {
	Kind Kind

	Config map[string]string
}

func (c Credentials) Value(key string) string {
	if c.Config == nil {
		return ""
	}

	return strings.TrimSpace(c.Config[key])
}

func (c Credentials) Require(keys ...string) error {
	var missing []string

	for _, key := range keys {
		if c.Value(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return errors.Join(ErrConfiguration, errors.New(string(c.Kind)+": missing credential "+strings.Join(missing, ", ")))
	}

	return nil
}
