package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

var _ index.Provider = &Client{}

const (
	DefaultBatchSize = 100

	vectorName = "content"
)

type Client struct {
	client *qdrant.Client

	token string
	port  int
	tls   *bool

	collection string

	embedder   provider.Embedder
	dimensions int

	batchSize   int
	dialOptions []grpc.DialOption

	deleter index.Deleter
}

// New connects to Qdrant and creates the collection with a named cosine
// vector space when it is missing. Check and create are separate calls.
func New(ctx context.Context, url, collection string, options ...Option) (*Client, error) {
	c := &Client{
		collection: collection,

		batchSize: DefaultBatchSize,

		dialOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(100 * 1024 * 1024)),
		},
	}

	for _, option := range options {
		option(c)
	}

	if c.collection == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("qdrant: invalid collection name"))
	}

	if c.embedder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("qdrant: embedder is required"))
	}

	e, err := parseEndpoint(url)

	if err != nil {
		return nil, err
	}

	if c.port > 0 {
		e.port = c.port
	}

	if c.tls != nil {
		e.tls = *c.tls
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: e.host,
		Port: e.port,

		APIKey: c.token,
		UseTLS: e.tls,

		GrpcOptions: c.dialOptions,
	})

	if err != nil {
		return nil, index.Unavailable("qdrant: connect", err)
	}

	c.client = client
	c.deleter = index.FilterDeleter(c.deleteByURL)

	if err := c.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return c, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) ensureCollection(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collection)

	if err != nil {
		return index.Unavailable("qdrant: collection exists", err)
	}

	if exists {
		return nil
	}

	slog.Info("creating qdrant collection", "collection", c.collection, "dimensions", c.dimensions)

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,

		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(c.dimensions),
				Distance: qdrant.Distance_Cosine,
			},
		}),

		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			IndexingThreshold: qdrant.PtrOf(uint64(0)),
		},
	})

	if err != nil {
		return index.Unavailable("qdrant: create collection", err)
	}

	return nil
}

func (c *Client) Upsert(ctx context.Context, chunks []index.Chunk) error {
	if err := index.CheckChunks(chunks, c.dimensions); err != nil {
		return err
	}

	for batch := range index.Batch(chunks, c.batchSize) {
		points := make([]*qdrant.PointStruct, 0, len(batch))

		for _, chunk := range batch {
			payload, err := qdrant.TryValueMap(convertPayload(chunk))

			if err != nil {
				return fmt.Errorf("qdrant: chunk %s: %w", chunk.ID, err)
			}

			points = append(points, &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(index.UUID(chunk.ID)),

				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(chunk.Embedding...),
				}),

				Payload: payload,
			})
		}

		_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.collection,

			Wait:   qdrant.PtrOf(true),
			Points: points,
		})

		if err != nil {
			return index.Unavailable("qdrant: upsert", err)
		}
	}

	return nil
}

func (c *Client) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	embedding, err := index.EmbedQuery(ctx, c.embedder, query)

	if err != nil {
		return nil, err
	}

	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,

		Query: qdrant.NewQuery(embedding...),
		Using: qdrant.PtrOf(vectorName),

		Limit:       qdrant.PtrOf(uint64(options.TopK())),
		WithPayload: qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, index.Unavailable("qdrant: query", err)
	}

	results := make([]index.Chunk, 0, len(points))

	for _, p := range points {
		results = append(results, convertPoint(p))
	}

	return results, nil
}

func (c *Client) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	return c.deleter.Delete(ctx, docURL)
}

// deleteByURL counts the matching points before the filtered delete because
// Qdrant does not report how many points a filter removed.
func (c *Client) deleteByURL(ctx context.Context, docURL string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(index.FieldDocURL, docURL),
		},
	}

	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.collection,

		Filter: filter,
		Exact:  qdrant.PtrOf(true),
	})

	if err != nil {
		return 0, index.Unavailable("qdrant: count", err)
	}

	if count == 0 {
		return 0, nil
	}

	_, err = c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collection,

		Wait:   qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(filter),
	})

	if err != nil {
		return 0, index.Unavailable("qdrant: delete", err)
	}

	return int(count), nil
}

func convertPayload(chunk index.Chunk) map[string]any {
	payload := chunk.Attributes()

	payload[index.FieldChunkID] = chunk.ID
	payload[index.FieldDocumentID] = chunk.DocumentID
	payload[index.FieldContent] = chunk.Content
	payload[index.FieldDocURL] = chunk.DocURL

	if chunk.PageNumber != nil {
		payload[index.FieldPageNumber] = int64(*chunk.PageNumber)
	}

	return payload
}

func convertPoint(p *qdrant.ScoredPoint) index.Chunk {
	payload := make(map[string]any, len(p.Payload))

	for key, v := range p.Payload {
		payload[key] = convertValue(v)
	}

	id := index.String(payload[index.FieldChunkID])

	if id == "" {
		id = convertID(p.Id)
	}

	return index.Chunk{
		ID:         id,
		DocumentID: index.String(payload[index.FieldDocumentID]),

		Content: index.String(payload[index.FieldContent]),

		DocURL:     index.String(payload[index.FieldDocURL]),
		PageNumber: index.PageNumber(payload[index.FieldPageNumber]),

		Score:    p.Score,
		Metadata: index.ExtraMetadata(payload),
	}
}

func convertID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}

	switch x := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return x.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", x.Num)
	}

	return ""
}

func convertValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue

	case *qdrant.Value_IntegerValue:
		return val.IntegerValue

	case *qdrant.Value_DoubleValue:
		return val.DoubleValue

	case *qdrant.Value_StringValue:
		return val.StringValue

	case *qdrant.Value_NullValue:
		return nil

	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))

		for i, lv := range val.ListValue.Values {
			out[i] = convertValue(lv)
		}

		return out

	case *qdrant.Value_StructValue:
		out := make(map[string]any)

		for k, nv := range val.StructValue.Fields {
			out[k] = convertValue(nv)
		}

		return out
	}

	return nil
}
