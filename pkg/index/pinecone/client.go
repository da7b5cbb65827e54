package pinecone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/pinecone-io/go-pinecone/v5/pinecone"
)

var _ index.Provider = &Client{}

const (
	DefaultBatchSize = 100
)

// Connection is the data plane of a Pinecone index. It is satisfied by
// *pinecone.IndexConnection.
type Connection interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DeleteVectorsById(ctx context.Context, ids []string) error

	Close() error
}

type Client struct {
	params pinecone.NewClientParams

	client *pinecone.Client
	conn   Connection

	name      string
	namespace string

	cloud  string
	region string

	embedder   provider.Embedder
	dimensions int

	batchSize   int
	deleteLimit int

	deleter index.Deleter
}

// New opens the named Pinecone index, creating a serverless index when it
// does not exist yet. The existence check and the creation are two calls, so
// concurrent construction from several processes may race.
func New(ctx context.Context, name string, options ...Option) (*Client, error) {
	c := &Client{
		name: name,

		cloud:  string(pinecone.Aws),
		region: "us-west-2",

		batchSize:   DefaultBatchSize,
		deleteLimit: index.DefaultFetchLimit,
	}

	for _, option := range options {
		option(c)
	}

	if c.name == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("pinecone: invalid index name"))
	}

	if c.params.ApiKey == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("pinecone: invalid token"))
	}

	if c.embedder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("pinecone: embedder is required"))
	}

	client, err := pinecone.NewClient(c.params)

	if err != nil {
		return nil, errors.Join(index.ErrConfiguration, err)
	}

	c.client = client

	c.deleter = &index.FetchDeleter{
		Limit: c.deleteLimit,

		Fetch:  c.fetchIDs,
		Remove: c.removeIDs,
	}

	host, err := c.ensureIndex(ctx)

	if err != nil {
		return nil, err
	}

	if c.conn == nil {
		conn, err := client.Index(pinecone.NewIndexConnParams{
			Host:      host,
			Namespace: c.namespace,
		})

		if err != nil {
			return nil, index.Unavailable("pinecone: connect", err)
		}

		c.conn = conn
	}

	return c, nil
}

func (c *Client) ensureIndex(ctx context.Context) (string, error) {
	indexes, err := c.client.ListIndexes(ctx)

	if err != nil {
		return "", index.Unavailable("pinecone: list indexes", err)
	}

	var existing *pinecone.Index

	for _, idx := range indexes {
		if idx != nil && idx.Name == c.name {
			existing = idx
		}
	}

	if existing == nil {
		slog.Info("creating pinecone index", "index", c.name, "dimensions", c.dimensions)

		metric := pinecone.Dotproduct
		dimension := int32(c.dimensions)

		existing, err = c.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name: c.name,

			Cloud:  pinecone.Cloud(c.cloud),
			Region: c.region,

			Metric:    &metric,
			Dimension: &dimension,
		})

		if err != nil {
			return "", index.Unavailable("pinecone: create index", err)
		}
	}

	if existing == nil || existing.Host == "" {
		existing, err = c.client.DescribeIndex(ctx, c.name)

		if err != nil {
			return "", index.Unavailable("pinecone: describe index", err)
		}
	}

	if existing == nil || existing.Host == "" {
		return "", index.Mismatch("pinecone: index %s has no host", c.name)
	}

	if c.dimensions > 0 && existing.Dimension != nil && int(*existing.Dimension) != c.dimensions {
		return "", index.Mismatch("pinecone: index %s has %d dimensions, encoder has %d", c.name, *existing.Dimension, c.dimensions)
	}

	return existing.Host, nil
}

func (c *Client) Upsert(ctx context.Context, chunks []index.Chunk) error {
	if err := index.CheckChunks(chunks, c.dimensions); err != nil {
		return err
	}

	for batch := range index.Batch(chunks, c.batchSize) {
		vectors := make([]*pinecone.Vector, 0, len(batch))

		for _, chunk := range batch {
			metadata, err := pinecone.NewMetadata(convertMetadata(chunk))

			if err != nil {
				return fmt.Errorf("%w: chunk %s: %v", index.ErrInvalidChunk, chunk.ID, err)
			}

			values := chunk.Embedding

			vectors = append(vectors, &pinecone.Vector{
				Id: chunk.ID,

				Values:   &values,
				Metadata: metadata,
			})
		}

		if _, err := c.conn.UpsertVectors(ctx, vectors); err != nil {
			return index.Unavailable("pinecone: upsert", err)
		}
	}

	return nil
}

func (c *Client) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	embedding, err := index.EmbedQuery(ctx, c.embedder, query)

	if err != nil {
		return nil, err
	}

	matches, err := c.query(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector: embedding,
		TopK:   uint32(options.TopK()),

		IncludeMetadata: true,
	})

	if err != nil {
		return nil, err
	}

	results := make([]index.Chunk, 0, len(matches))

	for _, m := range matches {
		chunk, err := convertMatch(m)

		if err != nil {
			return nil, err
		}

		results = append(results, chunk)
	}

	return results, nil
}

func (c *Client) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	result, err := c.deleter.Delete(ctx, docURL)

	if err != nil {
		return nil, err
	}

	slog.Info("deleted chunks from pinecone index", "index", c.name, "doc_url", docURL, "count", result.Count)

	return result, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// fetchIDs finds matching vectors through a zero-vector query restricted by a
// metadata filter. Serverless indexes have no delete by filter and Pinecone
// caps topK, which bounds a single delete.
func (c *Client) fetchIDs(ctx context.Context, docURL string, limit int) ([]string, error) {
	filter, err := pinecone.NewMetadataFilter(map[string]any{
		index.FieldDocURL: map[string]any{
			"$eq": docURL,
		},
	})

	if err != nil {
		return nil, err
	}

	matches, err := c.query(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector: make([]float32, c.dimensions),
		TopK:   uint32(limit),

		MetadataFilter: filter,
	})

	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))

	for _, m := range matches {
		if m == nil || m.Vector == nil {
			continue
		}

		ids = append(ids, m.Vector.Id)
	}

	return ids, nil
}

func (c *Client) removeIDs(ctx context.Context, ids []string) error {
	if err := c.conn.DeleteVectorsById(ctx, ids); err != nil {
		return index.Unavailable("pinecone: delete", err)
	}

	return nil
}

func (c *Client) query(ctx context.Context, req *pinecone.QueryByVectorValuesRequest) ([]*pinecone.ScoredVector, error) {
	resp, err := c.conn.QueryByVectorValues(ctx, req)

	if err != nil {
		return nil, index.Unavailable("pinecone: query", err)
	}

	if resp == nil {
		return nil, index.Mismatch("pinecone: empty query response")
	}

	return resp.Matches, nil
}

func convertMetadata(chunk index.Chunk) map[string]any {
	metadata := chunk.Attributes()

	metadata[index.FieldDocumentID] = chunk.DocumentID
	metadata[index.FieldContent] = chunk.Content
	metadata[index.FieldDocURL] = chunk.DocURL

	if chunk.PageNumber != nil {
		metadata[index.FieldPageNumber] = *chunk.PageNumber
	}

	return metadata
}

func convertMatch(m *pinecone.ScoredVector) (index.Chunk, error) {
	if m == nil || m.Vector == nil {
		return index.Chunk{}, index.Mismatch("pinecone: match without vector")
	}

	var metadata map[string]any

	if m.Vector.Metadata != nil {
		metadata = m.Vector.Metadata.AsMap()
	}

	content, ok := metadata[index.FieldContent]

	if !ok {
		return index.Chunk{}, index.Mismatch("pinecone: match %s has no content", m.Vector.Id)
	}

	docURL := index.String(metadata[index.FieldDocURL])

	var skip []string

	// older records carry the document location as source
	if docURL == "" {
		docURL = index.String(metadata[index.FieldSource])
		skip = append(skip, index.FieldSource)
	}

	return index.Chunk{
		ID:         m.Vector.Id,
		DocumentID: index.String(metadata[index.FieldDocumentID]),

		Content: index.String(content),

		DocURL:     docURL,
		PageNumber: index.PageNumber(metadata[index.FieldPageNumber]),

		Score:    m.Score,
		Metadata: index.ExtraMetadata(metadata, skip...),
	}, nil
}
