package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"
)

var _ index.Provider = &Client{}

const (
	DefaultBatchSize = 5
	DefaultKeyspace  = "default_keyspace"

	fieldID         = "_id"
	fieldVector     = "$vector"
	fieldSimilarity = "$similarity"

	errDocumentExists = "DOCUMENT_ALREADY_EXISTS"
)

type Client struct {
	client *http.Client

	url   string
	token string

	keyspace   string
	collection string

	embedder   provider.Embedder
	dimensions int

	batchSize int

	deleter index.Deleter
}

// New connects to the Astra Data API endpoint and creates the vector
// collection when the keyspace does not list it yet.
func New(ctx context.Context, url, collection string, options ...Option) (*Client, error) {
	c := &Client{
		client: http.DefaultClient,

		url:        normalizeURL(url),
		collection: collection,

		keyspace:  DefaultKeyspace,
		batchSize: DefaultBatchSize,
	}

	for _, option := range options {
		option(c)
	}

	if c.url == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("astra: invalid url"))
	}

	if c.token == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("astra: invalid token"))
	}

	if c.collection == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("astra: invalid collection name"))
	}

	if c.embedder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("astra: embedder is required"))
	}

	c.deleter = index.FilterDeleter(c.deleteByURL)

	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) keyspaceURL() string {
	return c.url + "/api/json/v1/" + url.PathEscape(c.keyspace)
}

func (c *Client) collectionURL() string {
	return c.keyspaceURL() + "/" + url.PathEscape(c.collection)
}

func (c *Client) ensureCollection(ctx context.Context) error {
	resp, err := c.command(ctx, c.keyspaceURL(), Command{
		"findCollections": map[string]any{},
	})

	if err != nil {
		return index.Unavailable("astra: find collections", err)
	}

	if resp.Status == nil {
		return index.Mismatch("astra: find collections response without status")
	}

	if slices.Contains(resp.Status.Collections, c.collection) {
		return nil
	}

	slog.Info("creating astra collection", "collection", c.collection, "dimensions", c.dimensions)

	_, err = c.command(ctx, c.keyspaceURL(), Command{
		"createCollection": map[string]any{
			"name": c.collection,

			"options": CollectionOptions{
				Vector: VectorOptions{
					Dimension: c.dimensions,
					Metric:    "cosine",
				},
			},
		},
	})

	if err != nil {
		return index.Unavailable("astra: create collection", err)
	}

	return nil
}

// Upsert inserts each batch unordered. Documents rejected because their _id
// already exists are replaced one by one.
func (c *Client) Upsert(ctx context.Context, chunks []index.Chunk) error {
	if err := index.CheckChunks(chunks, c.dimensions); err != nil {
		return err
	}

	for batch := range index.Batch(chunks, c.batchSize) {
		documents := make([]map[string]any, 0, len(batch))

		for _, chunk := range batch {
			documents = append(documents, convertDocument(chunk))
		}

		body, err := c.do(ctx, c.collectionURL(), Command{
			"insertMany": map[string]any{
				"documents": documents,

				"options": map[string]any{
					"ordered": false,
				},
			},
		})

		if err != nil {
			return index.Unavailable("astra: insert many", err)
		}

		var errs []error

		for _, e := range body.Errors {
			if e.ErrorCode == errDocumentExists {
				continue
			}

			errs = append(errs, e)
		}

		if err := errors.Join(errs...); err != nil {
			return index.Unavailable("astra: insert many", err)
		}

		inserted := map[string]bool{}

		if body.Status != nil {
			for _, id := range body.Status.InsertedIDs {
				inserted[index.String(id)] = true
			}
		}

		for _, doc := range documents {
			id := index.String(doc[fieldID])

			if inserted[id] {
				continue
			}

			if err := c.replace(ctx, id, doc); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *Client) replace(ctx context.Context, id string, doc map[string]any) error {
	_, err := c.command(ctx, c.collectionURL(), Command{
		"findOneAndReplace": map[string]any{
			"filter": map[string]any{
				fieldID: id,
			},

			"replacement": doc,

			"options": map[string]any{
				"upsert": true,
			},
		},
	})

	if err != nil {
		return index.Unavailable("astra: replace", err)
	}

	return nil
}

func (c *Client) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	embedding, err := index.EmbedQuery(ctx, c.embedder, query)

	if err != nil {
		return nil, err
	}

	resp, err := c.command(ctx, c.collectionURL(), Command{
		"find": map[string]any{
			"sort": map[string]any{
				fieldVector: embedding,
			},

			"projection": map[string]any{
				fieldVector: 0,
			},

			"options": map[string]any{
				"limit":             options.TopK(),
				"includeSimilarity": true,
			},
		},
	})

	if err != nil {
		return nil, index.Unavailable("astra: find", err)
	}

	if resp.Data == nil {
		return nil, index.Mismatch("astra: find response without data")
	}

	results := make([]index.Chunk, 0, len(resp.Data.Documents))

	for _, doc := range resp.Data.Documents {
		results = append(results, convertChunk(doc))
	}

	return results, nil
}

func (c *Client) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	return c.deleter.Delete(ctx, docURL)
}

// deleteByURL repeats deleteMany while the server signals moreData, since a
// single call only removes a bounded page of documents.
func (c *Client) deleteByURL(ctx context.Context, docURL string) (int, error) {
	count := 0

	for {
		resp, err := c.command(ctx, c.collectionURL(), Command{
			"deleteMany": map[string]any{
				"filter": map[string]any{
					index.FieldDocURL: docURL,
				},
			},
		})

		if err != nil {
			return count, index.Unavailable("astra: delete many", err)
		}

		if resp.Status == nil {
			return count, index.Mismatch("astra: delete response without status")
		}

		count += resp.Status.DeletedCount

		if !resp.Status.MoreData {
			break
		}
	}

	slog.Info("deleted chunks from astra collection", "collection", c.collection, "doc_url", docURL, "count", count)

	return count, nil
}

// command runs a Data API command and fails on any reported error.
func (c *Client) command(ctx context.Context, url string, cmd Command) (*Response, error) {
	resp, err := c.do(ctx, url, cmd)

	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		errs := make([]error, 0, len(resp.Errors))

		for _, e := range resp.Errors {
			errs = append(errs, e)
		}

		return nil, errors.Join(errs...)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, url string, cmd Command) (*Response, error) {
	data, err := json.Marshal(cmd)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, convertError(resp)
	}

	var result Response

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, index.Mismatch("astra: %v", err)
	}

	return &result, nil
}

func convertDocument(chunk index.Chunk) map[string]any {
	doc := chunk.Attributes()

	doc[fieldID] = chunk.ID
	doc[fieldVector] = chunk.Embedding

	doc[index.FieldText] = chunk.Content
	doc[index.FieldDocumentID] = chunk.DocumentID
	doc[index.FieldDocURL] = chunk.DocURL

	if chunk.PageNumber != nil {
		doc[index.FieldPageNumber] = *chunk.PageNumber
	}

	return doc
}

func convertChunk(doc map[string]any) index.Chunk {
	var score float32

	if val, ok := doc[fieldSimilarity].(float64); ok {
		score = float32(val)
	}

	docURL := index.String(doc[index.FieldDocURL])

	skip := []string{fieldID, fieldVector, fieldSimilarity}

	// older records carry the document location as source
	if docURL == "" {
		docURL = index.String(doc[index.FieldSource])
		skip = append(skip, index.FieldSource)
	}

	return index.Chunk{
		ID:         index.String(doc[fieldID]),
		DocumentID: index.String(doc[index.FieldDocumentID]),

		Content: index.String(doc[index.FieldText]),

		DocURL:     docURL,
		PageNumber: index.PageNumber(doc[index.FieldPageNumber]),

		Score:    score,
		Metadata: index.ExtraMetadata(doc, skip...),
	}
}

func normalizeURL(val string) string {
	val = strings.TrimRight(strings.TrimSpace(val), "/")

	if val == "" {
		return ""
	}

	if strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://") {
		return val
	}

	return "https://" + val
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	if len(data) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	return errors.New(string(data))
}
