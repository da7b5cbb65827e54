package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

var _ index.Provider = &Client{}

const DefaultBatchSize = 100

type Client struct {
	client *weaviate.Client

	http  *http.Client
	token string

	class string

	embedder   provider.Embedder
	dimensions int

	batchSize int

	deleter index.Deleter
}

// New opens the Weaviate class for name (first letter upper-cased, as
// Weaviate stores it) and creates it without a vectorizer when missing.
func New(ctx context.Context, rawURL, name string, options ...Option) (*Client, error) {
	c := &Client{
		class: className(name),

		batchSize: DefaultBatchSize,
	}

	for _, option := range options {
		option(c)
	}

	u, err := url.Parse(strings.TrimRight(rawURL, "/"))

	if err != nil || u.Host == "" {
		return nil, errors.Join(index.ErrConfiguration, errors.New("weaviate: invalid url"))
	}

	if !validClass(c.class) {
		return nil, errors.Join(index.ErrConfiguration, errors.New("weaviate: invalid class name "+name))
	}

	if c.embedder == nil {
		return nil, errors.Join(index.ErrConfiguration, errors.New("weaviate: embedder is required"))
	}

	cfg := weaviate.Config{
		Host:   u.Host + u.Path,
		Scheme: u.Scheme,

		ConnectionClient: c.http,
	}

	if c.token != "" {
		cfg.Headers = map[string]string{
			"Authorization": "Bearer " + c.token,
		}
	}

	client, err := weaviate.NewClient(cfg)

	if err != nil {
		return nil, errors.Join(index.ErrConfiguration, err)
	}

	c.client = client
	c.deleter = index.FilterDeleter(c.deleteByURL)

	if err := c.ensureClass(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) ensureClass(ctx context.Context) error {
	exists, err := c.client.Schema().ClassExistenceChecker().
		WithClassName(c.class).
		Do(ctx)

	if err != nil {
		return convertError("get schema", err)
	}

	if exists {
		return nil
	}

	slog.Info("creating weaviate class", "class", c.class)

	class := &models.Class{
		Class:      c.class,
		Vectorizer: "none",

		Properties: []*models.Property{
			{Name: index.FieldText, DataType: []string{"text"}},
			{Name: index.FieldChunkID, DataType: []string{"text"}},
			{Name: index.FieldDocumentID, DataType: []string{"text"}},
			{Name: index.FieldDocURL, DataType: []string{"text"}},
			{Name: index.FieldPageNumber, DataType: []string{"int"}},
		},
	}

	if err := c.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return convertError("create class", err)
	}

	return nil
}

func (c *Client) Upsert(ctx context.Context, chunks []index.Chunk) error {
	if err := index.CheckChunks(chunks, c.dimensions); err != nil {
		return err
	}

	for batch := range index.Batch(chunks, c.batchSize) {
		objects := make([]*models.Object, 0, len(batch))

		for _, chunk := range batch {
			objects = append(objects, &models.Object{
				Class: c.class,
				ID:    strfmt.UUID(index.UUID(chunk.ID)),

				Properties: convertProperties(chunk),
				Vector:     models.C11yVector(chunk.Embedding),
			})
		}

		results, err := c.client.Batch().ObjectsBatcher().
			WithObjects(objects...).
			Do(ctx)

		if err != nil {
			return convertError("batch objects", err)
		}

		if err := batchError(results); err != nil {
			return index.Unavailable("weaviate: batch objects", err)
		}
	}

	return nil
}

// Query returns an empty result when the GraphQL response has no data
// envelope or no results for the class. Errors reported next to a data
// envelope fail the query.
func (c *Client) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Chunk, error) {
	embedding, err := index.EmbedQuery(ctx, c.embedder, query)

	if err != nil {
		return nil, err
	}

	nearVector := c.client.GraphQL().NearVectorArgBuilder().
		WithVector(embedding)

	fields := []graphql.Field{
		{Name: index.FieldChunkID},
		{Name: index.FieldDocumentID},
		{Name: index.FieldText},
		{Name: index.FieldDocURL},
		{Name: index.FieldPageNumber},

		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "distance"},
		}},
	}

	resp, err := c.client.GraphQL().Get().
		WithClassName(c.class).
		WithNearVector(nearVector).
		WithLimit(options.TopK()).
		WithFields(fields...).
		Do(ctx)

	if err != nil {
		return nil, convertError("graphql", err)
	}

	if resp.Data == nil {
		slog.Error("weaviate response is missing data", "class", c.class, "query", query, "errors", graphqlErrors(resp.Errors))
		return []index.Chunk{}, nil
	}

	get, _ := resp.Data["Get"].(map[string]any)
	result, ok := get[c.class]

	if !ok {
		slog.Error("weaviate response is missing class results", "class", c.class, "query", query, "errors", graphqlErrors(resp.Errors))
		return []index.Chunk{}, nil
	}

	if len(resp.Errors) > 0 {
		return nil, index.Mismatch("weaviate: %s", strings.Join(graphqlErrors(resp.Errors), "; "))
	}

	objects, ok := result.([]any)

	if !ok && result != nil {
		return nil, index.Mismatch("weaviate: unexpected results for class %s", c.class)
	}

	results := make([]index.Chunk, 0, len(objects))

	for _, o := range objects {
		object, ok := o.(map[string]any)

		if !ok {
			return nil, index.Mismatch("weaviate: unexpected object in class %s", c.class)
		}

		results = append(results, convertObject(object))
	}

	return results, nil
}

func (c *Client) Delete(ctx context.Context, docURL string) (*index.DeleteResult, error) {
	slog.Info("deleting from weaviate class", "class", c.class, "doc_url", docURL)

	return c.deleter.Delete(ctx, docURL)
}

func (c *Client) deleteByURL(ctx context.Context, docURL string) (int, error) {
	where := filters.Where().
		WithPath([]string{index.FieldDocURL}).
		WithOperator(filters.Equal).
		WithValueText(docURL)

	resp, err := c.client.Batch().ObjectsBatchDeleter().
		WithClassName(c.class).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)

	if err != nil {
		return 0, convertError("batch delete", err)
	}

	if resp.Results == nil {
		return 0, index.Mismatch("weaviate: batch delete without results")
	}

	return int(resp.Results.Successful), nil
}

func convertProperties(chunk index.Chunk) map[string]any {
	properties := chunk.Attributes()

	properties[index.FieldText] = chunk.Content
	properties[index.FieldChunkID] = chunk.ID
	properties[index.FieldDocumentID] = chunk.DocumentID
	properties[index.FieldDocURL] = chunk.DocURL

	if chunk.PageNumber != nil {
		properties[index.FieldPageNumber] = *chunk.PageNumber
	}

	return properties
}

func convertObject(o map[string]any) index.Chunk {
	var id string
	var score float32

	if additional, ok := o["_additional"].(map[string]any); ok {
		id = index.String(additional["id"])

		if distance, ok := additional["distance"].(float64); ok {
			score = float32(1 - distance)
		}
	}

	if val := index.String(o[index.FieldChunkID]); val != "" {
		id = val
	}

	return index.Chunk{
		ID:         id,
		DocumentID: index.String(o[index.FieldDocumentID]),

		Content: index.String(o[index.FieldText]),

		DocURL:     index.String(o[index.FieldDocURL]),
		PageNumber: index.PageNumber(o[index.FieldPageNumber]),

		Score:    score,
		Metadata: index.ExtraMetadata(o, "_additional"),
	}
}

func batchError(results []models.ObjectsGetResponse) error {
	var errs []error

	for _, r := range results {
		if r.Result == nil || r.Result.Errors == nil {
			continue
		}

		for _, e := range r.Result.Errors.Error {
			if e == nil {
				continue
			}

			errs = append(errs, errors.New(r.ID.String()+": "+e.Message))
		}
	}

	return errors.Join(errs...)
}

func graphqlErrors(errs []*models.GraphQLError) []string {
	var messages []string

	for _, e := range errs {
		if e != nil {
			messages = append(messages, e.Message)
		}
	}

	return messages
}

// convertError maps undecodable responses to a schema mismatch and
// everything else to an unavailable backend.
func convertError(op string, err error) error {
	var clientErr *fault.WeaviateClientError

	if errors.As(err, &clientErr) && clientErr.DerivedFromError != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		if errors.As(clientErr.DerivedFromError, &syntaxErr) || errors.As(clientErr.DerivedFromError, &typeErr) {
			return index.Mismatch("weaviate: %s: %v", op, err)
		}
	}

	return index.Unavailable("weaviate: "+op, err)
}

func className(name string) string {
	runes := []rune(strings.TrimSpace(name))

	if len(runes) == 0 {
		return ""
	}

	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

func validClass(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII {
			continue
		}

		if i > 0 && unicode.IsDigit(r) && r < unicode.MaxASCII {
			continue
		}

		return false
	}

	return unicode.IsUpper(rune(name[0]))
}
