package weaviate_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/index/weaviate"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/stretchr/testify/require"
)

type staticEncoder struct{}

func (staticEncoder) Dimensions() int {
	return 2
}

func (staticEncoder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	return &provider.Embedding{
		Embeddings: [][]float32{{0.25, 0.75}},
	}, nil
}

type fakeWeaviate struct {
	mu sync.Mutex

	exists bool

	created []map[string]any
	batches [][]map[string]any

	graphql  []string
	response any

	deletes []map[string]any
	headers []http.Header
}

func (f *fakeWeaviate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headers = append(f.headers, r.Header.Clone())

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/Documents":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{"class": "Documents"})

	case r.Method == http.MethodPost && r.URL.Path == "/v1/schema":
		var class map[string]any
		json.NewDecoder(r.Body).Decode(&class)

		f.created = append(f.created, class)
		f.exists = true

		json.NewEncoder(w).Encode(class)

	case r.Method == http.MethodPost && r.URL.Path == "/v1/batch/objects":
		var req struct {
			Objects []map[string]any `json:"objects"`
		}

		json.NewDecoder(r.Body).Decode(&req)

		f.batches = append(f.batches, req.Objects)

		var results []map[string]any

		for _, o := range req.Objects {
			results = append(results, map[string]any{"id": o["id"], "result": map[string]any{}})
		}

		json.NewEncoder(w).Encode(results)

	case r.Method == http.MethodPost && r.URL.Path == "/v1/graphql":
		var req struct {
			Query string `json:"query"`
		}

		json.NewDecoder(r.Body).Decode(&req)

		f.graphql = append(f.graphql, req.Query)

		switch resp := f.response.(type) {
		case string:
			w.Write([]byte(resp))
		default:
			json.NewEncoder(w).Encode(resp)
		}

	case r.Method == http.MethodDelete && r.URL.Path == "/v1/batch/objects":
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)

		f.deletes = append(f.deletes, req)

		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{"matches": 7, "successful": 7, "failed": 0},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeWeaviate, options ...weaviate.Option) *weaviate.Client {
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	options = append([]weaviate.Option{
		weaviate.WithClient(server.Client()),
		weaviate.WithEmbedder(staticEncoder{}),
		weaviate.WithDimensions(2),
	}, options...)

	c, err := weaviate.New(context.Background(), server.URL, "documents", options...)
	require.NoError(t, err)

	return c
}

func TestNewCreatesClass(t *testing.T) {
	f := &fakeWeaviate{}

	newTestClient(t, f)

	require.Len(t, f.created, 1)
	require.Equal(t, "Documents", f.created[0]["class"])
	require.Equal(t, "none", f.created[0]["vectorizer"])
	require.Len(t, f.created[0]["properties"], 5)
}

func TestNewExistingClass(t *testing.T) {
	f := &fakeWeaviate{exists: true}

	newTestClient(t, f)

	require.Empty(t, f.created)
}

func TestNewToken(t *testing.T) {
	f := &fakeWeaviate{exists: true}

	newTestClient(t, f, weaviate.WithToken("secret"))

	require.NotEmpty(t, f.headers)
	require.Equal(t, "Bearer secret", f.headers[0].Get("Authorization"))
}

func TestNewInvalidClass(t *testing.T) {
	_, err := weaviate.New(context.Background(), "http://localhost:8080", "my-docs", weaviate.WithEmbedder(staticEncoder{}))
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := weaviate.New(context.Background(), "localhost:8080", "docs", weaviate.WithEmbedder(staticEncoder{}))
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestUpsertBatches(t *testing.T) {
	f := &fakeWeaviate{exists: true}

	c := newTestClient(t, f, weaviate.WithBatchSize(5))

	var chunks []index.Chunk

	for i := range 12 {
		chunks = append(chunks, index.Chunk{
			ID:        fmt.Sprintf("c%d", i),
			Content:   "text",
			DocURL:    "a.pdf",
			Embedding: []float32{1, 0},
		})
	}

	require.NoError(t, c.Upsert(context.Background(), chunks))

	require.Len(t, f.batches, 3)
	require.Len(t, f.batches[0], 5)
	require.Len(t, f.batches[1], 5)
	require.Len(t, f.batches[2], 2)

	o := f.batches[0][0]

	require.Equal(t, "Documents", o["class"])
	require.Equal(t, index.UUID("c0"), o["id"])
	require.Equal(t, []any{1.0, 0.0}, o["vector"])

	properties := o["properties"].(map[string]any)

	require.Equal(t, "c0", properties["chunk_id"])
	require.Equal(t, "text", properties["text"])
	require.Equal(t, "a.pdf", properties["doc_url"])
}

func TestUpsertRejectsEmptyID(t *testing.T) {
	f := &fakeWeaviate{exists: true}

	c := newTestClient(t, f)

	err := c.Upsert(context.Background(), []index.Chunk{
		{Content: "a", Embedding: []float32{1, 0}},
		{Content: "b", Embedding: []float32{0, 1}},
	})

	require.ErrorIs(t, err, index.ErrInvalidChunk)
	require.Empty(t, f.batches)
}

func TestQuery(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: map[string]any{
			"data": map[string]any{
				"Get": map[string]any{
					"Documents": []map[string]any{
						{
							"chunk_id":    "c1",
							"document_id": "d1",
							"text":        "hello",
							"doc_url":     "a.pdf",
							"page_number": 4,
							"_additional": map[string]any{"id": "uuid-1", "distance": 0.25},
						},
					},
				},
			},
		},
	}

	c := newTestClient(t, f)

	limit := 3

	results, err := c.Query(context.Background(), "hi", &index.QueryOptions{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.Contains(t, f.graphql[0], "Documents")
	require.Contains(t, f.graphql[0], "nearVector:{vector: [0.25,0.75]}")
	require.Contains(t, f.graphql[0], "limit: 3")

	r := results[0]

	require.Equal(t, "c1", r.ID)
	require.Equal(t, "d1", r.DocumentID)
	require.Equal(t, "hello", r.Content)
	require.Equal(t, "a.pdf", r.DocURL)
	require.Equal(t, 4, *r.PageNumber)
	require.InDelta(t, 0.75, r.Score, 1e-6)
	require.Empty(t, r.Metadata)
}

func TestQueryMissingData(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: map[string]any{
			"errors": []map[string]any{{"message": "class not found"}},
		},
	}

	c := newTestClient(t, f)

	results, err := c.Query(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestQueryErrorsWithData(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: `{"data":{"Get":{"Documents":null}},"errors":[{"message":"vector lengths don't match: 2 vs 1536"}]}`,
	}

	c := newTestClient(t, f)

	results, err := c.Query(context.Background(), "hi", nil)

	require.ErrorIs(t, err, index.ErrSchemaMismatch)
	require.ErrorContains(t, err, "vector lengths don't match: 2 vs 1536")
	require.Nil(t, results)
}

func TestQueryMissingClass(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: map[string]any{
			"data": map[string]any{"Get": map[string]any{}},
		},
	}

	c := newTestClient(t, f)

	results, err := c.Query(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestQueryNullClass(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: `{"data":{"Get":{"Documents":null}}}`,
	}

	c := newTestClient(t, f)

	results, err := c.Query(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestQueryMalformed(t *testing.T) {
	f := &fakeWeaviate{
		exists: true,

		response: `{"data":`,
	}

	c := newTestClient(t, f)

	_, err := c.Query(context.Background(), "hi", nil)
	require.ErrorIs(t, err, index.ErrSchemaMismatch)
}

func TestDelete(t *testing.T) {
	f := &fakeWeaviate{exists: true}

	c := newTestClient(t, f)

	result, err := c.Delete(context.Background(), "a.pdf")
	require.NoError(t, err)
	require.Equal(t, 7, result.Count)

	require.Len(t, f.deletes, 1)

	match := f.deletes[0]["match"].(map[string]any)
	where := match["where"].(map[string]any)

	require.Equal(t, "Documents", match["class"])
	require.Equal(t, []any{"doc_url"}, where["path"])
	require.Equal(t, "Equal", where["operator"])
	require.Equal(t, "a.pdf", where["valueText"])
	require.Equal(t, "minimal", f.deletes[0]["output"])
}

func TestUpsertObjectErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"class":"Documents"}`))
			return
		}

		w.Write([]byte(fmt.Sprintf(`[{"id":%q,"result":{"errors":{"error":[{"message":"vector lengths don't match"}]}}}]`, index.UUID("x"))))
	}))

	defer server.Close()

	c, err := weaviate.New(context.Background(), server.URL, "documents", weaviate.WithEmbedder(staticEncoder{}))
	require.NoError(t, err)

	err = c.Upsert(context.Background(), []index.Chunk{{ID: "x", Content: "text", Embedding: []float32{1}}})

	require.ErrorIs(t, err, index.ErrBackendUnavailable)
	require.ErrorContains(t, err, "vector lengths")
}

func TestUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	defer server.Close()

	_, err := weaviate.New(context.Background(), server.URL, "documents", weaviate.WithEmbedder(staticEncoder{}))
	require.ErrorIs(t, err, index.ErrBackendUnavailable)
}
