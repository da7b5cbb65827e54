package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrianliechti/vectorgate/config"
	"github.com/adrianliechti/vectorgate/server/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// newEmbeddingServer fakes the OpenAI embeddings endpoint. Each text maps to
// the vector [len(text), 1].
func newEmbeddingServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var data []map[string]any

		for i, text := range req.Input {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(text)), 1},
			})
		}

		w.Header().Set("Content-Type", "application/json")

		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test",
			"data":   data,

			"usage": map[string]any{
				"prompt_tokens": len(req.Input),
				"total_tokens":  len(req.Input),
			},
		})
	}))

	t.Cleanup(server.Close)

	return server
}

func newTestServer(t *testing.T) *httptest.Server {
	embeddings := newEmbeddingServer(t)

	path := filepath.Join(t.TempDir(), "config.yaml")

	data := fmt.Sprintf(`
encoders:
  default:
    type: openai
    url: %s
    model: test
    dimensions: 2

indexes:
  docs:
    kind: memory
    name: docs
`, embeddings.URL)

	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := config.Parse(path)
	require.NoError(t, err)

	h, err := api.New(cfg)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Attach(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server
}

func post(t *testing.T, server *httptest.Server, path string, body any, out any) int {
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))

	return resp.StatusCode
}

func TestUpsertQueryDelete(t *testing.T) {
	server := newTestServer(t)

	page := 2

	var upserted api.UpsertResponse

	status := post(t, server, "/upsert", api.UpsertRequest{
		Target: api.Target{Preset: "docs"},

		Chunks: []api.Chunk{
			{ID: "1", Content: "a", DocURL: "one.pdf", PageNumber: &page, Metadata: map[string]any{"lang": "en"}},
			{ID: "2", Content: "bbbb", DocURL: "one.pdf"},
			{ID: "3", Content: "cc", DocURL: "two.pdf", Embedding: []float32{1, 1}},
		},
	}, &upserted)

	require.Equal(t, http.StatusOK, status)
	require.True(t, upserted.Success)
	require.Equal(t, 3, upserted.Count)

	var queried api.QueryResponse

	status = post(t, server, "/query", api.QueryRequest{
		Target: api.Target{Preset: "docs"},

		Input: "x",
		TopK:  2,
	}, &queried)

	require.Equal(t, http.StatusOK, status)
	require.True(t, queried.Success)
	require.Len(t, queried.Results, 2)

	// "a" and the explicit [1, 1] embedding both match the query exactly
	ids := []string{queried.Results[0].ID, queried.Results[1].ID}
	require.ElementsMatch(t, []string{"1", "3"}, ids)

	for _, r := range queried.Results {
		require.InDelta(t, 1.0, r.Score, 1e-5)

		if r.ID == "1" {
			require.Equal(t, "one.pdf", r.DocURL)
			require.Equal(t, 2, *r.PageNumber)
			require.Equal(t, map[string]any{"lang": "en"}, r.Metadata)
		}
	}

	var deleted api.DeleteResponse

	status = post(t, server, "/delete", api.DeleteRequest{
		Target: api.Target{Preset: "docs"},

		DocURL: "one.pdf",
	}, &deleted)

	require.Equal(t, http.StatusOK, status)
	require.True(t, deleted.Success)
	require.Equal(t, 2, deleted.DeletedCount)

	status = post(t, server, "/query", api.QueryRequest{
		Target: api.Target{Preset: "docs"},

		Input: "x",
	}, &queried)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, queried.Results, 1)
	require.Equal(t, "3", queried.Results[0].ID)
}

func TestUpsertWithoutIDs(t *testing.T) {
	server := newTestServer(t)

	var upserted api.UpsertResponse

	status := post(t, server, "/upsert", api.UpsertRequest{
		Target: api.Target{Preset: "docs"},

		Chunks: []api.Chunk{
			{Content: "a", DocURL: "one.pdf"},
			{Content: "b", DocURL: "one.pdf"},
		},
	}, &upserted)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, upserted.Count)

	var queried api.QueryResponse

	status = post(t, server, "/query", api.QueryRequest{
		Target: api.Target{Preset: "docs"},

		Input: "x",
	}, &queried)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, queried.Results, 2)

	require.NotEmpty(t, queried.Results[0].ID)
	require.NotEmpty(t, queried.Results[1].ID)
	require.NotEqual(t, queried.Results[0].ID, queried.Results[1].ID)
}

func TestExplicitBackend(t *testing.T) {
	server := newTestServer(t)

	var upserted api.UpsertResponse

	status := post(t, server, "/upsert", map[string]any{
		"backend": map[string]any{
			"kind": "memory",
		},

		"index_name": "scratch",

		"chunks": []map[string]any{
			{"id": "1", "content": "hello", "doc_url": "a.pdf"},
		},
	}, &upserted)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, upserted.Count)

	var queried api.QueryResponse

	status = post(t, server, "/query", api.QueryRequest{
		Target: api.Target{Preset: "docs"},

		Input: "hello",
	}, &queried)

	require.Equal(t, http.StatusOK, status)
	require.Empty(t, queried.Results)
}

func TestErrors(t *testing.T) {
	server := newTestServer(t)

	for _, tc := range []struct {
		name string
		path string
		body any

		status int
	}{
		{
			name:   "unknown field",
			path:   "/query",
			body:   map[string]any{"preset": "docs", "input": "x", "limit": 3},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing target",
			path:   "/query",
			body:   map[string]any{"input": "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown preset",
			path:   "/query",
			body:   map[string]any{"preset": "missing", "input": "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unsupported kind",
			path:   "/delete",
			body:   map[string]any{"backend": map[string]any{"kind": "milvus"}, "index_name": "docs", "doc_url": "a.pdf"},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing credentials",
			path:   "/delete",
			body:   map[string]any{"backend": map[string]any{"kind": "pinecone"}, "index_name": "docs", "doc_url": "a.pdf"},
			status: http.StatusBadRequest,
		},
		{
			name:   "empty chunks",
			path:   "/upsert",
			body:   map[string]any{"preset": "docs", "chunks": []any{}},
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong dimensions",
			path:   "/upsert",
			body:   map[string]any{"preset": "docs", "chunks": []any{map[string]any{"content": "x", "embedding": []float32{1, 2, 3}}}},
			status: http.StatusBadRequest,
		},
		{
			name:   "rerank without reranker",
			path:   "/query",
			body:   map[string]any{"preset": "docs", "input": "x", "rerank": true},
			status: http.StatusBadRequest,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var resp api.ErrorResponse

			status := post(t, server, tc.path, tc.body, &resp)

			require.Equal(t, tc.status, status)
			require.False(t, resp.Success)
			require.NotEmpty(t, resp.Error)
		})
	}
}
