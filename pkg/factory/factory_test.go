package factory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adrianliechti/vectorgate/pkg/factory"
	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/index/astra"
	"github.com/adrianliechti/vectorgate/pkg/index/memory"
	"github.com/adrianliechti/vectorgate/pkg/index/pinecone"
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
		Embeddings: [][]float32{{1, 0}},
	}, nil
}

func TestUnsupportedKind(t *testing.T) {
	_, err := factory.New(context.Background(), "docs", index.Credentials{Kind: "milvus"}, staticEncoder{})
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestMissingEncoder(t *testing.T) {
	_, err := factory.New(context.Background(), "docs", index.Credentials{Kind: index.KindMemory}, nil)
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestMissingName(t *testing.T) {
	_, err := factory.New(context.Background(), "", index.Credentials{Kind: index.KindMemory}, staticEncoder{})
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestMissingCredentials(t *testing.T) {
	for _, tc := range []struct {
		kind    index.Kind
		config  map[string]string
		missing string
	}{
		{index.KindPinecone, nil, factory.KeyAPIKey},
		{index.KindQdrant, map[string]string{factory.KeyAPIKey: "x"}, factory.KeyHost},
		{index.KindWeaviate, map[string]string{}, factory.KeyHost},
		{index.KindAstra, map[string]string{factory.KeyHost: "db.example.com"}, factory.KeyAPIKey},
		{index.KindAstra, map[string]string{factory.KeyHost: "db.example.com", factory.KeyAPIKey: "  "}, factory.KeyAPIKey},
	} {
		t.Run(string(tc.kind), func(t *testing.T) {
			var calls int

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))

			defer server.Close()

			creds := index.Credentials{
				Kind:   tc.kind,
				Config: tc.config,
			}

			_, err := factory.New(context.Background(), "docs", creds, staticEncoder{}, factory.WithClient(server.Client()))

			require.ErrorIs(t, err, index.ErrConfiguration)
			require.ErrorContains(t, err, tc.missing)
			require.Zero(t, calls)
		})
	}
}

func TestInvalidQdrantPort(t *testing.T) {
	creds := index.Credentials{
		Kind: index.KindQdrant,

		Config: map[string]string{
			factory.KeyHost: "localhost",
			factory.KeyPort: "grpc",
		},
	}

	_, err := factory.New(context.Background(), "docs", creds, staticEncoder{})
	require.ErrorIs(t, err, index.ErrConfiguration)
}

func TestMemory(t *testing.T) {
	p, err := factory.New(context.Background(), "docs", index.Credentials{Kind: index.KindMemory}, staticEncoder{})
	require.NoError(t, err)
	require.IsType(t, &memory.Provider{}, p)
}

func TestWeaviate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	defer server.Close()

	creds := index.Credentials{
		Kind: index.KindWeaviate,

		Config: map[string]string{
			factory.KeyHost: server.URL,
		},
	}

	p, err := factory.New(context.Background(), "docs", creds, staticEncoder{}, factory.WithClient(server.Client()))
	require.NoError(t, err)
	require.IsType(t, &weaviate.Client{}, p)
}

func TestPinecone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("Api-Key"))
		require.Equal(t, "/indexes", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"indexes": []map[string]any{
				{
					"name":      "docs",
					"dimension": 2,
					"metric":    "dotproduct",
					"host":      "docs-abc.svc.pinecone.io",
					"spec":      map[string]any{},
					"status":    map[string]any{"ready": true, "state": "Ready"},
				},
			},
		})
	}))

	defer server.Close()

	creds := index.Credentials{
		Kind: index.KindPinecone,

		Config: map[string]string{
			factory.KeyHost:   server.URL,
			factory.KeyAPIKey: "secret",
		},
	}

	p, err := factory.New(context.Background(), "docs", creds, staticEncoder{}, factory.WithClient(server.Client()))
	require.NoError(t, err)
	require.IsType(t, &pinecone.Client{}, p)

	require.NoError(t, p.(*pinecone.Client).Close())
}

func TestAstra(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("Token"))
		require.Equal(t, "/api/json/v1/docs_keyspace", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{
				"collections": []string{"docs"},
			},
		})
	}))

	defer server.Close()

	creds := index.Credentials{
		Kind: index.KindAstra,

		Config: map[string]string{
			factory.KeyHost:     server.URL,
			factory.KeyAPIKey:   "secret",
			factory.KeyKeyspace: "docs_keyspace",
		},
	}

	p, err := factory.New(context.Background(), "docs", creds, staticEncoder{}, factory.WithClient(server.Client()))
	require.NoError(t, err)
	require.IsType(t, &astra.Client{}, p)
}
