package qdrant_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/index/qdrant"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type staticEncoder struct{}

func (staticEncoder) Dimensions() int {
	return 3
}

func (staticEncoder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	return &provider.Embedding{
		Embeddings: [][]float32{{1, 0, 0}},
	}, nil
}

func TestClient(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,

		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "qdrant/qdrant:v1.16.2",
			ExposedPorts: []string{"6334/tcp"},
			WaitingFor:   wait.ForListeningPort("6334/tcp"),
		},
	})

	require.NoError(t, err)
	testcontainers.CleanupContainer(t, server)

	url, err := server.PortEndpoint(ctx, "6334/tcp", "")
	require.NoError(t, err)

	c, err := qdrant.New(ctx, url, "docs",
		qdrant.WithTLS(false),
		qdrant.WithEmbedder(staticEncoder{}),
		qdrant.WithDimensions(3),
		qdrant.WithBatchSize(5),
	)

	require.NoError(t, err)
	defer c.Close()

	page := 1

	var chunks []index.Chunk

	for i := range 12 {
		docURL := "a.pdf"

		if i%3 == 0 {
			docURL = "b.pdf"
		}

		chunks = append(chunks, index.Chunk{
			ID:         fmt.Sprintf("chunk-%d", i),
			DocumentID: "doc",
			Content:    fmt.Sprintf("text %d", i),
			DocURL:     docURL,
			PageNumber: &page,
			Embedding:  []float32{1, float32(i) / 12, 0},
		})
	}

	require.NoError(t, c.Upsert(ctx, chunks))

	// same ids again must not create duplicates
	require.NoError(t, c.Upsert(ctx, chunks))

	limit := 20

	results, err := c.Query(ctx, "anything", &index.QueryOptions{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, results, 12)

	require.Equal(t, "chunk-0", results[0].ID)
	require.Equal(t, 1, *results[0].PageNumber)

	deleted, err := c.Delete(ctx, "b.pdf")
	require.NoError(t, err)
	require.Equal(t, 4, deleted.Count)

	deleted, err = c.Delete(ctx, "b.pdf")
	require.NoError(t, err)
	require.Equal(t, 0, deleted.Count)

	results, err = c.Query(ctx, "anything", &index.QueryOptions{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, results, 8)
}
