package qdrant

import (
	"testing"

	"github.com/adrianliechti/vectorgate/pkg/index"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	for _, tc := range []struct {
		input string

		host string
		port int
		tls  bool
	}{
		{"localhost", "localhost", 6334, false},
		{"localhost:7000", "localhost", 7000, false},
		{"http://localhost:6333", "localhost", 6334, false},
		{"https://xyz.cloud.qdrant.io:6333", "xyz.cloud.qdrant.io", 6334, true},
		{"xyz.cloud.qdrant.io", "xyz.cloud.qdrant.io", 6334, true},
		{"10.0.0.5", "10.0.0.5", 6334, false},
		{" grpc://qdrant.internal:6334 ", "qdrant.internal", 6334, true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			e, err := parseEndpoint(tc.input)
			require.NoError(t, err)

			require.Equal(t, tc.host, e.host)
			require.Equal(t, tc.port, e.port)
			require.Equal(t, tc.tls, e.tls)
		})
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "http://", "localhost:abc"} {
		_, err := parseEndpoint(input)
		require.ErrorIs(t, err, index.ErrConfiguration, input)
	}
}

func TestConvertPoint(t *testing.T) {
	page := 3

	payload, err := qdrant.TryValueMap(convertPayload(index.Chunk{
		ID:         "c1",
		DocumentID: "d1",
		Content:    "hello",
		DocURL:     "a.pdf",
		PageNumber: &page,

		Metadata: map[string]any{
			"topic": "rivers",
			"tags":  []any{"a", "b"},
		},
	}))

	require.NoError(t, err)

	chunk := convertPoint(&qdrant.ScoredPoint{
		Id:      qdrant.NewIDUUID(index.UUID("c1")),
		Payload: payload,
		Score:   0.5,
	})

	require.Equal(t, "c1", chunk.ID)
	require.Equal(t, "d1", chunk.DocumentID)
	require.Equal(t, "hello", chunk.Content)
	require.Equal(t, "a.pdf", chunk.DocURL)
	require.Equal(t, 3, *chunk.PageNumber)
	require.Equal(t, float32(0.5), chunk.Score)

	require.Equal(t, map[string]any{
		"topic": "rivers",
		"tags":  []any{"a", "b"},
	}, chunk.Metadata)
}

func TestConvertPointWithoutChunkID(t *testing.T) {
	chunk := convertPoint(&qdrant.ScoredPoint{
		Id: qdrant.NewIDNum(42),
	})

	require.Equal(t, "42", chunk.ID)
	require.Nil(t, chunk.PageNumber)
}
