package api

import (
	"context"

	"github.com/adrianliechti/vectorgate/pkg/index"
	"github.com/adrianliechti/vectorgate/pkg/provider"

	"github.com/google/uuid"
)

// resolve opens the target index. The returned release func must be called
// once the request is done with the provider.
func (h *Handler) resolve(ctx context.Context, t Target) (index.Provider, provider.Encoder, func(), error) {
	name := t.IndexName
	encoderID := t.Encoder

	var creds index.Credentials

	if t.Preset != "" {
		presetName, presetEncoder, presetCreds, err := h.Preset(t.Preset)

		if err != nil {
			return nil, nil, nil, err
		}

		name = presetName
		creds = presetCreds

		if encoderID == "" {
			encoderID = presetEncoder
		}
	} else {
		kind, err := index.ParseKind(t.Backend.Kind)

		if err != nil {
			return nil, nil, nil, err
		}

		creds = index.Credentials{
			Kind:   kind,
			Config: t.Backend.Config,
		}
	}

	encoder, err := h.Encoder(encoderID)

	if err != nil {
		return nil, nil, nil, err
	}

	p, release, err := h.Index(ctx, name, creds, encoderID)

	if err != nil {
		return nil, nil, nil, err
	}

	return p, encoder, release, nil
}

// toChunk assigns a random id to chunks sent without one, so they never
// collapse onto a single record.
func toChunk(c Chunk) index.Chunk {
	id := c.ID

	if id == "" {
		id = uuid.NewString()
	}

	return index.Chunk{
		ID:         id,
		DocumentID: c.DocumentID,

		Content: c.Content,

		DocURL:     c.DocURL,
		PageNumber: c.PageNumber,

		Embedding: c.Embedding,
		Metadata:  c.Metadata,
	}
}

func fromChunk(c index.Chunk) Chunk {
	return Chunk{
		ID:         c.ID,
		DocumentID: c.DocumentID,

		Content: c.Content,

		DocURL:     c.DocURL,
		PageNumber: c.PageNumber,

		Score:    c.Score,
		Metadata: c.Metadata,
	}
}
