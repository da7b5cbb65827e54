package api

import (
	"errors"
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/index"
)

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest

	if err := h.readRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, encoder, release, err := h.resolve(r.Context(), req.Target)

	if err != nil {
		writeError(w, statusCode(err), err)
		return
	}

	defer release()

	chunks := make([]index.Chunk, 0, len(req.Chunks))

	var texts []string
	var positions []int

	for i, c := range req.Chunks {
		chunks = append(chunks, toChunk(c))

		if len(c.Embedding) == 0 {
			texts = append(texts, c.Content)
			positions = append(positions, i)
		}
	}

	if len(texts) > 0 {
		embedding, err := encoder.Embed(r.Context(), texts)

		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		if embedding == nil || len(embedding.Embeddings) != len(texts) {
			writeError(w, http.StatusBadGateway, errors.New("encoder returned an unexpected number of vectors"))
			return
		}

		for i, pos := range positions {
			chunks[pos].Embedding = embedding.Embeddings[i]
		}
	}

	if err := p.Upsert(r.Context(), chunks); err != nil {
		writeError(w, statusCode(err), err)
		return
	}

	writeJson(w, UpsertResponse{
		Success: true,
		Count:   len(chunks),
	})
}
