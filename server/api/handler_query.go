package api

import (
	"net/http"

	"github.com/adrianliechti/vectorgate/pkg/index"
)

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest

	if err := h.readRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, _, release, err := h.resolve(r.Context(), req.Target)

	if err != nil {
		writeError(w, statusCode(err), err)
		return
	}

	defer release()

	options := &index.QueryOptions{}

	if req.TopK > 0 {
		options.Limit = &req.TopK
	}

	chunks, err := p.Query(r.Context(), req.Input, options)

	if err != nil {
		writeError(w, statusCode(err), err)
		return
	}

	if req.Rerank {
		reranker, err := h.Reranker()

		if err != nil {
			writeError(w, statusCode(err), err)
			return
		}

		chunks, err = reranker.Rerank(r.Context(), req.Input, chunks, req.TopN)

		if err != nil {
			writeError(w, statusCode(err), err)
			return
		}
	}

	results := make([]Chunk, 0, len(chunks))

	for _, c := range chunks {
		results = append(results, fromChunk(c))
	}

	writeJson(w, QueryResponse{
		Success: true,
		Results: results,
	})
}
