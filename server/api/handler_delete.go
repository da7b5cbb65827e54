package api

import (
	"net/http"
)

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest

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

	result, err := p.Delete(r.Context(), req.DocURL)

	if err != nil {
		writeError(w, statusCode(err), err)
		return
	}

	writeJson(w, DeleteResponse{
		Success:      true,
		DeletedCount: result.Count,
	})
}
