package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adrianliechti/vectorgate/config"
	"github.com/adrianliechti/vectorgate/pkg/index"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	*config.Config

	validate *validator.Validate
}

func New(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		Config: cfg,

		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/query", h.handleQuery)
	r.Post("/upsert", h.handleUpsert)
	r.Post("/delete", h.handleDelete)
}

func (h *Handler) readRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.Join(index.ErrConfiguration, err)
	}

	if err := h.validate.Struct(v); err != nil {
		return errors.Join(index.ErrConfiguration, err)
	}

	return nil
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   text,
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, index.ErrConfiguration), errors.Is(err, index.ErrInvalidChunk):
		return http.StatusBadRequest

	case errors.Is(err, index.ErrBackendUnavailable), errors.Is(err, index.ErrSchemaMismatch), errors.Is(err, index.ErrRerank):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
