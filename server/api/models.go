package api

type Backend struct {
	Kind   string            `json:"kind" validate:"required"`
	Config map[string]string `json:"connection_config"`
}

// Target selects the index an operation runs against: either a preset from
// the configuration file or an explicit backend with an index name.
type Target struct {
	Preset string `json:"preset,omitempty" validate:"required_without=Backend"`

	Backend   *Backend `json:"backend,omitempty" validate:"required_without=Preset"`
	IndexName string   `json:"index_name,omitempty" validate:"required_with=Backend"`

	Encoder string `json:"encoder,omitempty"`
}

type Chunk struct {
	ID         string `json:"id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`

	Content string `json:"content" validate:"required"`

	DocURL     string `json:"doc_url"`
	PageNumber *int   `json:"page_number,omitempty"`

	Score     float32   `json:"score,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryRequest struct {
	Target

	Input string `json:"input" validate:"required"`

	TopK int `json:"top_k,omitempty" validate:"gte=0"`

	Rerank bool `json:"rerank,omitempty"`
	TopN   int  `json:"top_n,omitempty" validate:"gte=0"`
}

type QueryResponse struct {
	Success bool    `json:"success"`
	Results []Chunk `json:"results"`
}

type UpsertRequest struct {
	Target

	Chunks []Chunk `json:"chunks" validate:"required,min=1,dive"`
}

type UpsertResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

type DeleteRequest struct {
	Target

	DocURL string `json:"doc_url" validate:"required"`
}

type DeleteResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
