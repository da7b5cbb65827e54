package astra

type Command map[string]any

type Response struct {
	Status *Status `json:"status,omitempty"`
	Data   *Data   `json:"data,omitempty"`

	Errors []Error `json:"errors,omitempty"`
}

type Status struct {
	Collections []string `json:"collections,omitempty"`
	InsertedIDs []any    `json:"insertedIds,omitempty"`

	DeletedCount int  `json:"deletedCount,omitempty"`
	MoreData     bool `json:"moreData,omitempty"`
}

type Data struct {
	Documents []map[string]any `json:"documents"`

	NextPageState *string `json:"nextPageState,omitempty"`
}

type Error struct {
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message"`
}

func (e Error) Error() string {
	if e.ErrorCode == "" {
		return e.Message
	}

	return e.ErrorCode + ": " + e.Message
}

type CollectionOptions struct {
	Vector VectorOptions `json:"vector"`
}

type VectorOptions struct {
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}
