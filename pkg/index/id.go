package index

import (
	"github.com/google/uuid"
)

var idNamespace = uuid.MustParse("6f0d3b6c-4f5e-4b8e-9a57-8c3e2f6e1d21")

// UUID returns id unchanged when it already is a UUID, otherwise a stable
// name based UUID. Backends that only accept UUID keys store the caller id
// next to the record under FieldChunkID.
func UUID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}

	return uuid.NewSHA1(idNamespace, []byte(id)).String()
}
