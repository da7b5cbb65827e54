package index

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

const (
	FieldID         = "id"
	FieldChunkID    = "chunk_id"
	FieldDocumentID = "document_id"
	FieldContent    = "content"
	FieldText       = "text"
	FieldDocURL     = "doc_url"
	FieldSource     = "source"
	FieldPageNumber = "page_number"
)

var reserved = map[string]bool{
	FieldID:         true,
	FieldChunkID:    true,
	FieldDocumentID: true,
	FieldContent:    true,
	FieldText:       true,
	FieldDocURL:     true,
	FieldPageNumber: true,
}

func IsReserved(key string) bool {
	return reserved[key]
}

// Attributes returns the chunk metadata without reserved keys.
func (c Chunk) Attributes() map[string]any {
	result := make(map[string]any, len(c.Metadata))

	for k, v := range c.Metadata {
		if IsReserved(k) {
			continue
		}

		result[k] = v
	}

	return result
}

// ExtraMetadata copies a native record, dropping the reserved fields and the
// given backend specific keys.
func ExtraMetadata(record map[string]any, skip ...string) map[string]any {
	result := maps.Clone(record)

	if result == nil {
		return map[string]any{}
	}

	maps.DeleteFunc(result, func(k string, v any) bool {
		return IsReserved(k)
	})

	for _, k := range skip {
		delete(result, k)
	}

	return result
}

func String(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// PageNumber normalizes the different native page number shapes (numbers,
// numeric strings, absent values) into a nullable int.
func PageNumber(val any) *int {
	var n int

	switch v := val.(type) {
	case nil:
		return nil

	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float32:
		n = int(math.Round(float64(v)))
	case float64:
		n = int(math.Round(v))

	case string:
		s := strings.TrimSpace(v)

		if s == "" || strings.EqualFold(s, "none") {
			return nil
		}

		i, err := strconv.Atoi(s)

		if err != nil {
			f, err := strconv.ParseFloat(s, 64)

			if err != nil {
				return nil
			}

			i = int(math.Round(f))
		}

		n = i

	default:
		return nil
	}

	return &n
}
