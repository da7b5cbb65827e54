package index

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration      = errors.New("invalid configuration")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrSchemaMismatch     = errors.New("unexpected response schema")
	ErrRerank             = errors.New("rerank failed")
	ErrInvalidChunk       = errors.New("invalid chunk")
)

// Unavailable marks err as a failure to reach or use the backend.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrSchemaMismatch) {
		return err
	}

	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

func Mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}
