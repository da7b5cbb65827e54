package index

import (
	"context"
	"errors"
	"log/slog"
)

// Deleter removes every chunk whose doc url matches.
type Deleter interface {
	Delete(ctx context.Context, docURL string) (*DeleteResult, error)
}

// FilterDeleter is used by backends that delete by metadata filter in a
// single native call and report how many records went away.
type FilterDeleter func(ctx context.Context, docURL string) (int, error)

func (d FilterDeleter) Delete(ctx context.Context, docURL string) (*DeleteResult, error) {
	count, err := d(ctx, docURL)

	if err != nil {
		return nil, err
	}

	return &DeleteResult{
		Count: count,
	}, nil
}

const DefaultFetchLimit = 1000

// FetchDeleter is used by backends without delete-by-filter. It fetches one
// id more than Limit to tell a full page from a truncated one, then deletes at
// most Limit ids. Matches beyond Limit are left in the index.
type FetchDeleter struct {
	Limit int

	Fetch  func(ctx context.Context, docURL string, limit int) ([]string, error)
	Remove func(ctx context.Context, ids []string) error
}

func (d *FetchDeleter) Delete(ctx context.Context, docURL string) (*DeleteResult, error) {
	if d.Fetch == nil || d.Remove == nil {
		return nil, errors.New("fetch deleter is not configured")
	}

	limit := d.Limit

	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	ids, err := d.Fetch(ctx, docURL, limit+1)

	if err != nil {
		return nil, err
	}

	if len(ids) > limit {
		slog.Warn("delete exceeded fetch limit, remaining chunks are kept", "doc_url", docURL, "limit", limit)
		ids = ids[:limit]
	}

	if len(ids) == 0 {
		return &DeleteResult{}, nil
	}

	if err := d.Remove(ctx, ids); err != nil {
		return nil, err
	}

	return &DeleteResult{
		Count: len(ids),
	}, nil
}
