package index

import (
	"iter"
	"slices"
)

// Batch splits items into consecutive slices of at most size elements.
// A size <= 0 yields everything as a single batch.
func Batch[T any](items []T, size int) iter.Seq[[]T] {
	if size <= 0 {
		size = max(len(items), 1)
	}

	return slices.Chunk(items, size)
}
