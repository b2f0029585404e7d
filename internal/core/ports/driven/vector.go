package driven

import (
	"context"

	"github.com/docq-labs/docq/internal/core/domain"
)

// VectorIndex stores (vector, chunk) tuples and serves cosine
// similarity search over them. It is the only shared mutable resource
// in the pipeline and the exclusive owner of persisted chunks.
//
// The first successful upsert establishes the index's dimensionality
// for its lifetime; entries with a different dimensionality are
// rejected with *domain.DimensionMismatchError, never coerced.
type VectorIndex interface {
	// Upsert inserts entries and returns the number inserted.
	// Existing entries with the same chunk ID are overwritten.
	Upsert(ctx context.Context, entries []domain.IndexEntry) (int, error)

	// Search returns up to topK entries by descending cosine
	// similarity to the query vector. Ties break by insertion order,
	// earlier-inserted first. Entries scoring below minScore are
	// excluded even if fewer than topK remain; callers must handle an
	// empty result. Searching an empty index returns an empty result,
	// not an error.
	Search(ctx context.Context, query []float32, topK int, minScore float64) ([]domain.QueryResult, error)

	// Delete removes all entries belonging to a document.
	Delete(ctx context.Context, documentID string) error

	// Replace atomically swaps a document's entries: concurrent
	// searches observe either the old set or the new set, never a
	// partial mix.
	Replace(ctx context.Context, documentID string, entries []domain.IndexEntry) (int, error)

	// Stats reports corpus totals.
	Stats(ctx context.Context) (IndexStats, error)

	// Dimensions returns the established dimensionality, or 0 if no
	// entry has been upserted yet.
	Dimensions() int

	// Close releases resources. Persistent indexes flush to disk.
	Close() error
}

// IndexStats summarises index contents.
type IndexStats struct {
	// Documents is the number of distinct document IDs.
	Documents int

	// Chunks is the total number of stored entries.
	Chunks int

	// Dimensions is the established dimensionality (0 when empty).
	Dimensions int
}
