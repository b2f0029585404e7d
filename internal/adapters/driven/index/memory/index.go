// Package memory provides an in-memory vector index using brute-force
// cosine similarity. It backs tests and ephemeral corpora; persistent
// corpora use the sqlite index.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// storedEntry keeps an entry with its precomputed vector norm.
type storedEntry struct {
	entry domain.IndexEntry
	norm  float64
}

// Index is an in-memory implementation of driven.VectorIndex.
// Entries keep insertion order so equal-score search ties resolve
// deterministically, earlier-inserted first.
type Index struct {
	mu      sync.RWMutex
	dims    int
	entries []storedEntry
	byChunk map[string]int
}

// NewIndex creates an empty in-memory index. The dimensionality is
// established by the first successful upsert.
func NewIndex() *Index {
	return &Index{
		byChunk: make(map[string]int),
	}
}

// Upsert inserts entries, overwriting any with the same chunk ID.
func (x *Index) Upsert(_ context.Context, entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.upsertLocked(entries)
}

// validateLocked checks a batch against the established dimensionality
// without touching state, returning the dimensionality the batch
// establishes or confirms.
func (x *Index) validateLocked(entries []domain.IndexEntry) (int, error) {
	dims := x.dims
	for i := range entries {
		got := len(entries[i].Vector)
		if got == 0 {
			return 0, domain.ErrInvalidInput
		}
		if dims == 0 {
			dims = got
			continue
		}
		if got != dims {
			return 0, &domain.DimensionMismatchError{Want: dims, Got: got}
		}
	}
	return dims, nil
}

func (x *Index) upsertLocked(entries []domain.IndexEntry) (int, error) {
	// Validate the whole batch before touching state so a rejected
	// entry never leaves a partial write behind.
	dims, err := x.validateLocked(entries)
	if err != nil {
		return 0, err
	}
	x.dims = dims

	for i := range entries {
		se := storedEntry{
			entry: entries[i],
			norm:  vectorNorm(entries[i].Vector),
		}
		if pos, ok := x.byChunk[entries[i].Chunk.ID]; ok {
			x.entries[pos] = se
			continue
		}
		x.byChunk[entries[i].Chunk.ID] = len(x.entries)
		x.entries = append(x.entries, se)
	}

	return len(entries), nil
}

// Search returns the topK nearest entries by cosine similarity.
func (x *Index) Search(_ context.Context, query []float32, topK int, minScore float64) ([]domain.QueryResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 {
		return []domain.QueryResult{}, nil
	}
	if len(query) != x.dims {
		return nil, &domain.DimensionMismatchError{Want: x.dims, Got: len(query)}
	}
	if topK <= 0 {
		return []domain.QueryResult{}, nil
	}

	queryNorm := vectorNorm(query)

	scored := make([]domain.QueryResult, 0, len(x.entries))
	for i := range x.entries {
		score := cosine(query, queryNorm, x.entries[i].entry.Vector, x.entries[i].norm)
		if score < minScore {
			continue
		}
		scored = append(scored, domain.QueryResult{
			Chunk: x.entries[i].entry.Chunk,
			Score: score,
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Delete removes all entries belonging to a document.
func (x *Index) Delete(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.deleteLocked(documentID)
	return nil
}

func (x *Index) deleteLocked(documentID string) {
	kept := x.entries[:0]
	for i := range x.entries {
		if x.entries[i].entry.Chunk.DocumentID != documentID {
			kept = append(kept, x.entries[i])
		}
	}
	x.entries = kept

	x.byChunk = make(map[string]int, len(x.entries))
	for i := range x.entries {
		x.byChunk[x.entries[i].entry.Chunk.ID] = i
	}
}

// Replace atomically swaps a document's entries under one lock, so
// concurrent searches see the old set or the new set, never a mix.
func (x *Index) Replace(_ context.Context, documentID string, entries []domain.IndexEntry) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	// Reject a bad batch before deleting anything so a failed swap
	// leaves the old entries in place.
	if _, err := x.validateLocked(entries); err != nil {
		return 0, err
	}

	x.deleteLocked(documentID)
	if len(entries) == 0 {
		return 0, nil
	}
	return x.upsertLocked(entries)
}

// Stats reports corpus totals.
func (x *Index) Stats(_ context.Context) (driven.IndexStats, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	docs := make(map[string]struct{})
	for i := range x.entries {
		docs[x.entries[i].entry.Chunk.DocumentID] = struct{}{}
	}

	return driven.IndexStats{
		Documents:  len(docs),
		Chunks:     len(x.entries),
		Dimensions: x.dims,
	}, nil
}

// Dimensions returns the established dimensionality, 0 when unset.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// vectorNorm returns the L2 norm of v.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given precomputed norms.
// Zero-magnitude vectors score 0 rather than dividing by zero.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
