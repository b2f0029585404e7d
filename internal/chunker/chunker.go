// Package chunker splits document text into overlapping, size-bounded
// chunks with provenance metadata.
package chunker

import (
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"github.com/docq-labs/docq/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultOverlap = 200

// DefaultBoundaryLookback is how far back from a window end to look
// for a whitespace boundary before falling back to a hard cut.
const DefaultBoundaryLookback = 50

// Chunker splits document content into overlapping chunks. Chunking is
// deterministic: the same text always produces the same boundaries and
// the same chunk IDs, so re-ingesting a document replaces rather than
// duplicates its chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	lookback  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithBoundaryLookback sets the whitespace search window in characters.
func WithBoundaryLookback(lookback int) Option {
	return func(c *Chunker) {
		if lookback >= 0 {
			c.lookback = lookback
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		lookback:  DefaultBoundaryLookback,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	if c.lookback >= c.chunkSize {
		c.lookback = c.chunkSize / 4
	}

	return c
}

// Chunk splits the document content into overlapping chunks with
// contiguous ordinals starting at 0. Text no longer than the chunk
// size yields exactly one chunk; empty content yields none.
//
// Windows are measured in runes so multi-byte text never splits
// mid-encoding, and each window after the first starts overlap
// characters before the end of the previous one. Window ends prefer
// the nearest whitespace within the lookback region; a hard cut is
// the fallback when none exists.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	runes := []rune(doc.Content)
	total := len(runes)

	estimated := total/(c.chunkSize-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	ordinal := 0

	for start < total {
		end := c.windowEnd(runes, start, total)

		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.ID, ordinal),
			DocumentID: doc.ID,
			SourceName: doc.SourceName,
			Content:    string(runes[start:end]),
			Ordinal:    ordinal,
			Start:      start,
			End:        end,
		})
		ordinal++

		if end == total {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Overlap would stall the walk; step past the window.
			next = end
		}
		start = next
	}

	return chunks, nil
}

// windowEnd picks the end of the window starting at start, preferring
// a whitespace boundary within the lookback region.
func (c *Chunker) windowEnd(runes []rune, start, total int) int {
	end := start + c.chunkSize
	if end >= total {
		return total
	}

	low := end - c.lookback
	if low <= start {
		low = start + 1
	}
	for i := end - 1; i >= low; i-- {
		if unicode.IsSpace(runes[i]) {
			// Cut after the whitespace so it stays with the
			// earlier chunk.
			return i + 1
		}
	}

	// No whitespace in the lookback region: hard cut mid-word.
	return end
}

// chunkID derives a stable chunk ID from the document ID and ordinal.
func chunkID(documentID string, ordinal int) string {
	name := documentID + "#" + strconv.Itoa(ordinal)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
