package domain

import "time"

// Document represents a normalised document after text extraction.
// Raw upload bytes are discarded once a Document exists; only the
// derived chunks are persisted.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceName is the filename the document was uploaded as.
	SourceName string

	// Content is the full UTF-8 text content after extraction.
	// This is the complete document text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Chunk represents a retrievable unit within a document.
// Documents are split into overlapping chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SourceName is the parent document's filename, carried on the
	// chunk so citations survive without a document store.
	SourceName string

	// Content is the text content of this chunk.
	Content string

	// Ordinal is the position within the document, contiguous from 0.
	// It preserves original-document order for citations.
	Ordinal int

	// Start and End are the rune offsets of Content within the
	// document text.
	Start int
	End   int
}

// IndexEntry is the persisted unit in a vector index: one chunk
// together with its embedding.
type IndexEntry struct {
	// Chunk carries the text and provenance metadata.
	Chunk Chunk

	// Vector is the embedding for the chunk text. Its length must
	// equal the index's established dimensionality.
	Vector []float32
}

// QueryResult is a single similarity-search hit.
type QueryResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query (higher is better).
	Score float64
}
