package driving

import (
	"context"

	"github.com/docq-labs/docq/internal/core/domain"
)

// Retriever orchestrates document ingestion and query-time lookup.
type Retriever interface {
	// Ingest runs extraction, chunking, embedding and indexing for a
	// single uploaded document. Chunk-level embedding failures are
	// reported in the result, not as an error; the rest of the
	// document is still indexed.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*IngestResult, error)

	// Retrieve embeds the question and returns the topK most similar
	// chunks, descending by score.
	Retrieve(ctx context.Context, question string, topK int) ([]domain.QueryResult, error)

	// Remove deletes all index entries for a document.
	Remove(ctx context.Context, documentID string) error
}

// IngestResult reports the outcome of one document's ingestion.
type IngestResult struct {
	// DocumentID is the stable ID assigned to the document.
	DocumentID string

	// SourceName is the uploaded filename.
	SourceName string

	// ChunksIndexed is the number of chunks committed to the index.
	ChunksIndexed int

	// Errors lists chunks that failed embedding after retries and
	// were excluded from the index.
	Errors []error
}
