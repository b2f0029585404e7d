package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/core/ports/driving"
	"github.com/docq-labs/docq/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Chunker splits an extracted document into ordered chunks.
type Chunker interface {
	Chunk(doc *domain.Document) ([]domain.Chunk, error)
}

// Default pipeline settings.
const (
	DefaultTopK        = 5
	DefaultBatchSize   = 16
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultEmbedEvents = 10 // embedding calls per second
)

// Retriever orchestrates ingestion (extract, chunk, embed, index) and
// query-time lookup. It holds no persistent state beyond references to
// the index and the external clients, so one instance serves any
// number of concurrent documents and questions.
type Retriever struct {
	registry driven.ExtractorRegistry
	chunker  Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex

	limiter    *rate.Limiter
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	minScore   float64

	// docLocks serialise ingest/delete for the same document ID.
	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// RetrieverOption configures the retriever.
type RetrieverOption func(*Retriever)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxRetries sets how often a failed embedding batch is retried.
func WithMaxRetries(n int) RetrieverOption {
	return func(r *Retriever) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay for retry backoff.
func WithRetryDelay(d time.Duration) RetrieverOption {
	return func(r *Retriever) {
		if d > 0 {
			r.retryDelay = d
		}
	}
}

// WithEmbedRate caps embedding calls per second.
func WithEmbedRate(perSecond float64) RetrieverOption {
	return func(r *Retriever) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMinScore excludes search results scoring below the threshold.
func WithMinScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// NewRetriever creates a retriever over the given collaborators.
func NewRetriever(
	registry driven.ExtractorRegistry,
	chunker Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...RetrieverOption,
) *Retriever {
	r := &Retriever{
		registry:   registry,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		limiter:    rate.NewLimiter(rate.Limit(DefaultEmbedEvents), 1),
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		docLocks:   make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Ingest runs the full pipeline for one uploaded document. Chunks
// whose embedding still fails after retries are reported in the
// result and excluded; the rest of the document is committed in a
// single atomic replace, so a cancelled ingestion leaves the index
// untouched and a re-ingest never accumulates duplicates.
func (r *Retriever) Ingest(ctx context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Stage("ingest")
	logger.Info("Source: %s (%s, %d bytes)", raw.SourceName, raw.MIMEType, len(raw.Content))

	extractor, err := r.registry.ExtractorFor(raw.MIMEType)
	if err != nil {
		return nil, &domain.ExtractionError{
			SourceName: raw.SourceName,
			Reason:     "unsupported type",
			Err:        err,
		}
	}

	doc, err := extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracted %d characters", len(doc.Content))

	chunks, err := r.chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	entries, embedErrs, err := r.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	result := &driving.IngestResult{
		DocumentID: doc.ID,
		SourceName: doc.SourceName,
		Errors:     embedErrs,
	}

	if len(entries) == 0 {
		// Nothing embeddable; leave any previous version intact.
		logger.Warn("No chunks embedded for %s, index unchanged", doc.SourceName)
		return result, nil
	}

	lock := r.docLock(doc.ID)
	lock.Lock()
	defer lock.Unlock()

	count, err := r.index.Replace(ctx, doc.ID, entries)
	if err != nil {
		return nil, fmt.Errorf("index document %s: %w", doc.SourceName, err)
	}

	result.ChunksIndexed = count
	logger.Info("Indexed %d/%d chunks for %s", count, len(chunks), doc.SourceName)
	return result, nil
}

// embedChunks embeds chunks in batches, preserving ordinal order in
// the returned entries. Batches that fail after retries are reported
// per chunk and skipped.
func (r *Retriever) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexEntry, []error, error) {
	entries := make([]domain.IndexEntry, 0, len(chunks))
	var failures []error

	for start := 0; start < len(chunks); start += r.batchSize {
		end := start + r.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		vectors, err := r.embedBatchWithRetry(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled: abandon the whole document.
				return nil, nil, ctx.Err()
			}
			logger.Warn("Embedding batch failed after retries: %v", err)
			for i := range batch {
				failures = append(failures, fmt.Errorf("embed chunk %d of %s: %w", batch[i].Ordinal, batch[i].SourceName, err))
			}
			continue
		}

		for i := range batch {
			entries = append(entries, domain.IndexEntry{
				Chunk:  batch[i],
				Vector: vectors[i],
			})
		}
	}

	return entries, failures, nil
}

// embedBatchWithRetry calls the embedding service with rate limiting
// and exponential backoff.
func (r *Retriever) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := r.retryDelay

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying embedding batch (attempt %d/%d)", attempt, r.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
			}
			return vectors, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// Retrieve embeds the question and returns the topK nearest chunks,
// descending by score.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.QueryResult, error) {
	logger.Stage("retrieve")

	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("Empty question, returning no results")
		return []domain.QueryResult{}, nil
	}
	if r.embedder == nil {
		return nil, &domain.RetrievalError{Err: domain.ErrEmbeddingUnavailable}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	logger.Debug("Embedding question (%d chars)", len(question))
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	results, err := r.index.Search(ctx, vector, topK, r.minScore)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	logger.Info("Retrieved %d chunks (top-k %d)", len(results), topK)
	for i := range results {
		logger.Debug("  [%d] %s#%d score=%.4f", i+1, results[i].Chunk.SourceName, results[i].Chunk.Ordinal, results[i].Score)
	}

	return results, nil
}

// Remove deletes all index entries for a document.
func (r *Retriever) Remove(ctx context.Context, documentID string) error {
	lock := r.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	return r.index.Delete(ctx, documentID)
}

// docLock returns the mutex serialising writes for a document ID.
func (r *Retriever) docLock(documentID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		r.docLocks[documentID] = lock
	}
	return lock
}
