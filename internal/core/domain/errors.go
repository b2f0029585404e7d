package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a MIME type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyContent indicates extraction produced no usable text.
	ErrEmptyContent = errors.New("empty content")

	// ErrFileTooLarge indicates an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrCorruptIndex indicates a persisted index failed to load.
	// This is fatal to startup of that corpus, not per-query.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// ExtractionError reports a document that could not be converted to
// text. The caller skips the document and continues with the rest of
// the batch.
type ExtractionError struct {
	// SourceName is the file that failed.
	SourceName string

	// Reason describes the failure (corrupt file, unsupported
	// sub-format, empty content).
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.SourceName, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.SourceName, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a vector whose dimensionality
// disagrees with the index's established dimensionality. This signals
// embedding-model drift and the write is rejected, never coerced.
type DimensionMismatchError struct {
	// Want is the index's established dimensionality.
	Want int

	// Got is the offending vector's dimensionality.
	Got int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index expects %d, got %d", e.Want, e.Got)
}

// RetrievalError reports a failed query-time lookup, typically an
// embedding service failure. Retryable by the caller with backoff.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// SynthesisError reports a failed answer generation, typically an LLM
// call failure or timeout. Retryable by the caller with backoff.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
