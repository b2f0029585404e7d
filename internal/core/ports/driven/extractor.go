package driven

import (
	"context"

	"github.com/docq-labs/docq/internal/core/domain"
)

// Extractor converts uploaded bytes into normalised UTF-8 text.
// Each extractor handles specific MIME types (e.g., PDF, DOCX).
// Extraction is a pure transform: page and paragraph boundaries are
// preserved as whitespace and no partial success is returned silently.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract transforms a raw document into a document with its
	// full text content. Failures are reported as
	// *domain.ExtractionError so the caller can skip the document
	// without aborting the rest of a batch.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ExtractorRegistry selects an extractor for a raw document.
type ExtractorRegistry interface {
	// ExtractorFor returns the extractor registered for the MIME
	// type, or domain.ErrUnsupportedType.
	ExtractorFor(mimeType string) (Extractor, error)

	// SupportedMIMETypes returns all registered MIME types.
	SupportedMIMETypes() []string
}
