// Package plaintext extracts text from plain text uploads.
package plaintext

import (
	"context"
	"strings"
	"time"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{domain.MIMETypeText}
}

// Extract converts raw bytes to a normalised document. Invalid UTF-8
// sequences are replaced rather than failing the whole file; line
// endings are normalised to \n.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.ToValidUTF8(string(raw.Content), "�")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)

	if content == "" {
		return nil, &domain.ExtractionError{
			SourceName: raw.SourceName,
			Reason:     "empty content",
			Err:        domain.ErrEmptyContent,
		}
	}

	doc := domain.Document{
		ID:         extractors.DocumentIDFor(raw.SourceName),
		SourceName: raw.SourceName,
		Content:    content,
		Metadata:   map[string]any{"mime_type": raw.MIMEType, "format": "text"},
		CreatedAt:  time.Now(),
	}

	return &doc, nil
}
