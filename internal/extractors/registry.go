// Package extractors provides MIME-type based selection of document
// extractors and shared helpers for building documents.
package extractors

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors. Registration happens once at
// startup; lookups are read-only afterwards.
type Registry struct {
	byMIME map[string]driven.Extractor
}

// NewRegistry creates a registry over the given extractors. A MIME
// type claimed by two extractors is a programming error.
func NewRegistry(extractors ...driven.Extractor) (*Registry, error) {
	r := &Registry{
		byMIME: make(map[string]driven.Extractor),
	}

	for _, e := range extractors {
		for _, mime := range e.SupportedMIMETypes() {
			if _, exists := r.byMIME[mime]; exists {
				return nil, fmt.Errorf("duplicate extractor for %s: %w", mime, domain.ErrInvalidInput)
			}
			r.byMIME[mime] = e
		}
	}

	return r, nil
}

// ExtractorFor returns the extractor registered for the MIME type.
func (r *Registry) ExtractorFor(mimeType string) (driven.Extractor, error) {
	e, ok := r.byMIME[mimeType]
	if !ok {
		return nil, fmt.Errorf("no extractor for %q: %w", mimeType, domain.ErrUnsupportedType)
	}
	return e, nil
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// DocumentIDFor derives the stable document ID for a source name.
// Re-ingesting the same file replaces its index entries instead of
// accumulating duplicates.
func DocumentIDFor(sourceName string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceName)).String()
}
