package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
)

// fakeExtractor claims a fixed MIME type set.
type fakeExtractor struct {
	mimeTypes []string
}

func (f *fakeExtractor) SupportedMIMETypes() []string {
	return f.mimeTypes
}

func (f *fakeExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	return &domain.Document{SourceName: raw.SourceName}, nil
}

var _ driven.Extractor = (*fakeExtractor)(nil)

func TestNewRegistry_RejectsDuplicateMIMEType(t *testing.T) {
	_, err := NewRegistry(
		&fakeExtractor{mimeTypes: []string{domain.MIMETypeText}},
		&fakeExtractor{mimeTypes: []string{domain.MIMETypeText}},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractorFor_ReturnsRegisteredExtractor(t *testing.T) {
	want := &fakeExtractor{mimeTypes: []string{domain.MIMETypePDF}}
	r, err := NewRegistry(want)
	require.NoError(t, err)

	got, err := r.ExtractorFor(domain.MIMETypePDF)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestExtractorFor_UnknownMIMEType(t *testing.T) {
	r, err := NewRegistry(&fakeExtractor{mimeTypes: []string{domain.MIMETypeText}})
	require.NoError(t, err)

	_, err = r.ExtractorFor("application/x-unknown")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSupportedMIMETypes_Sorted(t *testing.T) {
	r, err := NewRegistry(
		&fakeExtractor{mimeTypes: []string{domain.MIMETypeText}},
		&fakeExtractor{mimeTypes: []string{domain.MIMETypePDF, domain.MIMETypeDOCX}},
	)
	require.NoError(t, err)

	types := r.SupportedMIMETypes()

	assert.Len(t, types, 3)
	assert.IsIncreasing(t, types)
}

func TestDocumentIDFor_StableAcrossCalls(t *testing.T) {
	first := DocumentIDFor("prospectus.pdf")
	second := DocumentIDFor("prospectus.pdf")

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDocumentIDFor_DistinctPerSource(t *testing.T) {
	assert.NotEqual(t, DocumentIDFor("a.pdf"), DocumentIDFor("b.pdf"))
}
