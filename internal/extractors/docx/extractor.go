// Package docx extracts text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents. It also claims the legacy
// application/msword MIME type: some ".doc" uploads are really DOCX
// archives, and genuine legacy binaries are rejected as an
// unsupported sub-format rather than silently mangled.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		domain.MIMETypeDOCX,
		domain.MIMETypeDOC,
	}
}

// Extract converts a DOCX document to a normalised document.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// Open as ZIP archive
	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		reason := "corrupt file"
		if raw.MIMEType == domain.MIMETypeDOC {
			reason = "unsupported sub-format: legacy binary .doc"
		}
		return nil, &domain.ExtractionError{
			SourceName: raw.SourceName,
			Reason:     reason,
			Err:        err,
		}
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, &domain.ExtractionError{
			SourceName: raw.SourceName,
			Reason:     "corrupt file",
			Err:        err,
		}
	}

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
		Metadata:   map[string]any{"mime_type": raw.MIMEType, "format": "docx"},
		CreatedAt:  time.Now(),
	}

	return &doc, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		return parseDocumentXML(content), nil
	}
	return "", domain.ErrEmptyContent
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
// Paragraph boundaries become newlines.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return result.String()
}
