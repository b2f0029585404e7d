// Package pdf extracts text from PDF documents.
//
// Extraction shells out to pdftotext (poppler), which produces far
// cleaner text than decoding content streams in-process. The file is
// first opened with pdfcpu to reject corrupt or encrypted PDFs with a
// precise error before the external tool runs.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can substitute the pdftotext invocation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents.
type Extractor struct {
	runner CommandRunner
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner substitutes the command runner. Used in tests.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// New creates a new PDF extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// InstallInstructions explains how to install the pdftotext dependency.
func InstallInstructions() string {
	return strings.Join([]string{
		"PDF extraction requires pdftotext (poppler):",
		"  macOS:         brew install poppler",
		"  Debian/Ubuntu: apt install poppler-utils",
		"  Fedora:        dnf install poppler-utils",
	}, "\n")
}

// Extract converts a PDF document to a normalised document.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("%w\n%s", ErrPDFToolNotFound, InstallInstructions())
	}

	tempFile, cleanup, err := writeTempPDF(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	defer cleanup()

	pageCount, err := validatePDF(tempFile, raw.SourceName)
	if err != nil {
		return nil, err
	}

	// "-" sends the text to stdout; page breaks arrive as form feeds.
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tempFile, "-")
	if err != nil {
		return nil, &domain.ExtractionError{
			SourceName: raw.SourceName,
			Reason:     "pdftotext failed",
			Err:        err,
		}
	}

	content := strings.ReplaceAll(string(out), "\f", "\n\n")
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
		Metadata: map[string]any{
			"mime_type":  raw.MIMEType,
			"format":     "pdf",
			"page_count": pageCount,
		},
		CreatedAt: time.Now(),
	}

	return &doc, nil
}

// validatePDF opens the file with pdfcpu and rejects anything
// pdftotext would choke on or leak garbage from.
func validatePDF(path, sourceName string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, &domain.ExtractionError{
			SourceName: sourceName,
			Reason:     "corrupt file",
			Err:        err,
		}
	}
	if pdfCtx.Encrypt != nil {
		return 0, &domain.ExtractionError{
			SourceName: sourceName,
			Reason:     "unsupported sub-format: encrypted PDF",
		}
	}
	return pdfCtx.PageCount, nil
}

// writeTempPDF stores the upload where external tools can read it.
func writeTempPDF(content []byte) (string, func(), error) {
	dir, err := os.MkdirTemp("", "docq-pdf-*")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "upload.pdf")
	if err := os.WriteFile(path, content, 0600); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
