package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/core/ports/driving"
	"github.com/docq-labs/docq/internal/logger"
)

// Ensure Synthesizer implements the interface.
var _ driving.Synthesizer = (*Synthesizer)(nil)

// InsufficientContextAnswer is returned, without calling the language
// model, when retrieval produced nothing to ground an answer in.
const InsufficientContextAnswer = "I don't have enough information from the uploaded documents to answer this question. Please make sure the relevant documents are uploaded."

// DefaultMaxAnswerTokens caps the generated answer length.
const DefaultMaxAnswerTokens = 1024

// Synthesizer assembles a grounded prompt from retrieved passages and
// delegates generation to the language model. Temperature 0 keeps
// answers factual and repeatable.
type Synthesizer struct {
	llm         driven.LLMService
	maxTokens   int
	temperature float64
}

// SynthesizerOption configures the synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithMaxAnswerTokens caps the generated answer length.
func WithMaxAnswerTokens(n int) SynthesizerOption {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature overrides the generation temperature.
func WithTemperature(t float64) SynthesizerOption {
	return func(s *Synthesizer) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// NewSynthesizer creates a synthesizer over the given language model.
func NewSynthesizer(llm driven.LLMService, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		llm:       llm,
		maxTokens: DefaultMaxAnswerTokens,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Answer generates a grounded answer for the question from the
// retrieved chunks. An empty results slice short-circuits to the
// fixed insufficient-context answer with zero model calls.
func (s *Synthesizer) Answer(ctx context.Context, question string, results []domain.QueryResult) (*domain.Answer, error) {
	logger.Stage("synthesize")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidInput
	}

	if len(results) == 0 {
		logger.Info("No retrieved context, returning insufficient-context answer")
		return &domain.Answer{Text: InsufficientContextAnswer}, nil
	}

	if s.llm == nil {
		return nil, &domain.SynthesisError{Err: domain.ErrLLMUnavailable}
	}

	prompt, citations := buildPrompt(question, results)
	logger.Debug("Prompt: %d chars, %d cited chunks", len(prompt), len(citations))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, &domain.SynthesisError{Err: err}
	}

	cited := make([]string, len(citations))
	for i := range citations {
		cited[i] = citations[i].ChunkID
	}

	logger.Info("Answer generated (%d chars)", len(text))
	return &domain.Answer{
		Text:          strings.TrimSpace(text),
		CitedChunkIDs: cited,
	}, nil
}

// buildPrompt renders the question and retrieved passages into a
// single grounded-answer prompt. Each passage is tagged with a
// citation marker referencing its source document and ordinal.
func buildPrompt(question string, results []domain.QueryResult) (string, []domain.Citation) {
	citations := make([]domain.Citation, len(results))

	var b strings.Builder
	b.WriteString("Answer the question using only the context passages below.\n")
	b.WriteString("Cite the passages you use with their [n] markers.\n")
	b.WriteString("If the context does not contain the answer, say so clearly.\n\n")
	b.WriteString("Context:\n")

	for i := range results {
		chunk := results[i].Chunk
		marker := i + 1
		citations[i] = domain.Citation{
			Marker:     marker,
			SourceName: chunk.SourceName,
			Ordinal:    chunk.Ordinal,
			ChunkID:    chunk.ID,
		}
		fmt.Fprintf(&b, "\n[%d] %s#%d\n%s\n", marker, chunk.SourceName, chunk.Ordinal, chunk.Content)
	}

	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)
	return b.String(), citations
}
