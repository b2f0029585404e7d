package driving

import (
	"context"

	"github.com/docq-labs/docq/internal/core/domain"
)

// Synthesizer turns retrieved passages and a question into a grounded,
// citation-carrying answer.
type Synthesizer interface {
	// Answer builds a prompt from the question and retrieved chunks
	// and delegates generation to the language model. An empty
	// results slice yields the fixed insufficient-context answer
	// without invoking the model.
	Answer(ctx context.Context, question string, results []domain.QueryResult) (*domain.Answer, error)
}
