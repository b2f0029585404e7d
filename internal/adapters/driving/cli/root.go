// Package cli implements the docq command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docq-labs/docq/internal/adapters/driven/ai"
	sqliteindex "github.com/docq-labs/docq/internal/adapters/driven/index/sqlite"
	"github.com/docq-labs/docq/internal/chunker"
	"github.com/docq-labs/docq/internal/config"
	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
	"github.com/docq-labs/docq/internal/core/ports/driving"
	"github.com/docq-labs/docq/internal/core/services"
	"github.com/docq-labs/docq/internal/extractors"
	"github.com/docq-labs/docq/internal/extractors/docx"
	"github.com/docq-labs/docq/internal/extractors/pdf"
	"github.com/docq-labs/docq/internal/extractors/plaintext"
	"github.com/docq-labs/docq/internal/logger"
)

// version is set by main at startup.
var version = "dev"

// Services used by the commands. Wired by initPipeline; tests may set
// them directly.
var (
	appConfig          config.Config
	retrieverService   driving.Retriever
	synthesizerService driving.Synthesizer
	vectorIndex        driven.VectorIndex
	embeddingService   driven.EmbeddingService
	llmService         driven.LLMService
)

var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "Question answering over your documents",
	Long: `docq ingests PDF, DOCX and plain-text documents into a local vector
index and answers questions about them, citing the passages used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.docq/config.toml)")
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	defer closePipeline()
	return rootCmd.Execute()
}

// initIndex opens the persistent vector index. Commands that only
// inspect or mutate the index (status, remove) need nothing else.
func initIndex() error {
	if vectorIndex != nil {
		return nil
	}

	idx, err := sqliteindex.NewIndex(appConfig.DataDir, appConfig.Embedding.Dimensions, appConfig.Embedding.Model)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	vectorIndex = idx
	return nil
}

// initPipeline wires the ingestion and retrieval pipeline. When
// needLLM is set the answer synthesizer is wired as well.
//
// The embedder is created before the index opens so the model's
// dimensionality reaches the index's open-time check even when the
// config carries no explicit dimensions override; switching embedding
// models over an existing corpus fails here, not on the first query.
func initPipeline(needLLM bool) error {
	if retrieverService == nil && embeddingService == nil {
		embedder, err := ai.CreateAndValidateEmbeddingService(appConfig.Embedding)
		if err != nil {
			return err
		}
		embeddingService = embedder

		if appConfig.Embedding.Dimensions == 0 {
			appConfig.Embedding.Dimensions = embedder.Dimensions()
		}
	}

	if err := initIndex(); err != nil {
		return err
	}

	if embeddingService != nil {
		if err := verifyIndexDimensions(embeddingService, vectorIndex); err != nil {
			return err
		}
	}

	if retrieverService == nil {
		embedder := embeddingService

		registry, err := extractors.NewRegistry(
			plaintext.New(),
			docx.New(),
			pdf.New(),
		)
		if err != nil {
			return fmt.Errorf("build extractor registry: %w", err)
		}

		ck := chunker.New(
			chunker.WithChunkSize(appConfig.Chunking.Size),
			chunker.WithOverlap(appConfig.Chunking.Overlap),
		)

		retrieverService = services.NewRetriever(
			registry,
			ck,
			embedder,
			vectorIndex,
			services.WithBatchSize(appConfig.Retrieval.BatchSize),
			services.WithMaxRetries(appConfig.Retrieval.MaxRetries),
			services.WithEmbedRate(appConfig.Retrieval.EmbedRate),
			services.WithMinScore(appConfig.Retrieval.MinScore),
		)
	}

	if needLLM && synthesizerService == nil {
		llm, err := ai.CreateAndValidateLLMService(appConfig.LLM)
		if err != nil {
			return err
		}
		llmService = llm

		synthesizerService = services.NewSynthesizer(
			llm,
			services.WithMaxAnswerTokens(appConfig.LLM.MaxTokens),
			services.WithTemperature(appConfig.LLM.Temperature),
		)
	}

	return nil
}

// verifyIndexDimensions rejects an index whose established
// dimensionality disagrees with the embedder's, so a model switch
// over an existing corpus fails before any ingest or query runs.
func verifyIndexDimensions(embedder driven.EmbeddingService, index driven.VectorIndex) error {
	want := embedder.Dimensions()
	got := index.Dimensions()
	if want == 0 || got == 0 || want == got {
		return nil
	}
	return fmt.Errorf(
		"index holds %d-dimension vectors but model %q produces %d; re-indexing required: %w",
		got, embedder.ModelName(), want,
		&domain.DimensionMismatchError{Want: want, Got: got},
	)
}

// closePipeline releases everything initPipeline opened.
func closePipeline() {
	if embeddingService != nil {
		embeddingService.Close()
		embeddingService = nil
	}
	if llmService != nil {
		llmService.Close()
		llmService = nil
	}
	if vectorIndex != nil {
		if err := vectorIndex.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close index: %v\n", err)
		}
		vectorIndex = nil
	}
}
