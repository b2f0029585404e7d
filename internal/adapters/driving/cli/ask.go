package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docq-labs/docq/internal/core/domain"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Retrieves the most relevant chunks for the question and generates a
grounded answer citing the passages used. When nothing relevant is
indexed, docq says so instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON shape of an answered question.
type askOutput struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []askSource `json:"sources"`
}

type askSource struct {
	Marker     int     `json:"marker"`
	SourceName string  `json:"source_name"`
	Ordinal    int     `json:"ordinal"`
	Score      float64 `json:"score"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if err := initPipeline(true); err != nil {
		return err
	}
	if retrieverService == nil || synthesizerService == nil {
		return errors.New("question answering not configured")
	}

	topK := askTopK
	if topK <= 0 {
		topK = appConfig.Retrieval.TopK
	}

	ctx := context.Background()

	results, err := retrieverService.Retrieve(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := synthesizerService.Answer(ctx, question, results)
	if err != nil {
		return fmt.Errorf("answer synthesis failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, question, answer, results)
	}
	return outputAskText(cmd, answer, results)
}

func outputAskJSON(cmd *cobra.Command, question string, answer *domain.Answer, results []domain.QueryResult) error {
	out := askOutput{
		Question: question,
		Answer:   answer.Text,
		Sources:  make([]askSource, 0, len(results)),
	}
	for i := range results {
		out.Sources = append(out.Sources, askSource{
			Marker:     i + 1,
			SourceName: results[i].Chunk.SourceName,
			Ordinal:    results[i].Chunk.Ordinal,
			Score:      results[i].Score,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, answer *domain.Answer, results []domain.QueryResult) error {
	cmd.Println(answer.Text)

	if len(results) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i := range results {
		cmd.Printf("  [%d] %s#%d (%.2f)\n",
			i+1, results[i].Chunk.SourceName, results[i].Chunk.Ordinal, results[i].Score)
	}
	return nil
}
