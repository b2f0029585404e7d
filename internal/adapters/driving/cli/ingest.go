package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docq-labs/docq/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the index",
	Long: `Extracts text from the given files, splits it into overlapping chunks,
embeds them and stores them in the local index. Re-ingesting a file
replaces its previous chunks. Supports PDF, DOCX and plain text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) > appConfig.Limits.MaxBatchFiles {
		return fmt.Errorf("too many files: %d given, at most %d per batch", len(args), appConfig.Limits.MaxBatchFiles)
	}

	if err := initPipeline(false); err != nil {
		return err
	}
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	ctx := context.Background()
	failed := 0

	for _, path := range args {
		if err := ingestFile(ctx, cmd, path); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", filepath.Base(path), err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// ingestFile loads, validates and ingests a single file. A failure
// here never affects the other files in the batch.
func ingestFile(ctx context.Context, cmd *cobra.Command, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > int64(appConfig.MaxFileSizeBytes()) {
		return fmt.Errorf("%w: %d bytes (limit %d MB)",
			domain.ErrFileTooLarge, info.Size(), appConfig.Limits.MaxFileSizeMB)
	}

	mimeType := domain.MIMETypeForExtension(filepath.Ext(path))
	if mimeType == "" {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	raw := &domain.RawDocument{
		SourceName: filepath.Base(path),
		MIMEType:   mimeType,
		Content:    content,
	}

	result, err := retrieverService.Ingest(ctx, raw)
	if err != nil {
		return err
	}

	cmd.Printf("  %s: %d chunks indexed\n", result.SourceName, result.ChunksIndexed)
	for _, chunkErr := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "    warning: %v\n", chunkErr)
	}
	return nil
}
