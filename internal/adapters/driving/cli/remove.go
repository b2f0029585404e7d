package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/docq-labs/docq/internal/extractors"
)

var removeCmd = &cobra.Command{
	Use:   "remove [source-name]",
	Short: "Remove a document from the index",
	Long: `Deletes all indexed chunks of the document that was ingested under
the given filename.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	sourceName := args[0]

	if err := initIndex(); err != nil {
		return err
	}
	if vectorIndex == nil {
		return errors.New("index not configured")
	}

	docID := extractors.DocumentIDFor(sourceName)
	if err := vectorIndex.Delete(context.Background(), docID); err != nil {
		return err
	}

	cmd.Printf("Removed %s from the index.\n", sourceName)
	return nil
}
