package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := initIndex(); err != nil {
		return err
	}
	if vectorIndex == nil {
		return errors.New("index not configured")
	}

	stats, err := vectorIndex.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println("Index status:")
	cmd.Printf("  Documents:  %d\n", stats.Documents)
	cmd.Printf("  Chunks:     %d\n", stats.Chunks)
	if stats.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", stats.Dimensions)
	} else {
		cmd.Println("  Dimensions: (empty index)")
	}
	return nil
}
