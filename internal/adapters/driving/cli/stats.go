package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	stats, err := engineService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Engine statistics:")
	cmd.Printf("  Documents: %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks: %d\n", stats.TotalChunks)
	cmd.Printf("  Embedding model: %s\n", stats.EmbeddingModel)
	cmd.Printf("  Embedding dimension: %d\n", stats.EmbeddingDimension)
	if stats.StorePath != "" {
		cmd.Printf("  Store path: %s\n", stats.StorePath)
	}
	return nil
}
