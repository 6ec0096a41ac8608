package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

var ingestID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a document",
	Long: `Extracts text from a file, splits it into chunks, embeds them and
stores them in the vector store for later questioning.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (default: a new UUID)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}
	if extractorService == nil {
		return errors.New("text extractor not configured")
	}

	path := args[0]
	ctx := context.Background()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	text, err := extractorService.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	documentID := ingestID
	if documentID == "" {
		documentID = uuid.New().String()
	}

	doc, err := engineService.Ingest(ctx, documentID, filepath.Base(path), text, info.Size())
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if doc.Status == domain.StatusFailed {
		return fmt.Errorf("ingestion of %s failed: %s", doc.Filename, doc.ErrorMessage)
	}

	cmd.Printf("Indexed %s\n", doc.Filename)
	cmd.Printf("  Document ID: %s\n", doc.ID)
	cmd.Printf("  Chunks: %d\n", doc.ChunkCount)
	cmd.Printf("  Size: %d bytes\n", doc.FileSize)
	return nil
}
