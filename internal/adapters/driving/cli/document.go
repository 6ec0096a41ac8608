package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view, or delete indexed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	docs, err := engineService.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].DocumentID)
		cmd.Printf("    File: %s\n", docs[i].Filename)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount)
		if !docs[i].UploadedAt.IsZero() {
			cmd.Printf("    Uploaded: %s\n", docs[i].UploadedAt.Format("2006-01-02 15:04:05"))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	doc, err := engineService.GetDocument(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  File: %s\n", doc.Filename)
	cmd.Printf("  Status: %s\n", doc.Status)
	cmd.Printf("  Chunks: %d\n", doc.ChunkCount)
	cmd.Printf("  Size: %d bytes\n", doc.FileSize)
	cmd.Printf("  Uploaded: %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	if doc.ErrorMessage != "" {
		cmd.Printf("  Error: %s\n", doc.ErrorMessage)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	removed, err := engineService.DeleteDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if removed {
		cmd.Printf("Deleted document %s\n", args[0])
	} else {
		cmd.Printf("No indexed chunks found for document %s\n", args[0])
	}
	return nil
}
