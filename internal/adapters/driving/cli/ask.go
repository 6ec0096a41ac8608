package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

var (
	askDocument string
	askChunks   int
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Answers a question from indexed content using semantic retrieval.
The answer cites the chunks it drew from with their similarity scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "restrict the question to one document ID")
	askCmd.Flags().IntVarP(&askChunks, "chunks", "n", 0, "maximum chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	question := args[0]
	ctx := context.Background()

	answer, err := engineService.Ask(ctx, question, askDocument, askChunks)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Printf("Confidence: %.2f\n", answer.Confidence)

	if len(answer.Sources) == 0 {
		return nil
	}

	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		cmd.Printf("  [%d] %s (chunk %d, similarity %.2f)\n", i+1, src.Filename, src.ChunkIndex, src.Similarity)
		if src.Content != "" {
			cmd.Printf("      %s\n", src.Content)
		}
	}
	return nil
}
