package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all indexed documents",
	Long:  `Destroys every indexed record and lifecycle entry. This cannot be undone.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}

	if !resetForce {
		cmd.Print("This removes all indexed documents. Continue? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := engineService.Reset(context.Background()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	cmd.Println("All documents removed.")
	return nil
}
