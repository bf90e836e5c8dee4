package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the workflow board",
	Long: `List content items grouped by workflow status.

Each column is fetched independently; if one fails, the others still
print and the failure is reported at the end.

Examples:
  studio board
  studio board --json`,
	RunE: runBoard,
}

var boardJSON bool

func init() {
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	controller, _, err := newController()
	if err != nil {
		return err
	}

	refreshErr := controller.RefreshBoard(cmd.Context())
	snap := controller.Snapshot()

	if boardJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap.Board); err != nil {
			return err
		}
		return refreshErr
	}

	for _, status := range workflow.Statuses {
		entries := snap.Board[status]
		fmt.Printf("%s (%d)\n", status, len(entries))
		for _, entry := range entries {
			fmt.Printf("  %s\n", entry.ContentID)
		}
		fmt.Println()
	}

	return refreshErr
}
