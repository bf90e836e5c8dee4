package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect and manage content items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var contentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a content item and its versions",
	Long: `Load a content item and print its current status, latest text and
version history.

Examples:
  studio content show 3f2a9c1e
  studio content show 3f2a9c1e --json`,
	Args: cobra.ExactArgs(1),
	RunE: runContentShow,
}

var contentStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a content item to a workflow status",
	Long: `Move a content item to the given workflow status.

The workflow only moves forward one step at a time:
  DRAFT -> IN_REVIEW -> APPROVED -> PUBLISHED

Submitting for review requires the creator role; approving and
publishing require the approver role. The backend enforces both rules
and this command reports its verdict.

Examples:
  studio content status 3f2a9c1e IN_REVIEW
  studio content status 3f2a9c1e APPROVED`,
	Args: cobra.ExactArgs(2),
	RunE: runContentStatus,
}

var contentShowJSON bool

func init() {
	contentShowCmd.Flags().BoolVar(&contentShowJSON, "json", false, "output as JSON")

	contentCmd.AddCommand(contentShowCmd)
	contentCmd.AddCommand(contentStatusCmd)
	rootCmd.AddCommand(contentCmd)
}

func runContentShow(cmd *cobra.Command, args []string) error {
	controller, _, err := newController()
	if err != nil {
		return err
	}

	if err := controller.LoadContent(cmd.Context(), args[0]); err != nil {
		return err
	}

	snap := controller.Snapshot()

	if contentShowJSON {
		out := struct {
			ContentID string             `json:"contentId"`
			Status    workflow.Status    `json:"status"`
			Text      string             `json:"text"`
			Versions  []workflow.Version `json:"versions"`
		}{snap.ContentID, snap.Status, snap.Text, snap.Versions}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Content:  %s\n", snap.ContentID)
	fmt.Printf("Status:   %s\n", snap.Status)
	if next, ok := snap.Status.Next(); ok {
		fmt.Printf("Next:     %s (%s)\n", snap.Status.NextActionLabel(), next)
	}
	fmt.Printf("Versions: %d\n\n", len(snap.Versions))
	fmt.Println(snap.Text)
	return nil
}

func runContentStatus(cmd *cobra.Command, args []string) error {
	id := args[0]
	status, err := workflow.ParseStatus(args[1])
	if err != nil {
		return err
	}

	controller, _, err := newController()
	if err != nil {
		return err
	}

	if err := controller.ChangeStatus(cmd.Context(), id, status); err != nil {
		return err
	}

	fmt.Printf("%s is now %s\n", id, status)
	return nil
}
