package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

var generateCmd = &cobra.Command{
	Use:   "generate <action>",
	Short: "Run a text generation action",
	Long: `Run a generation action over a piece of text and print the result.

Actions:
  summarize   Condense the text
  expand      Elaborate on the text
  fix         Correct grammar and spelling
  variations  Produce an alternative phrasing

Text comes from --text, --file, or stdin (in that order). With --id the
action continues an existing content item and appends a new version;
without it the backend creates a new item.

Examples:
  studio generate fix --text "teh quick brown fox"
  studio generate summarize --file draft.txt
  studio generate expand --id 3f2a... --text "add more detail here"
  cat notes.md | studio generate variations`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	generateText string
	generateFile string
	generateID   string
)

func init() {
	generateCmd.Flags().StringVar(&generateText, "text", "", "input text")
	generateCmd.Flags().StringVar(&generateFile, "file", "", "read input text from a file")
	generateCmd.Flags().StringVar(&generateID, "id", "", "existing content id to continue")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	action := workflow.Action(args[0])
	if !workflow.ValidAction(action) {
		return errors.NewActionUnknownError(string(action))
	}

	text, err := readInputText()
	if err != nil {
		return err
	}

	controller, _, err := newController()
	if err != nil {
		return err
	}

	if generateID != "" {
		if err := controller.LoadContent(cmd.Context(), generateID); err != nil {
			return err
		}
	}

	if err := controller.Generate(cmd.Context(), action, text); err != nil {
		return err
	}

	snap := controller.Snapshot()
	fmt.Fprintf(os.Stderr, "content: %s (%s)\n", snap.ContentID, snap.Status)
	fmt.Println(snap.Text)
	return nil
}

func readInputText() (string, error) {
	if generateText != "" {
		return generateText, nil
	}
	if generateFile != "" {
		data, err := os.ReadFile(generateFile)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileReadFailed,
				fmt.Sprintf("reading %s", generateFile), err)
		}
		return string(data), nil
	}

	info, err := os.Stdin.Stat()
	if err == nil && (info.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileReadFailed, "reading stdin", err)
		}
		return string(data), nil
	}

	return "", nil
}
