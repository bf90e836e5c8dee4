package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/tui"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate and list illustration images",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var imageGenerateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate an image from a text prompt",
	Long: `Generate an illustration image from a text prompt and print its URL.

Styles:
  realista    Photorealistic rendering
  anime       Anime illustration
  oleo        Oil painting

When run in a terminal without arguments, the prompt and style are
asked interactively.

Examples:
  studio image generate "a lighthouse at dawn" --style oleo
  studio image generate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImageGenerate,
}

var imageRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently generated images",
	RunE:  runImageRecent,
}

var imageStyle string

func init() {
	imageGenerateCmd.Flags().StringVar(&imageStyle, "style", string(api.StyleRealista),
		"image style (realista, anime, oleo)")

	imageCmd.AddCommand(imageGenerateCmd)
	imageCmd.AddCommand(imageRecentCmd)
	rootCmd.AddCommand(imageCmd)
}

func runImageGenerate(cmd *cobra.Command, args []string) error {
	var prompt string
	if len(args) == 1 {
		prompt = args[0]
	}

	style := api.ImageStyle(imageStyle)

	if prompt == "" {
		if !tui.IsInteractive() {
			return fmt.Errorf("prompt is required when not running in a terminal")
		}

		var err error
		prompt, err = tui.PromptForString(tui.Prompt{
			Message:     "Describe the image",
			Placeholder: "a lighthouse at dawn",
			Required:    true,
		})
		if err != nil {
			return err
		}

		styleNames := make([]string, len(api.ImageStyles))
		for i, s := range api.ImageStyles {
			styleNames[i] = string(s)
		}
		chosen, err := tui.PromptForSelect("Style", styleNames)
		if err != nil {
			return err
		}
		style = api.ImageStyle(chosen)
	}

	if !api.ValidImageStyle(style) {
		return errors.New(errors.ErrCodeImageStyleUnknown,
			fmt.Sprintf("unknown image style: %q", style)).
			WithSuggestion("use one of: realista, anime, oleo")
	}

	controller, _, err := newController()
	if err != nil {
		return err
	}

	if err := controller.GenerateImage(cmd.Context(), prompt, style); err != nil {
		return err
	}

	fmt.Println(controller.Snapshot().LastImageURL)
	return nil
}

func runImageRecent(cmd *cobra.Command, args []string) error {
	controller, _, err := newController()
	if err != nil {
		return err
	}

	controller.RefreshGallery(cmd.Context())
	snap := controller.Snapshot()

	if len(snap.Gallery) == 0 {
		fmt.Println("No images yet.")
		return nil
	}

	for _, item := range snap.Gallery {
		fmt.Printf("%s\t%s\n", item.Key, item.URL)
	}
	return nil
}
