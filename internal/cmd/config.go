package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit studio configuration",
	Long: `Manage studio configuration stored at ~/.studio/config.yaml

Configuration includes:
  • API endpoints and timeout
  • Identity provider (hosted login)
  • Logging settings

Every key can also be set through STUDIO_* environment variables,
which take effect when no config file exists.

Examples:
  # View current configuration
  studio config view

  # Get a specific value
  studio config get api.base

  # Set a specific value
  studio config set api.base https://api.example.com

  # Show configuration file path
  studio config path
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	RunE:  runConfigView,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the value of a specific configuration key using dot notation (e.g., api.base).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a specific configuration key using dot notation (e.g., api.base https://api.example.com).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadLenient(cfgFile)
	if err != nil {
		return err
	}

	path, _ := config.Path()
	fmt.Printf("Configuration file: %s\n\n", path)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadLenient(cfgFile)
	if err != nil {
		return err
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	cfg, err := config.LoadLenient(cfgFile)
	if err != nil {
		return err
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		if path, err = config.Path(); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return err
		}
	}

	fmt.Println(path)
	return nil
}

// getConfigValue retrieves a value from the config using dot notation
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "api.base":
		return cfg.API.Base, nil
	case "api.content_base":
		return cfg.API.ContentBase, nil
	case "api.timeout":
		return cfg.API.Timeout.String(), nil
	case "api.user_email":
		return cfg.API.UserEmail, nil
	case "identity.domain":
		return cfg.Identity.Domain, nil
	case "identity.client_id":
		return cfg.Identity.ClientID, nil
	case "identity.redirect_uri":
		return cfg.Identity.RedirectURI, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.format":
		return cfg.Log.Format, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a value in the config using dot notation
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "api.base":
		cfg.API.Base = strings.TrimRight(value, "/")
	case "api.content_base":
		cfg.API.ContentBase = strings.TrimRight(value, "/")
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		cfg.API.Timeout = d
	case "api.user_email":
		cfg.API.UserEmail = value
	case "identity.domain":
		cfg.Identity.Domain = value
	case "identity.client_id":
		cfg.Identity.ClientID = value
	case "identity.redirect_uri":
		cfg.Identity.RedirectURI = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return nil
}
