package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
	"github.com/PerezAngel/iep-bedrock-studio/internal/identity"
	"github.com/PerezAngel/iep-bedrock-studio/internal/log"
	"github.com/PerezAngel/iep-bedrock-studio/internal/session"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Content authoring and workflow dashboard",
	Long: `studio is a terminal client for the content authoring service.
It drafts and refines text through the generation API, moves content
through the editorial workflow (draft, review, approval, publication),
and generates illustration images.

Run without arguments to open the interactive dashboard, or use the
subcommands for scripted access to individual operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.studio/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
}

func setupLogging() error {
	cfg := log.DefaultConfig()
	if logLevel != "" {
		cfg.Level = log.ParseLevel(logLevel)
	}
	if logFormat != "" {
		cfg.Format = log.ParseFormat(logFormat)
	}

	log.SetDefaultLogger(log.New(cfg))
	return nil
}

// loadStudioConfig resolves the config file path and loads it,
// falling back to environment variables when no file exists.
func loadStudioConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.Path()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// newController builds the session controller the subcommands share:
// config, token store, API client wired with the stored bearer token.
func newController() (*session.Controller, *config.Config, error) {
	cfg, err := loadStudioConfig()
	if err != nil {
		return nil, nil, err
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	store := identity.NewStore(dir)

	client := api.New(cfg.API,
		api.WithTokenSource(func() string {
			tokens, err := store.Load()
			if err != nil {
				return ""
			}
			return tokens.Bearer()
		}),
		api.WithLogger(log.DefaultLogger().With("component", "api")),
	)

	controller := session.New(client, cfg.Identity,
		session.WithTokenStore(store),
		session.WithLogger(log.DefaultLogger().With("component", "session")),
	)
	return controller, cfg, nil
}
