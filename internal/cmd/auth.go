package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/identity"
	"github.com/PerezAngel/iep-bedrock-studio/internal/session"
	"github.com/PerezAngel/iep-bedrock-studio/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the hosted identity session",
	Long: `Manage the hosted identity session.

Login opens through the identity provider's hosted page: this command
prints the login URL, you complete the sign-in in a browser, and paste
the redirect URL back here. The tokens from the redirect are stored in
~/.studio/ and sent as a bearer token on every API call.

Subcommands:
  login    Sign in through the hosted identity page
  logout   Clear the local session
  whoami   Show the current session and permissions

Examples:
  studio auth login
  studio auth whoami
  studio auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the hosted identity page",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the local session",
	RunE:  runAuthLogout,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session and permissions",
	RunE:  runAuthWhoami,
}

var (
	authRedirectURL string
	authLogoutYes   bool
)

func init() {
	authLoginCmd.Flags().StringVar(&authRedirectURL, "redirect-url", "",
		"redirect URL from the hosted page (skips the interactive paste)")
	authLogoutCmd.Flags().BoolVarP(&authLogoutYes, "yes", "y", false, "skip confirmation")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadStudioConfig()
	if err != nil {
		return err
	}
	if !cfg.HasIdentity() {
		return errors.New(errors.ErrCodeConfigInvalid, "identity provider is not configured").
			WithSuggestions(
				"set STUDIO_IDENTITY_DOMAIN, STUDIO_IDENTITY_CLIENT_ID and STUDIO_IDENTITY_REDIRECT_URI",
				"or add the identity block to ~/.studio/config.yaml",
			)
	}

	loginURL, err := identity.LoginURL(cfg.Identity)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser and sign in:")
	fmt.Println()
	fmt.Println("  " + loginURL)
	fmt.Println()

	raw := authRedirectURL
	if raw == "" {
		if !tui.IsInteractive() {
			return fmt.Errorf("--redirect-url is required when not running in a terminal")
		}
		raw, err = tui.PromptForString(tui.Prompt{
			Message:     "Paste the URL you were redirected to",
			Placeholder: cfg.Identity.RedirectURI + "#access_token=...",
			Required:    true,
		})
		if err != nil {
			return err
		}
	}

	artifact, err := identity.ConsumeRedirect(strings.TrimSpace(raw))
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	store := identity.NewStore(dir)
	if err := store.SaveArtifact(artifact); err != nil {
		return err
	}

	if artifact.IDToken != "" {
		if claims, err := identity.ParseClaims(artifact.IDToken); err == nil && claims.Email != "" {
			fmt.Printf("Signed in as %s\n", claims.Email)
			return nil
		}
	}
	fmt.Println("Signed in.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if !authLogoutYes && tui.IsInteractive() {
		confirmed, err := tui.PromptForConfirmation("Clear the local session?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	controller, _, err := newController()
	if err != nil {
		return err
	}

	logoutURL, err := controller.Logout(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("Signed out locally.")
	if logoutURL != "" {
		fmt.Println()
		fmt.Println("To end the provider session too, open:")
		fmt.Println("  " + logoutURL)
	}
	return nil
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	controller, _, err := newController()
	if err != nil {
		return err
	}

	refreshErr := controller.RefreshSession(cmd.Context())

	snap := controller.Snapshot()
	switch snap.AuthPhase {
	case session.AuthOK:
		fmt.Printf("Groups:   %s\n", strings.Join(snap.Groups, ", "))
		fmt.Printf("Creator:  %t\n", snap.Roles.CanAuthor)
		fmt.Printf("Approver: %t\n", snap.Roles.CanApprove)
	case session.AuthSignedOut:
		fmt.Println("Not signed in. Run `studio auth login`.")
	case session.AuthForbidden:
		fmt.Println("Signed in, but this account has no access.")
	default:
		return refreshErr
	}
	return nil
}
