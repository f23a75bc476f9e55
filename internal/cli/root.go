package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixelflare/studio/internal/cli/commands"
	"github.com/pixelflare/studio/internal/cli/config"
)

var version = "dev" // Will be set during build

// Commands that establish or end a session themselves and must not restore
// the stored one first.
var skipRestore = map[string]bool{
	"login":   true,
	"signup":  true,
	"logout":  true,
	"version": true,
}

// NewRootCmd builds the command tree. opts are passed to every App it builds.
func NewRootCmd(opts ...commands.AppOption) *cobra.Command {
	var apiURL, logLevel string

	rootCmd := &cobra.Command{
		Use:   "studio",
		Short: "Pixelflare Studio - book and manage photography sessions",
		Long: `Pixelflare Studio CLI - sign in, browse services and photographers,
book sessions and, for staff, run the admin area from your terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Resolve()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			app, err := commands.NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts...)
			if err != nil {
				return err
			}
			cmd.SetContext(commands.ContextWithApp(cmd.Context(), app))

			// "admin login" starts a fresh session too
			if skipRestore[cmd.Name()] {
				return nil
			}
			app.Restore(cmd.Context())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides studio.json and STUDIO_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studio version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewSignupCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewPasswdCmd())
	rootCmd.AddCommand(commands.NewServicesCmd())
	rootCmd.AddCommand(commands.NewPhotographersCmd())
	rootCmd.AddCommand(commands.NewBookingsCmd())
	rootCmd.AddCommand(commands.NewAdminCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
