package main

import (
	"fmt"
	"os"
	"runtime"

	"favarchive/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands.
// It also accepts the archive flags directly.
var rootCmd = &cobra.Command{
	Use:   "favarchive",
	Short: "Archive a user's favorites for offline use",
	Long: `favarchive downloads every favorited post of a user, page by page, into a
local directory. Each post is stored as <md5>.<ext> with a JSON record under
metadata/. Files already on disk are skipped, so an interrupted run can simply
be started again.`,
	Example: `  favarchive -u 1234 -d ./favs
  favarchive archive --user-id 1234 --directory ./favs --analyze
  favarchive analyze --directory ./favs`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuiet(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("user-id") {
			return cmd.Help()
		}
		return runArchive(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches .favarchive.yaml, ~/.config/favarchive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`favarchive {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
