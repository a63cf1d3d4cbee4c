package main

import (
	"fmt"
	"os"

	"favarchive/pkg/config"
	"favarchive/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage favarchive configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FAVARCHIVE_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with default values",
	Long: `Create a configuration file holding every option at its default value.

The file is written to .favarchive.yaml in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration resulting from the config file, environment
variables and defaults.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration from all sources and report every invalid value.`,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".favarchive.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.Print("\nNext steps:\n")
	ui.Print("1. Set output.directory (or pass --directory when archiving)\n")
	ui.Print("2. Run 'favarchive config validate' to check the configuration\n")
	ui.Print("3. Start archiving with 'favarchive archive --user-id <id>'\n")
	return nil
}

// loadUnvalidated builds the configuration without rejecting incomplete
// values, so it can be shown before it is finished.
func loadUnvalidated() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadUnvalidated()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.Print(string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	ui.PrintInfo("\nConfiguration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, archiveFlags())
	if err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Output directory", cfg.Output.Directory)
	ui.PrintInfo("Metadata directory", cfg.MetadataDirectory())
	ui.PrintInfo("Rate limit policy", cfg.RateLimit.Policy)
	ui.PrintInfo("Request interval", cfg.RateLimit.RequestInterval.String())
	ui.PrintInfo("Workers", fmt.Sprintf("%d", cfg.Download.Workers))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
