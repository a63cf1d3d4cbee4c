package main

import (
	"fmt"
	"strconv"
	"time"

	"favarchive/pkg/archiver"
	"favarchive/pkg/config"
	"favarchive/pkg/favorites"
	"favarchive/pkg/logger"
	"favarchive/pkg/ratelimit"
	"favarchive/pkg/storage"
	"favarchive/pkg/ui"

	"github.com/spf13/cobra"
)

const completionMessage = "Done! Enjoy that offline archive!"

var (
	// Archive command flags
	userID          int
	archiveDir      string
	analyzeAfter    bool
	apiURL          string
	workers         int
	requestInterval time.Duration
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Download a user's favorites",
	Long: `Walk every favorites page of a user and download each post that is not
already in the output directory, together with its JSON metadata record.

Requests are spaced by the configured interval (1500ms by default). A failed
page request stops the run; a failed download is logged and skipped.`,
	Example: `  # Archive user 1234 into ./favs
  favarchive archive -u 1234 -d ./favs

  # Archive, then print a report of the archive
  favarchive archive -u 1234 -d ./favs --analyze

  # Use a mirror and a slower pace
  favarchive archive -u 1234 -d ./favs --api-url https://mirror.example --request-interval 3s`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().IntVarP(&userID, "user-id", "u", 0, "id of the user whose favorites to archive (required)")
	archiveCmd.Flags().StringVarP(&archiveDir, "directory", "d", "", "output directory for the archive")
	archiveCmd.Flags().BoolVarP(&analyzeAfter, "analyze", "a", false, "print an archive report after the run")
	archiveCmd.Flags().StringVar(&apiURL, "api-url", "", "base URL of the favorites API")
	archiveCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent downloads (default from config: 1)")
	archiveCmd.Flags().DurationVar(&requestInterval, "request-interval", 0, "minimum time between requests (default from config: 1500ms)")
	_ = archiveCmd.MarkFlagRequired("user-id")

	// Also accept the core flags on the root command
	rootCmd.Flags().IntVarP(&userID, "user-id", "u", 0, "id of the user whose favorites to archive")
	rootCmd.Flags().StringVarP(&archiveDir, "directory", "d", "", "output directory for the archive")
	rootCmd.Flags().BoolVarP(&analyzeAfter, "analyze", "a", false, "print an archive report after the run")
}

// archiveFlags collects the flags that override configuration
func archiveFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if archiveDir != "" {
		flags["directory"] = archiveDir
	}
	if apiURL != "" {
		flags["api-url"] = apiURL
	}
	if workers > 0 {
		flags["workers"] = workers
	}
	if requestInterval > 0 {
		flags["request-interval"] = requestInterval
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runArchive(cmd *cobra.Command, args []string) error {
	if userID < 0 {
		return fmt.Errorf("invalid user id %d", userID)
	}

	cfg, err := config.Load(configFile, archiveFlags())
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("favarchive starting")

	layout := storage.NewLayout(cfg.Output.Directory, cfg.MetadataDirectory())
	store, err := storage.NewManager(layout, log)
	if err != nil {
		return err
	}
	if err := store.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			log.WithError(err).Warn("Failed to release output directory lock")
		}
	}()

	client := favorites.NewClient(&cfg.API, log)
	limiter := ratelimit.FromConfig(&cfg.RateLimit)
	logger.LogComponentStart(log, "archiver", map[string]interface{}{
		"api":         cfg.API.BaseURL,
		"rate_policy": cfg.RateLimit.Policy,
		"interval":    cfg.RateLimit.RequestInterval,
		"workers":     cfg.Download.Workers,
	})

	ui.PrintInfo("User", strconv.Itoa(userID))
	ui.PrintInfo("Output", layout.MediaRoot)

	a := archiver.New(cfg, client, store, limiter, log)
	stats, err := a.Run(userID)
	if err != nil {
		if stats != nil {
			ui.PrintWarning("Stopped after", stats.String())
		}
		return err
	}

	stats.PrintSummary()
	ui.PrintSuccess(completionMessage)

	if analyzeAfter {
		return printReport(a.Layout().MetadataRoot)
	}
	return nil
}
