package archiver

import (
	"fmt"

	"favarchive/internal/downloader"
	"favarchive/pkg/config"
	"favarchive/pkg/logger"
	"favarchive/pkg/ratelimit"
	"favarchive/pkg/storage"
	"favarchive/pkg/ui"

	"github.com/google/uuid"
)

// Archiver walks a user's favorites page by page and archives every post
// that is not on disk yet.
type Archiver struct {
	client      FavoritesClient
	store       Store
	rateLimiter ratelimit.Limiter
	runner      *downloader.Runner
	logger      logger.Logger
}

// New creates an Archiver. The limiter gates page requests and media
// downloads alike.
func New(cfg *config.Config, client FavoritesClient, store Store, rateLimiter ratelimit.Limiter, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Archiver{
		client:      client,
		store:       store,
		rateLimiter: rateLimiter,
		runner:      downloader.NewRunner(cfg.Download.Workers, client, store, rateLimiter, log),
		logger:      log,
	}
}

// Run archives the favorites of userID, starting at page 1 and stopping at
// the first empty page. Any page error ends the run; the stats gathered so
// far are returned with it.
func (a *Archiver) Run(userID int) (*ui.Stats, error) {
	stats := ui.NewStats()
	layout := a.store.Layout()
	log := a.logger.WithFields(map[string]interface{}{
		"run_id":  uuid.New().String(),
		"user_id": userID,
	})

	log.InfoWithFields("Archive run started", map[string]interface{}{
		"media_root":    layout.MediaRoot,
		"metadata_root": layout.MetadataRoot,
	})

	for page := 1; ; page++ {
		a.rateLimiter.Wait()

		result, err := a.client.FetchFavorites(userID, page)
		a.rateLimiter.Done()
		if err != nil {
			log.WithError(err).ErrorWithFields("Favorites page failed", map[string]interface{}{
				"page": page,
			})
			return stats, fmt.Errorf("fetch favorites page %d: %w", page, err)
		}

		if len(result.Posts) == 0 {
			log.DebugWithFields("Empty page, stopping", map[string]interface{}{
				"page": page,
			})
			break
		}

		posts := layout.HydrateAll(result.Posts)
		for _, p := range posts {
			log.DebugWithFields("Hydrated post", map[string]interface{}{
				"id":            p.ID,
				"media_path":    p.MediaPath,
				"metadata_path": p.MetadataPath,
			})
		}

		eligible := a.store.Eligible(posts)
		stats.RecordPage(len(posts), len(eligible))
		logger.LogPage(log, userID, page, len(posts), len(eligible))
		log.Info(downloadCountMessage(len(eligible)))

		for _, res := range a.runner.Process(eligible) {
			if res.Success {
				stats.RecordDownload(res.Size)
			} else {
				stats.RecordFailure()
			}
		}
	}

	log.InfoWithFields("Archive run completed", map[string]interface{}{
		"pages":      stats.Pages,
		"seen":       stats.Seen,
		"downloaded": stats.Downloaded,
		"failed":     stats.Failed,
		"bytes":      stats.Bytes,
		"duration":   stats.Elapsed(),
	})

	return stats, nil
}

// Layout returns where the archive is written
func (a *Archiver) Layout() storage.Layout {
	return a.store.Layout()
}

func downloadCountMessage(n int) string {
	switch n {
	case 0:
		return "No images to download"
	case 1:
		return "1 image to download"
	default:
		return fmt.Sprintf("%d images to download", n)
	}
}
