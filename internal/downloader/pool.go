package downloader

import (
	"fmt"
	"io"
	"sync"
	"time"

	"favarchive/pkg/logger"
	"favarchive/pkg/metadata"
	"favarchive/pkg/ratelimit"
	"favarchive/pkg/storage"

	"github.com/dustin/go-humanize"
)

// Result is the outcome of archiving one post. Success means both the media
// file and its metadata record were written.
type Result struct {
	Post     storage.HydratedPost
	Success  bool
	Err      error
	Size     int64
	Duration time.Duration
}

// MediaFetcher opens remote media
type MediaFetcher interface {
	FetchMedia(url string) (io.ReadCloser, error)
}

// MediaStore persists fetched media
type MediaStore interface {
	SaveMedia(p storage.HydratedPost, r io.Reader) (int64, error)
}

type job struct {
	index int
	post  storage.HydratedPost
}

// Runner archives batches of eligible posts. Every fetch waits on the shared
// limiter first. Failed items are reported, never retried.
type Runner struct {
	numWorkers    int
	client        MediaFetcher
	store         MediaStore
	rateLimiter   ratelimit.Limiter
	writeMetadata func(storage.HydratedPost) error
	logger        logger.Logger
}

// NewRunner creates a runner. With one worker, posts are handled strictly
// one after another in the order given.
func NewRunner(
	numWorkers int,
	client MediaFetcher,
	store MediaStore,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Runner{
		numWorkers:    numWorkers,
		client:        client,
		store:         store,
		rateLimiter:   rateLimiter,
		writeMetadata: metadata.Write,
		logger:        log,
	}
}

// Process archives posts and returns one Result per post, in input order
func (r *Runner) Process(posts []storage.HydratedPost) []Result {
	results := make([]Result, len(posts))
	if len(posts) == 0 {
		return results
	}

	if r.numWorkers == 1 || len(posts) == 1 {
		for i, p := range posts {
			results[i] = r.processJob(p, 0)
		}
		return results
	}

	workers := r.numWorkers
	if workers > len(posts) {
		workers = len(posts)
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go r.worker(i, jobs, results, &wg)
	}

	for i, p := range posts {
		jobs <- job{index: i, post: p}
	}
	close(jobs)
	wg.Wait()

	return results
}

// worker writes each result into its job's slot
func (r *Runner) worker(id int, jobs <-chan job, results []Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		results[j.index] = r.processJob(j.post, id)
	}
}

// processJob fetches, saves and records a single post
func (r *Runner) processJob(p storage.HydratedPost, workerID int) Result {
	start := time.Now()
	result := Result{Post: p}
	log := r.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"id":        p.ID,
	})

	r.rateLimiter.Wait()
	defer r.rateLimiter.Done()

	log.InfoWithFields("Downloading media", map[string]interface{}{
		"url": p.File.URL,
	})

	body, err := r.client.FetchMedia(p.File.URL)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(log, p.File.MD5, p.File.URL, 0, err)
		return result
	}

	size, err := r.store.SaveMedia(p, body)
	body.Close()
	if err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(log.WithField("path", p.MediaPath), p.File.MD5, p.File.URL, 0, err)
		return result
	}

	result.Size = size
	logger.LogDownload(log.WithFields(map[string]interface{}{
		"path":       p.MediaPath,
		"size_human": humanize.Bytes(uint64(size)),
	}), p.File.MD5, p.File.URL, size, nil)

	if err := r.writeMetadata(p); err != nil {
		result.Err = fmt.Errorf("write metadata: %w", err)
		result.Duration = time.Since(start)
		log.WithError(err).ErrorWithFields("Metadata write failed", map[string]interface{}{
			"path": p.MetadataPath,
		})
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	log.DebugWithFields("Post archived", map[string]interface{}{
		"md5":      p.File.MD5,
		"duration": result.Duration,
	})

	return result
}
