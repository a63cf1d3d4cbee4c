package archiver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"favarchive/pkg/config"
	"favarchive/pkg/errors"
	"favarchive/pkg/favorites"
	"favarchive/pkg/logger"
	"favarchive/pkg/metadata"
	"favarchive/pkg/ratelimit"
	"favarchive/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves favorites pages and media files from memory
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server
	pages  map[int][]favorites.Post
	// pageStatus forces a status code for a page
	pageStatus map[int]int
	// rawPage replaces a page body verbatim
	rawPage map[int]string
	// mediaStatus forces a status code for a checksum
	mediaStatus map[string]int
	// mediaDelay stalls every media response
	mediaDelay time.Duration

	mu           sync.Mutex
	pageRequests []int
	mediaHits    int32
	timeline     []request
}

// request records when the server started and finished handling a path
type request struct {
	path       string
	start, end time.Time
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		t:           t,
		pages:       make(map[int][]favorites.Post),
		pageStatus:  make(map[int]int),
		rawPage:     make(map[int]string),
		mediaStatus: make(map[string]int),
	}
	api.server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.server.Close)
	return api
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	entry := request{path: r.URL.Path, start: time.Now()}
	defer func() {
		entry.end = time.Now()
		f.mu.Lock()
		f.timeline = append(f.timeline, entry)
		f.mu.Unlock()
	}()

	switch {
	case r.URL.Path == favorites.FavoritesPath:
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if !assert.NoError(f.t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(f.t, "1234", r.URL.Query().Get("user_id"))

		f.mu.Lock()
		f.pageRequests = append(f.pageRequests, page)
		f.mu.Unlock()

		if status, ok := f.pageStatus[page]; ok {
			w.WriteHeader(status)
			return
		}
		if body, ok := f.rawPage[page]; ok {
			_, _ = io.WriteString(w, body)
			return
		}
		posts := f.pages[page]
		if posts == nil {
			posts = []favorites.Post{}
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(f.t, json.NewEncoder(w).Encode(map[string]interface{}{"posts": posts}))

	case strings.HasPrefix(r.URL.Path, "/data/"):
		atomic.AddInt32(&f.mediaHits, 1)
		name := strings.TrimPrefix(r.URL.Path, "/data/")
		checksum := strings.TrimSuffix(name, filepath.Ext(name))
		if f.mediaDelay > 0 {
			time.Sleep(f.mediaDelay)
		}
		if status, ok := f.mediaStatus[checksum]; ok {
			w.WriteHeader(status)
			return
		}
		_, _ = fmt.Fprintf(w, "media:%s", checksum)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) post(id int, checksum string, withURL bool) favorites.Post {
	p := favorites.Post{
		ID:     id,
		Rating: "s",
		File:   favorites.File{MD5: checksum, Ext: "png", Size: 10, Width: 1, Height: 1},
	}
	if withURL {
		p.File.URL = f.server.URL + "/data/" + checksum + ".png"
	}
	return p
}

func (f *fakeAPI) requests() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.timeline...)
}

func (f *fakeAPI) requestedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pageRequests...)
}

type harness struct {
	archiver *Archiver
	layout   storage.Layout
	log      *logger.TestLogger
}

func newHarness(t *testing.T, api *fakeAPI, root string, limiter ratelimit.Limiter) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = api.server.URL
	cfg.Output.Directory = root

	log := logger.NewTestLogger()
	layout := storage.NewLayout(root, cfg.MetadataDirectory())
	store, err := storage.NewManager(layout, log)
	require.NoError(t, err)

	if limiter == nil {
		limiter = ratelimit.NewInterval(0)
	}

	client := favorites.NewClient(&cfg.API, log)
	return &harness{
		archiver: New(cfg, client, store, limiter, log),
		layout:   layout,
		log:      log,
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if !e.IsDir() && e.Name() != storage.LockFileName {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestRunArchivesOnlyPostsWithMedia(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "abc123", true), api.post(2, "gone", false)}

	h := newHarness(t, api, t.TempDir(), nil)
	stats, err := h.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, []string{"abc123.png"}, listDir(t, h.layout.MediaRoot))
	assert.Equal(t, []string{"abc123.json"}, listDir(t, h.layout.MetadataRoot))

	data, err := os.ReadFile(filepath.Join(h.layout.MediaRoot, "abc123.png"))
	require.NoError(t, err)
	assert.Equal(t, "media:abc123", string(data))

	record, err := metadata.Load(filepath.Join(h.layout.MetadataRoot, "abc123.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, record.ID)
	assert.Equal(t, filepath.Join(h.layout.MediaRoot, "abc123.png"), record.MediaPath)

	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 2, stats.Seen)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Zero(t, stats.Failed)
	assert.True(t, h.log.HasMessage("1 image to download"))
	assert.Equal(t, []int{1, 2}, api.requestedPages())
}

func TestRunIsIdempotent(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "aaa", true), api.post(2, "bbb", true)}
	root := t.TempDir()

	_, err := newHarness(t, api, root, nil).archiver.Run(1234)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&api.mediaHits))

	before, err := os.ReadFile(filepath.Join(root, "aaa.png"))
	require.NoError(t, err)

	second := newHarness(t, api, root, nil)
	stats, err := second.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&api.mediaHits), "second run must not fetch media")
	assert.Zero(t, stats.Downloaded)
	assert.True(t, second.log.HasMessage("No images to download"))

	after, err := os.ReadFile(filepath.Join(root, "aaa.png"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.ElementsMatch(t, []string{"aaa.png", "bbb.png"}, listDir(t, root))
}

func TestRunSkipsPrePopulatedMedia(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "abc123", true), api.post(2, "new1", true)}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "abc123.png"), []byte("existing"), 0644))

	h := newHarness(t, api, root, nil)
	_, err := h.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.mediaHits))
	data, err := os.ReadFile(filepath.Join(root, "abc123.png"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
	// pre-populated media gets no metadata written
	assert.Equal(t, []string{"new1.json"}, listDir(t, h.layout.MetadataRoot))
}

func TestRunFailsFastOnPageError(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "aaa", true)}
	api.pageStatus[2] = http.StatusInternalServerError
	api.pages[3] = []favorites.Post{api.post(3, "ccc", true)}

	h := newHarness(t, api, t.TempDir(), nil)
	stats, err := h.archiver.Run(1234)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch favorites page 2")
	assert.True(t, errors.IsType(err, errors.ErrorTypeStatus))
	assert.Equal(t, 500, errors.StatusCode(err))
	assert.Equal(t, []int{1, 2}, api.requestedPages(), "page 3 must never be requested")

	assert.Equal(t, []string{"aaa.png"}, listDir(t, h.layout.MediaRoot))
	assert.Equal(t, []string{"aaa.json"}, listDir(t, h.layout.MetadataRoot))
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Downloaded)
	assert.False(t, h.log.HasMessage("Archive run completed"))
}

func TestRunFailsOnMalformedPage(t *testing.T) {
	api := newFakeAPI(t)
	api.rawPage[1] = `{"posts": "nope"}`

	h := newHarness(t, api, t.TempDir(), nil)
	_, err := h.archiver.Run(1234)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParsing))
	assert.Contains(t, err.Error(), "fetch favorites page 1")
}

func TestRunStopsOnFirstEmptyPage(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "p1", true)}
	api.pages[2] = []favorites.Post{api.post(2, "p2", false)}
	api.pages[3] = []favorites.Post{api.post(3, "p3", true)}

	h := newHarness(t, api, t.TempDir(), nil)
	stats, err := h.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, api.requestedPages())
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 2, stats.Downloaded)
	assert.True(t, h.log.HasMessage("No images to download"))
}

func TestRunEmptyFavorites(t *testing.T) {
	api := newFakeAPI(t)

	h := newHarness(t, api, t.TempDir(), nil)
	stats, err := h.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, api.requestedPages())
	assert.Zero(t, stats.Pages)
	assert.Empty(t, listDir(t, h.layout.MediaRoot))
}

func TestRunContinuesAfterMediaFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "broken", true), api.post(2, "fine", true)}
	api.mediaStatus["broken"] = http.StatusNotFound

	h := newHarness(t, api, t.TempDir(), nil)
	stats, err := h.archiver.Run(1234)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, []string{"fine.png"}, listDir(t, h.layout.MediaRoot))
	assert.Equal(t, []string{"fine.json"}, listDir(t, h.layout.MetadataRoot))
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.mediaHits), "failed media is not retried")
	assert.True(t, h.log.HasMessage("Download failed"))
}

type countingLimiter struct {
	waits int32
	done  int32
}

func (c *countingLimiter) Allow() bool { return true }
func (c *countingLimiter) Wait()       { atomic.AddInt32(&c.waits, 1) }
func (c *countingLimiter) Done()       { atomic.AddInt32(&c.done, 1) }
func (c *countingLimiter) Reset()      {}

func TestRunGatesEveryRequest(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "a", true), api.post(2, "b", true)}
	api.pages[2] = []favorites.Post{api.post(3, "c", true)}

	limiter := &countingLimiter{}
	h := newHarness(t, api, t.TempDir(), limiter)
	_, err := h.archiver.Run(1234)
	require.NoError(t, err)

	// three page requests and three media requests
	assert.Equal(t, int32(6), atomic.LoadInt32(&limiter.waits))
	assert.Equal(t, int32(6), atomic.LoadInt32(&limiter.done))
}

func TestRunPausesAfterSlowRequests(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[1] = []favorites.Post{api.post(1, "a", true), api.post(2, "b", true)}
	api.mediaStatus["b"] = http.StatusNotFound
	api.mediaDelay = 200 * time.Millisecond

	interval := 100 * time.Millisecond
	h := newHarness(t, api, t.TempDir(), ratelimit.NewInterval(interval))
	_, err := h.archiver.Run(1234)
	require.NoError(t, err)

	requests := api.requests()
	require.Len(t, requests, 4)
	assert.Equal(t, favorites.FavoritesPath, requests[0].path)
	assert.Equal(t, "/data/a.png", requests[1].path)
	assert.Equal(t, "/data/b.png", requests[2].path)
	assert.Equal(t, favorites.FavoritesPath, requests[3].path)

	// every request, failed or not, is followed by a full pause
	for i := 1; i < len(requests); i++ {
		gap := requests[i].start.Sub(requests[i-1].end)
		assert.GreaterOrEqual(t, gap, interval, "pause before %s (request %d)", requests[i].path, i)
	}
}

func TestDownloadCountMessage(t *testing.T) {
	assert.Equal(t, "No images to download", downloadCountMessage(0))
	assert.Equal(t, "1 image to download", downloadCountMessage(1))
	assert.Equal(t, "75 images to download", downloadCountMessage(75))
}
