package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats tracks the progress of one archive run
type Stats struct {
	Pages      int
	Seen       int
	Eligible   int
	Downloaded int
	Failed     int
	Bytes      int64
	StartTime  time.Time
}

// NewStats creates a tracker starting now
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// RecordPage counts a non-empty page and how many of its posts need fetching
func (s *Stats) RecordPage(seen, eligible int) {
	s.Pages++
	s.Seen += seen
	s.Eligible += eligible
}

// RecordDownload counts an archived post
func (s *Stats) RecordDownload(size int64) {
	s.Downloaded++
	s.Bytes += size
}

// RecordFailure counts a post that could not be archived
func (s *Stats) RecordFailure() {
	s.Failed++
}

// Elapsed returns the time since the run started
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// DownloadRate returns archived posts per minute
func (s *Stats) DownloadRate() float64 {
	elapsed := s.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(s.Downloaded) / elapsed
}

// String summarizes the run on one line
func (s *Stats) String() string {
	return fmt.Sprintf("%d pages, %d favorites, %d downloaded (%s), %d failed",
		s.Pages, s.Seen, s.Downloaded, humanize.Bytes(uint64(s.Bytes)), s.Failed)
}

// PrintSummary prints the run totals
func (s *Stats) PrintSummary() {
	PrintInfo("Pages", fmt.Sprintf("%d", s.Pages))
	PrintInfo("Favorites seen", fmt.Sprintf("%d", s.Seen))
	PrintInfo("Downloaded", fmt.Sprintf("%d (%s)", s.Downloaded, humanize.Bytes(uint64(s.Bytes))))
	if s.Failed > 0 {
		PrintWarning("Failed", s.Failed)
	}
	PrintInfo("Elapsed", s.Elapsed().Round(time.Second).String())
	if s.Downloaded > 0 {
		PrintInfo("Rate", fmt.Sprintf("%.1f posts/min", s.DownloadRate()))
	}
}
