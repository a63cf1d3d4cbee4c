package metadata

import (
	"os"
	"path/filepath"
	"sort"
)

// TagCount is a tag and how many archived posts carry it
type TagCount struct {
	Tag   string
	Count int
}

// Summary aggregates every metadata record in an archive
type Summary struct {
	Posts      int
	TotalBytes int64
	Ratings    map[string]int
	Pending    int
	Flagged    int
	Deleted    int
	// MissingMedia counts records whose media file is gone
	MissingMedia int
	// Unreadable counts files that could not be decoded
	Unreadable int
	// TopTags maps a tag category to its most used tags
	TopTags map[string][]TagCount
}

// Summarize reads <dir>/*.json and keeps the topN tags per category
func Summarize(dir string, topN int) (*Summary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Ratings: make(map[string]int),
		TopTags: make(map[string][]TagCount),
	}
	counts := make(map[string]map[string]int)

	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			summary.Unreadable++
			continue
		}

		summary.Posts++
		summary.TotalBytes += p.File.Size
		summary.Ratings[p.Rating]++
		if p.Flags.Pending {
			summary.Pending++
		}
		if p.Flags.Flagged {
			summary.Flagged++
		}
		if p.Flags.Deleted {
			summary.Deleted++
		}
		if _, err := os.Stat(p.MediaPath); err != nil {
			summary.MissingMedia++
		}

		for _, category := range p.Tags.Categories() {
			if counts[category.Name] == nil {
				counts[category.Name] = make(map[string]int)
			}
			for _, tag := range category.Tags {
				counts[category.Name][tag]++
			}
		}
	}

	for category, tags := range counts {
		if top := topTags(tags, topN); len(top) > 0 {
			summary.TopTags[category] = top
		}
	}

	return summary, nil
}

// topTags orders by count, then name, and truncates to n
func topTags(tags map[string]int, n int) []TagCount {
	ranked := make([]TagCount, 0, len(tags))
	for tag, count := range tags {
		ranked = append(ranked, TagCount{Tag: tag, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
