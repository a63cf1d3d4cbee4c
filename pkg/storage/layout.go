package storage

import (
	"path/filepath"

	"favarchive/pkg/favorites"
)

// Layout maps posts onto the archive's on-disk tree
type Layout struct {
	MediaRoot    string
	MetadataRoot string
}

// HydratedPost is a post together with where it lives in the archive.
// Paths are fixed at hydration and never change afterwards.
type HydratedPost struct {
	favorites.Post
	MediaPath    string `json:"media_path"`
	MetadataPath string `json:"metadata_path"`
}

// NewLayout creates a layout rooted at the given directories
func NewLayout(mediaRoot, metadataRoot string) Layout {
	return Layout{
		MediaRoot:    mediaRoot,
		MetadataRoot: metadataRoot,
	}
}

// MediaPath returns <media_root>/<md5>.<ext>
func (l Layout) MediaPath(checksum, ext string) string {
	return filepath.Join(l.MediaRoot, checksum+"."+ext)
}

// MetadataPath returns <metadata_root>/<md5>.json
func (l Layout) MetadataPath(checksum string) string {
	return filepath.Join(l.MetadataRoot, checksum+".json")
}

// Hydrate derives both paths for p. It performs no I/O.
func (l Layout) Hydrate(p favorites.Post) HydratedPost {
	return HydratedPost{
		Post:         p,
		MediaPath:    l.MediaPath(p.File.MD5, p.File.Ext),
		MetadataPath: l.MetadataPath(p.File.MD5),
	}
}

// HydrateAll hydrates a page of posts, preserving order
func (l Layout) HydrateAll(posts []favorites.Post) []HydratedPost {
	hydrated := make([]HydratedPost, 0, len(posts))
	for _, p := range posts {
		hydrated = append(hydrated, l.Hydrate(p))
	}
	return hydrated
}
