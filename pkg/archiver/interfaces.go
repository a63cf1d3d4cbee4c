package archiver

import (
	"io"

	"favarchive/pkg/favorites"
	"favarchive/pkg/storage"
)

// FavoritesClient defines the remote operations an archive run needs
type FavoritesClient interface {
	FetchFavorites(userID, page int) (*favorites.Page, error)
	FetchMedia(url string) (io.ReadCloser, error)
}

// Store defines the archive storage an archive run writes to
type Store interface {
	Layout() storage.Layout
	Eligible(posts []storage.HydratedPost) []storage.HydratedPost
	SaveMedia(p storage.HydratedPost, r io.Reader) (int64, error)
}
