// Package favorites is the client for a paginated favorites API and the media
// host it links to.
//
// FetchFavorites returns one Page per call; an empty Page means the listing is
// exhausted. FetchMedia streams a single media file. Errors are *errors.Error
// values classified as network, status or parsing failures:
//
//	client := favorites.NewClient(&cfg.API, log)
//	page, err := client.FetchFavorites(userID, 1)
//	if errors.IsType(err, errors.ErrorTypeStatus) {
//	    // non-2xx from the API
//	}
package favorites
