package favorites

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FavoritesPath is the listing endpoint, relative to the API base URL
const FavoritesPath = "/favorites.json"

// FavoritesURL builds the URL of one favorites page. Pages start at 1.
func FavoritesURL(baseURL string, userID, page int) string {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), FavoritesPath, params.Encode())
}
