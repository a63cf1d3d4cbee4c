package favorites

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFavoritesURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		userID  int
		page    int
		want    string
	}{
		{"plain base", "https://e621.net", 1234, 1, "https://e621.net/favorites.json?page=1&user_id=1234"},
		{"trailing slash", "https://e621.net/", 7, 12, "https://e621.net/favorites.json?page=12&user_id=7"},
		{"base with path", "http://127.0.0.1:8080/api", 1, 3, "http://127.0.0.1:8080/api/favorites.json?page=3&user_id=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FavoritesURL(tt.baseURL, tt.userID, tt.page))
		})
	}
}
