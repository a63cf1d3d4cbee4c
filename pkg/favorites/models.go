package favorites

import (
	"encoding/json"
	"fmt"
)

// Page is one page of a user's favorites, in API order
type Page struct {
	Posts []Post `json:"posts"`
}

// UnmarshalJSON rejects bodies without a posts array so a malformed page is
// never mistaken for the empty page that ends a walk.
func (p *Page) UnmarshalJSON(data []byte) error {
	var raw struct {
		Posts *[]Post `json:"posts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Posts == nil {
		return fmt.Errorf("missing posts array")
	}
	p.Posts = *raw.Posts
	return nil
}

// Post is a single favorited item. Timestamps are kept exactly as the API
// sent them.
type Post struct {
	ID        int    `json:"id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	File      File   `json:"file"`
	Tags      Tags   `json:"tags"`
	Rating    string `json:"rating"`
	Flags     Flags  `json:"flags"`
}

// HasMedia reports whether the post still points at a downloadable file
func (p Post) HasMedia() bool {
	return p.File.URL != ""
}

// File describes the media behind a post. URL is empty when the remote file
// has been removed.
type File struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int64  `json:"size"`
	MD5    string `json:"md5"`
	URL    string `json:"url"`
}

// Tags groups a post's tags by category
type Tags struct {
	General   []string `json:"general"`
	Species   []string `json:"species"`
	Character []string `json:"character"`
	Copyright []string `json:"copyright"`
	Artist    []string `json:"artist"`
	Invalid   []string `json:"invalid"`
	Lore      []string `json:"lore"`
	Meta      []string `json:"meta"`
}

// Categories returns the tag lists keyed by category name, in display order
func (t Tags) Categories() []TagCategory {
	return []TagCategory{
		{"artist", t.Artist},
		{"character", t.Character},
		{"copyright", t.Copyright},
		{"species", t.Species},
		{"general", t.General},
		{"lore", t.Lore},
		{"meta", t.Meta},
		{"invalid", t.Invalid},
	}
}

// TagCategory is one named group of tags
type TagCategory struct {
	Name string
	Tags []string
}

// Flags carries moderation state
type Flags struct {
	Pending bool `json:"pending"`
	Flagged bool `json:"flagged"`
	Deleted bool `json:"deleted"`
}
