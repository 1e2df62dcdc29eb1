package entities

import "time"

// Page is a stored wiki page, keyed by its storage title
type Page struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	EditSummary string    `json:"editSummary,omitempty"`
	Revision    int       `json:"revision"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NavManual is one manual's row in a navigation payload
type NavManual struct {
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Categories  string `json:"categories"`
	Description string `json:"description"`
	FirstTitle  string `json:"firstTitle"`
	FirstURL    string `json:"firstUrl"`
}

// NavCacheEntry is the cached navigation structure of a (product, version)
type NavCacheEntry struct {
	Key          string        `json:"key"`
	Product      string        `json:"product"`
	Version      string        `json:"version"`
	Manuals      []NavManual   `json:"manuals"`
	InsertedAt   time.Time     `json:"insertedAt"`
	TTL          time.Duration `json:"ttl"`
	EarlyRefresh time.Duration `json:"earlyRefresh"`
}
