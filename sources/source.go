package sources

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypeHTML SourceType = "html"
)

// Source is a configured external feed or page to aggregate from.
type Source struct {
	Id              string        `json:"id"`
	Name            string        `json:"name"`
	Type            SourceType    `json:"type"`
	Url             string        `json:"url"`
	Enabled         bool          `json:"enabled"`
	Filters         []string      `json:"filters,omitempty"`
	RefreshInterval time.Duration `json:"refresh_interval"`
	LastRefreshed   time.Time     `json:"last_refreshed,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Item is one piece of aggregated content. Id is derived from the item URL
// so re-ingesting the same article is a natural no-op.
type Item struct {
	Id          string    `json:"id"`
	SourceId    string    `json:"source_id"`
	Title       string    `json:"title"`
	Url         string    `json:"url"`
	Content     string    `json:"content,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Author      string    `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ItemId hashes a URL into a stable, short identifier.
func ItemId(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}
