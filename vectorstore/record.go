package vectorstore

import "time"

// Metadata describes one embedded item. ItemId is the stable external
// identifier; at most one non-deleted slot per ItemId exists at any time.
type Metadata struct {
	ItemId      string    `json:"item_id"`
	Title       string    `json:"title,omitempty"`
	Url         string    `json:"url,omitempty"`
	SourceId    string    `json:"source_id,omitempty"`
	Author      string    `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	TextHash    string    `json:"text_hash,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// SearchResult is a per-query copy of a slot's metadata plus its cosine
// similarity to the query in [-1, 1].
type SearchResult struct {
	Metadata
	Similarity float32 `json:"similarity"`
}
