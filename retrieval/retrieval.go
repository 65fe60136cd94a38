package retrieval

import (
	"context"

	"github.com/w-h-a/sourcerer/sources"
)

// ItemStore resolves item ids from search hits back to full content. The
// catalog of valid ids is owned elsewhere and may be stale relative to the
// vector index.
type ItemStore interface {
	Item(ctx context.Context, itemId string) (*sources.Item, error)
}

// ContextItem is an enriched search hit ready for prompt assembly.
type ContextItem struct {
	ItemId      string   `json:"item_id"`
	Similarity  float32  `json:"similarity"`
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Url         string   `json:"url,omitempty"`
	SourceId    string   `json:"source_id,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
}
