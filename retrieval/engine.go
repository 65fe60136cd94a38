package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/w-h-a/sourcerer/embedder"
	"github.com/w-h-a/sourcerer/vectorstore"
)

// Engine turns a free-text query into ranked, enriched context. Results are
// ordered by descending similarity; ties keep the store's order.
type Engine struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	items    ItemStore
}

func (e *Engine) RetrieveContext(ctx context.Context, query string, opts ...RetrieveOption) ([]ContextItem, error) {
	options := NewRetrieveOptions(opts...)

	if len(strings.TrimSpace(query)) == 0 {
		return nil, nil
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	// over-fetch so source filtering still leaves enough hits
	results, err := e.store.Search(ctx, vector, options.MaxItems*2, options.MinSimilarity)
	if err != nil {
		return nil, err
	}

	if len(options.Sources) > 0 {
		allowed := map[string]bool{}
		for _, id := range options.Sources {
			allowed[id] = true
		}

		filtered := results[:0]
		for _, result := range results {
			if allowed[result.SourceId] {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	if len(results) > options.MaxItems {
		results = results[:options.MaxItems]
	}

	enriched := make([]ContextItem, 0, len(results))

	for _, result := range results {
		item, err := e.items.Item(ctx, result.ItemId)
		if err != nil {
			slog.WarnContext(ctx, "failed to resolve item", "item_id", result.ItemId, "error", err)
			continue
		}
		if item == nil {
			// stale index entry
			continue
		}

		ci := ContextItem{
			ItemId:     result.ItemId,
			Similarity: result.Similarity,
			Title:      item.Title,
			Content:    item.Content,
			Summary:    item.Summary,
			Url:        item.Url,
			SourceId:   result.SourceId,
			Author:     item.Author,
			Tags:       item.Tags,
		}

		if !item.PublishedAt.IsZero() {
			ci.PublishedAt = item.PublishedAt.Format(time.RFC3339)
		}

		enriched = append(enriched, ci)
	}

	slog.DebugContext(ctx, "retrieved context", "query_len", len(query), "hits", len(enriched))

	return enriched, nil
}

func NewEngine(embedder embedder.Embedder, store vectorstore.VectorStore, items ItemStore) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		items:    items,
	}
}
