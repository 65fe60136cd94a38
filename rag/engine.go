package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/w-h-a/sourcerer/embedder"
	"github.com/w-h-a/sourcerer/retrieval"
	"github.com/w-h-a/sourcerer/sources"
	"github.com/w-h-a/sourcerer/vectorstore"
)

// ItemCatalog is the slice of the source store the engine needs for reindexing.
type ItemCatalog interface {
	Item(ctx context.Context, itemId string) (*sources.Item, error)
	Items(ctx context.Context) ([]sources.Item, error)
}

// GenerationContext bundles retrieved research for a downstream generation call.
type GenerationContext struct {
	Prompt string                  `json:"prompt"`
	Items  []retrieval.ContextItem `json:"items"`
	Count  int                     `json:"count"`
	Query  string                  `json:"query"`
}

// Engine keeps the vector index in step with the item catalog and exposes
// semantic search and context assembly on top of it.
type Engine struct {
	options   Options
	embedder  embedder.Embedder
	store     vectorstore.VectorStore
	retrieval *retrieval.Engine
	catalog   ItemCatalog
}

// IndexItems embeds and indexes the given items, skipping any that are
// already indexed or that have no usable text. Individual batch failures
// are logged and skipped so one bad provider call does not sink the run.
func (e *Engine) IndexItems(ctx context.Context, items []sources.Item) error {
	pending := []sources.Item{}
	texts := []string{}

	for _, item := range items {
		md, err := e.store.EmbeddingMetadata(ctx, item.Id)
		if err != nil {
			slog.WarnContext(ctx, "failed to check index state", "item", item.Id, "error", err)
			continue
		}

		if md != nil {
			continue
		}

		text := e.combinedText(item)
		if text == "" {
			slog.WarnContext(ctx, "skipping item with no text", "item", item.Id)
			continue
		}

		pending = append(pending, item)
		texts = append(texts, text)
	}

	if len(pending) == 0 {
		return nil
	}

	indexed := 0

	for start := 0; start < len(pending); start += e.options.BatchSize {
		end := min(start+e.options.BatchSize, len(pending))

		vectors, err := e.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			slog.ErrorContext(ctx, "failed to embed batch", "from", start, "to", end, "error", err)
			continue
		}

		metadata := make([]vectorstore.Metadata, 0, end-start)

		for i, item := range pending[start:end] {
			metadata = append(metadata, e.itemMetadata(item, texts[start+i]))
		}

		if err := e.store.AddEmbeddings(ctx, vectors, metadata); err != nil {
			slog.ErrorContext(ctx, "failed to index batch", "from", start, "to", end, "error", err)
			continue
		}

		indexed += end - start
	}

	slog.InfoContext(ctx, "indexed items", "indexed", indexed, "candidates", len(pending))

	return nil
}

// UpdateItemIndex re-embeds a single item and replaces its vector.
func (e *Engine) UpdateItemIndex(ctx context.Context, item sources.Item) error {
	text := e.combinedText(item)
	if text == "" {
		return fmt.Errorf("item %s has no text to index", item.Id)
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}

	return e.store.UpdateEmbedding(ctx, item.Id, vector, e.itemMetadata(item, text))
}

// RemoveItemIndex drops an item from the index.
func (e *Engine) RemoveItemIndex(ctx context.Context, itemId string) error {
	return e.store.RemoveEmbedding(ctx, itemId)
}

// RemoveItemIndexes drops a set of items, logging rather than failing on
// ids that were never indexed.
func (e *Engine) RemoveItemIndexes(ctx context.Context, itemIds []string) {
	for _, id := range itemIds {
		if err := e.store.RemoveEmbedding(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to de-index item", "item", id, "error", err)
		}
	}
}

// SearchSimilarContent runs a semantic search over the indexed items.
func (e *Engine) SearchSimilarContent(ctx context.Context, query string, opts ...retrieval.RetrieveOption) ([]retrieval.ContextItem, error) {
	merged := append([]retrieval.RetrieveOption{
		retrieval.WithMaxItems(e.options.MaxContextItems),
		retrieval.WithMinSimilarity(e.options.MinSimilarity),
	}, opts...)

	return e.retrieval.RetrieveContext(ctx, query, merged...)
}

// ContextForGeneration gathers research context for a generation query. It
// uses a looser similarity threshold than interactive search so that thin
// indexes still produce something to write from.
func (e *Engine) ContextForGeneration(ctx context.Context, query string, maxItems int) (*GenerationContext, error) {
	if maxItems <= 0 {
		maxItems = e.options.MaxContextItems
	}

	items, err := e.retrieval.RetrieveContext(
		ctx,
		query,
		retrieval.WithMaxItems(maxItems),
		retrieval.WithMinSimilarity(e.options.GenerationMinSim),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationContext{
		Prompt: retrieval.ContextPrompt(query, items, retrieval.DefaultMaxContextLength),
		Items:  items,
		Count:  len(items),
		Query:  query,
	}, nil
}

// BulkReindex indexes every item in the catalog. With force set the index
// is reset first so everything is re-embedded from scratch; otherwise only
// unindexed items are picked up.
func (e *Engine) BulkReindex(ctx context.Context, force bool) (int, error) {
	items, err := e.catalog.Items(ctx)
	if err != nil {
		return 0, err
	}

	if force {
		if err := e.store.Reset(ctx); err != nil {
			return 0, err
		}
	}

	before, err := e.store.Stats(ctx)
	if err != nil {
		return 0, err
	}

	if err := e.IndexItems(ctx, items); err != nil {
		return 0, err
	}

	after, err := e.store.Stats(ctx)
	if err != nil {
		return 0, err
	}

	return after.Active - before.Active, nil
}

// Cleanup compacts the index by physically removing soft deleted entries.
func (e *Engine) Cleanup(ctx context.Context) error {
	return e.store.CleanupDeleted(ctx)
}

func (e *Engine) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return e.store.Stats(ctx)
}

func (e *Engine) combinedText(item sources.Item) string {
	parts := []string{}

	if title := strings.TrimSpace(item.Title); title != "" {
		parts = append(parts, "Title: "+title)
	}

	if summary := strings.TrimSpace(item.Summary); summary != "" {
		parts = append(parts, "Summary: "+summary)
	}

	if content := strings.TrimSpace(item.Content); content != "" {
		if len(content) > e.options.MaxContentChars {
			cut := e.options.MaxContentChars
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		parts = append(parts, "Content: "+content)
	}

	return strings.Join(parts, "\n")
}

func (e *Engine) itemMetadata(item sources.Item, text string) vectorstore.Metadata {
	sum := sha256.Sum256([]byte(text))

	return vectorstore.Metadata{
		ItemId:      item.Id,
		Title:       item.Title,
		Url:         item.Url,
		SourceId:    item.SourceId,
		Author:      item.Author,
		Tags:        item.Tags,
		TextHash:    hex.EncodeToString(sum[:])[:16],
		PublishedAt: item.PublishedAt,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewEngine(emb embedder.Embedder, store vectorstore.VectorStore, catalog ItemCatalog, opts ...Option) *Engine {
	options := NewOptions(opts...)

	return &Engine{
		options:   options,
		embedder:  emb,
		store:     store,
		catalog:   catalog,
		retrieval: retrieval.NewEngine(emb, store, catalog),
	}
}
