package rag

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/sourcerer/sources"
	"github.com/w-h-a/sourcerer/vectorstore"
	"github.com/w-h-a/sourcerer/vectorstore/flat"
)

type stubEmbedder struct {
	vectors map[string][]float32
	embeds  int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embeds++
	return s.lookup(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		s.embeds++
		vecs = append(vecs, s.lookup(text))
	}
	return vecs, nil
}

func (s *stubEmbedder) Dimension() int {
	return 3
}

func (s *stubEmbedder) lookup(text string) []float32 {
	for key, vec := range s.vectors {
		if key != "" && len(text) >= len(key) && text[:len(key)] == key {
			return vec
		}
	}
	return []float32{0, 0, 1}
}

type memoryCatalog struct {
	items map[string]sources.Item
}

func (c *memoryCatalog) Item(ctx context.Context, itemId string) (*sources.Item, error) {
	item, ok := c.items[itemId]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (c *memoryCatalog) Items(ctx context.Context) ([]sources.Item, error) {
	list := make([]sources.Item, 0, len(c.items))
	for _, item := range c.items {
		list = append(list, item)
	}
	return list, nil
}

func newTestEngine(t *testing.T, catalog *memoryCatalog) (*Engine, vectorstore.VectorStore, *stubEmbedder) {
	t.Helper()

	emb := &stubEmbedder{vectors: map[string][]float32{}}

	store := flat.NewStore(
		vectorstore.WithDir(t.TempDir()),
		vectorstore.WithDimension(3),
	)

	return NewEngine(emb, store, catalog), store, emb
}

func TestIndexItemsIsIdempotent(t *testing.T) {
	ctx := context.Background()

	items := []sources.Item{
		{Id: "a", Title: "Alpha", Content: "alpha content", SourceId: "s1"},
		{Id: "b", Title: "Beta", Content: "beta content", SourceId: "s1"},
	}

	catalog := &memoryCatalog{items: map[string]sources.Item{"a": items[0], "b": items[1]}}
	engine, store, emb := newTestEngine(t, catalog)

	require.NoError(t, engine.IndexItems(ctx, items))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)

	embedsAfterFirst := emb.embeds

	// a second pass finds everything indexed and embeds nothing
	require.NoError(t, engine.IndexItems(ctx, items))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, embedsAfterFirst, emb.embeds)
}

func TestIndexItemsSkipsEmptyText(t *testing.T) {
	ctx := context.Background()

	catalog := &memoryCatalog{items: map[string]sources.Item{}}
	engine, store, emb := newTestEngine(t, catalog)

	require.NoError(t, engine.IndexItems(ctx, []sources.Item{
		{Id: "empty"},
		{Id: "real", Title: "Something"},
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, emb.embeds)

	md, err := store.EmbeddingMetadata(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestUpdateItemIndexReplacesVector(t *testing.T) {
	ctx := context.Background()

	catalog := &memoryCatalog{items: map[string]sources.Item{}}
	engine, store, emb := newTestEngine(t, catalog)

	emb.vectors["Title: Original"] = []float32{1, 0, 0}
	emb.vectors["Title: Updated"] = []float32{0, 1, 0}

	require.NoError(t, engine.IndexItems(ctx, []sources.Item{{Id: "a", Title: "Original"}}))
	require.NoError(t, engine.UpdateItemIndex(ctx, sources.Item{Id: "a", Title: "Updated"}))

	results, err := store.Search(ctx, []float32{0, 1, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ItemId)

	results, err = store.Search(ctx, []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = engine.UpdateItemIndex(ctx, sources.Item{Id: "a"})
	require.Error(t, err)
}

func TestRemoveItemIndex(t *testing.T) {
	ctx := context.Background()

	catalog := &memoryCatalog{items: map[string]sources.Item{}}
	engine, store, _ := newTestEngine(t, catalog)

	require.NoError(t, engine.IndexItems(ctx, []sources.Item{{Id: "a", Title: "Alpha"}}))
	require.NoError(t, engine.RemoveItemIndex(ctx, "a"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 1, stats.Deleted)
}

func TestBulkReindexForceRebuildsEverything(t *testing.T) {
	ctx := context.Background()

	items := map[string]sources.Item{
		"a": {Id: "a", Title: "Alpha"},
		"b": {Id: "b", Title: "Beta"},
	}
	catalog := &memoryCatalog{items: items}
	engine, store, _ := newTestEngine(t, catalog)

	indexed, err := engine.BulkReindex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)

	// incremental reindex has nothing to do
	indexed, err = engine.BulkReindex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, indexed)

	require.NoError(t, engine.RemoveItemIndex(ctx, "a"))

	indexed, err = engine.BulkReindex(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 0, stats.Deleted)
}

func TestContextForGeneration(t *testing.T) {
	ctx := context.Background()

	items := map[string]sources.Item{
		"a": {Id: "a", Title: "Alpha", Content: "alpha content"},
	}
	catalog := &memoryCatalog{items: items}
	engine, _, emb := newTestEngine(t, catalog)

	emb.vectors["Title: Alpha"] = []float32{1, 0, 0}
	emb.vectors["alpha?"] = []float32{1, 0, 0}

	require.NoError(t, engine.IndexItems(ctx, []sources.Item{items["a"]}))

	bundle, err := engine.ContextForGeneration(ctx, "alpha?", 0)
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.Equal(t, 1, bundle.Count)
	assert.Equal(t, "alpha?", bundle.Query)
	assert.Contains(t, bundle.Prompt, "Title: Alpha")
	assert.Contains(t, bundle.Prompt, "Query: alpha?")
}

func TestCombinedTextCapsOnRuneBoundary(t *testing.T) {
	e := &Engine{options: NewOptions()}

	item := sources.Item{
		Id:      "x",
		Title:   "Unicode",
		Content: strings.Repeat("语", e.options.MaxContentChars),
	}

	text := e.combinedText(item)
	assert.True(t, utf8.ValidString(text))
	assert.LessOrEqual(t, len(text), e.options.MaxContentChars+len("Title: Unicode\nContent: "))
}
