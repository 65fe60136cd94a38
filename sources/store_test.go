package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(WithDir(t.TempDir()))
}

func addFeed(t *testing.T, store *Store, name string) Source {
	t.Helper()

	src, err := store.AddSource(context.Background(), Source{
		Name:            name,
		Type:            SourceTypeRSS,
		Url:             "https://example.com/" + name + ".xml",
		Enabled:         true,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)
	require.NotEmpty(t, src.Id)

	return src
}

func TestSourceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := addFeed(t, store, "go-blog")

	got, err := store.Source(ctx, src.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "go-blog", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	src.Name = "golang-blog"
	require.NoError(t, store.UpdateSource(ctx, src))

	got, err = store.Source(ctx, src.Id)
	require.NoError(t, err)
	assert.Equal(t, "golang-blog", got.Name)

	err = store.UpdateSource(ctx, Source{Id: "missing"})
	require.ErrorIs(t, err, ErrSourceNotFound)

	_, err = store.RemoveSource(ctx, src.Id)
	require.NoError(t, err)

	_, err = store.RemoveSource(ctx, src.Id)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestUpsertItemsReturnsOnlyFresh(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := addFeed(t, store, "feed")

	items := []Item{
		{Url: "https://example.com/one", Title: "One"},
		{Url: "https://example.com/two", Title: "Two"},
	}

	fresh, err := store.UpsertItems(ctx, src.Id, items)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	// an already known url is updated but not reported fresh
	fresh, err = store.UpsertItems(ctx, src.Id, []Item{
		{Url: "https://example.com/one", Title: "One updated"},
		{Url: "https://example.com/three", Title: "Three"},
	})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Three", fresh[0].Title)

	got, err := store.Item(ctx, ItemId("https://example.com/one"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "One updated", got.Title)
	assert.Equal(t, src.Id, got.SourceId)

	_, err = store.UpsertItems(ctx, "missing", items)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestUpsertItemsStampsLastRefreshed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := addFeed(t, store, "feed")

	_, err := store.UpsertItems(ctx, src.Id, []Item{{Url: "https://example.com/a"}})
	require.NoError(t, err)

	got, err := store.Source(ctx, src.Id)
	require.NoError(t, err)
	assert.False(t, got.LastRefreshed.IsZero())

	due, err := store.DueForRefresh(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.DueForRefresh(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestRemoveSourceReturnsItemIds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src1 := addFeed(t, store, "first")
	src2 := addFeed(t, store, "second")

	_, err := store.UpsertItems(ctx, src1.Id, []Item{
		{Url: "https://example.com/1a"},
		{Url: "https://example.com/1b"},
	})
	require.NoError(t, err)

	_, err = store.UpsertItems(ctx, src2.Id, []Item{{Url: "https://example.com/2a"}})
	require.NoError(t, err)

	removed, err := store.RemoveSource(ctx, src1.Id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ItemId("https://example.com/1a"), ItemId("https://example.com/1b")}, removed)

	// the other source's item is untouched
	got, err := store.Item(ctx, ItemId("https://example.com/2a"))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRemoveItemsBefore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := addFeed(t, store, "feed")

	old := time.Now().UTC().Add(-48 * time.Hour)

	_, err := store.UpsertItems(ctx, src.Id, []Item{
		{Url: "https://example.com/old", FetchedAt: old},
		{Url: "https://example.com/new"},
	})
	require.NoError(t, err)

	removed, err := store.RemoveItemsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{ItemId("https://example.com/old")}, removed)

	got, err := store.Item(ctx, ItemId("https://example.com/new"))
	require.NoError(t, err)
	assert.NotNil(t, got)

	// nothing left to remove
	removed, err = store.RemoveItemsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestSearchItemsScoresTitleOverBody(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	src := addFeed(t, store, "feed")

	_, err := store.UpsertItems(ctx, src.Id, []Item{
		{Url: "https://example.com/a", Title: "Generics in Go", Content: "about type parameters"},
		{Url: "https://example.com/b", Title: "Weekly digest", Content: "covering generics briefly"},
		{Url: "https://example.com/c", Title: "Unrelated", Content: "nothing here"},
	})
	require.NoError(t, err)

	results, err := store.SearchItems(ctx, "generics", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Generics in Go", results[0].Title)
	assert.Equal(t, "Weekly digest", results[1].Title)

	results, err = store.SearchItems(ctx, "   ", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewStore(WithDir(dir))
	src := addFeed(t, store, "feed")

	_, err := store.UpsertItems(ctx, src.Id, []Item{{Url: "https://example.com/a", Title: "A"}})
	require.NoError(t, err)

	reopened := NewStore(WithDir(dir))

	got, err := reopened.Source(ctx, src.Id)
	require.NoError(t, err)
	require.NotNil(t, got)

	item, err := reopened.Item(ctx, ItemId("https://example.com/a"))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "A", item.Title)
}
