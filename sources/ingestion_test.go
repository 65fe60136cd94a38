package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	indexed []Item
}

func (r *recordingIndexer) IndexItems(ctx context.Context, items []Item) error {
	r.indexed = append(r.indexed, items...)
	return nil
}

func TestRefreshSourceIngestsAndIndexes(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	store := NewStore(WithDir(t.TempDir()))
	indexer := &recordingIndexer{}
	ingestion := NewIngestion(store, indexer)

	src, err := store.AddSource(ctx, Source{
		Name:            "feed",
		Type:            SourceTypeRSS,
		Url:             srv.URL,
		Enabled:         true,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)

	fresh, err := ingestion.RefreshSource(ctx, src.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh)
	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, "First Post", indexer.indexed[0].Title)

	// a second refresh finds nothing new and indexes nothing
	fresh, err = ingestion.RefreshSource(ctx, src.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh)
	assert.Len(t, indexer.indexed, 1)

	_, err = ingestion.RefreshSource(ctx, "missing")
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestRefreshAllSkipsSourcesNotDue(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	store := NewStore(WithDir(t.TempDir()))
	ingestion := NewIngestion(store, nil)

	_, err := store.AddSource(ctx, Source{
		Name:            "feed",
		Type:            SourceTypeRSS,
		Url:             srv.URL,
		Enabled:         true,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)

	fresh, err := ingestion.RefreshAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh)

	// just refreshed, so nothing is due
	fresh, err = ingestion.RefreshAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh)

	// force ignores the schedule but the items are already known
	fresh, err = ingestion.RefreshAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh)
}

func TestRefreshAllToleratesBrokenSource(t *testing.T) {
	ctx := context.Background()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := NewStore(WithDir(t.TempDir()))
	ingestion := NewIngestion(store, nil)

	for _, url := range []string{good.URL, bad.URL} {
		_, err := store.AddSource(ctx, Source{
			Type:            SourceTypeRSS,
			Url:             url,
			Enabled:         true,
			RefreshInterval: time.Hour,
		})
		require.NoError(t, err)
	}

	fresh, err := ingestion.RefreshAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh)
}

func TestApplyFilters(t *testing.T) {
	items := []Item{
		{Title: "Go 1.25 Released", Content: "The latest Go release."},
		{Title: "Weekly Recipes", Content: "Cooking with lentils."},
		{Title: "Compilers", Summary: "A golang compiler deep dive."},
	}

	kept := applyFilters(Source{Filters: []string{"go", "rust"}}, items)
	require.Len(t, kept, 2)
	assert.Equal(t, "Go 1.25 Released", kept[0].Title)
	assert.Equal(t, "Compilers", kept[1].Title)

	// no filters keeps everything
	assert.Len(t, applyFilters(Source{}, items), 3)

	// no matches keeps nothing
	assert.Empty(t, applyFilters(Source{Filters: []string{"kubernetes"}}, items))
}
