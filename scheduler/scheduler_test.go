package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/rag"
	"github.com/w-h-a/sourcerer/sources"
	"github.com/w-h-a/sourcerer/vectorstore"
	"github.com/w-h-a/sourcerer/vectorstore/flat"
)

type fixedEmbedder struct{}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0, 0}
	}
	return vecs, nil
}

func (e *fixedEmbedder) Dimension() int {
	return 3
}

type listingGenerator struct {
	calls int
}

func (g *listingGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
	return &generator.Response{Content: "ok"}, nil
}

func (g *listingGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	g.calls++
	return []generator.ModelInfo{{Id: "model-a"}, {Id: "model-b"}}, nil
}

func newFixture(t *testing.T) (*Scheduler, *sources.Store, *rag.Engine, vectorstore.VectorStore) {
	t.Helper()

	store := sources.NewStore(sources.WithDir(t.TempDir()))

	vectors := flat.NewStore(
		vectorstore.WithDir(t.TempDir()),
		vectorstore.WithDimension(3),
	)

	engine := rag.NewEngine(&fixedEmbedder{}, vectors, store)
	ingestion := sources.NewIngestion(store, engine)

	sched := NewScheduler(store, ingestion, engine, WithRetention(24*time.Hour))

	return sched, store, engine, vectors
}

func TestStartStop(t *testing.T) {
	sched, _, _, _ := newFixture(t)

	sched.Start()
	sched.Stop()

	// Stop is safe to call again
	sched.Stop()
}

func TestCleanupRemovesExpiredItemsAndCompacts(t *testing.T) {
	ctx := context.Background()

	sched, store, engine, vectors := newFixture(t)

	src, err := store.AddSource(ctx, sources.Source{
		Type:            sources.SourceTypeRSS,
		Url:             "https://example.com/feed.xml",
		Enabled:         true,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)

	old := time.Now().UTC().Add(-48 * time.Hour)

	fresh, err := store.UpsertItems(ctx, src.Id, []sources.Item{
		{Url: "https://example.com/old", Title: "Old", FetchedAt: old},
		{Url: "https://example.com/new", Title: "New"},
	})
	require.NoError(t, err)
	require.NoError(t, engine.IndexItems(ctx, fresh))

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Active)

	sched.cleanupOld(ctx)

	items, err := store.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New", items[0].Title)

	stats, err = vectors.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 0, stats.Deleted)
}

func TestModelsCachesProviderList(t *testing.T) {
	ctx := context.Background()

	store := sources.NewStore(sources.WithDir(t.TempDir()))

	vectors := flat.NewStore(
		vectorstore.WithDir(t.TempDir()),
		vectorstore.WithDimension(3),
	)

	engine := rag.NewEngine(&fixedEmbedder{}, vectors, store)
	ingestion := sources.NewIngestion(store, engine)

	gen := &listingGenerator{}
	sched := NewScheduler(store, ingestion, engine, WithGenerator(gen))

	// empty cache falls back to a live call
	models, err := sched.Models(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, 1, gen.calls)

	sched.refreshModels(ctx)
	assert.Equal(t, 2, gen.calls)

	// cached list is served without another provider call
	models, err = sched.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, "model-a", models[0].Id)
	assert.Equal(t, 2, gen.calls)
}

func TestModelsWithoutGenerator(t *testing.T) {
	sched, _, _, _ := newFixture(t)

	models, err := sched.Models(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}
