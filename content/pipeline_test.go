package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/sources"
)

type scriptedGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *scriptedGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
	g.prompts = append(g.prompts, messages[len(messages)-1].Content)
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Response{Content: g.response, Model: "scripted"}, nil
}

func (g *scriptedGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	return nil, nil
}

type fixedCatalog struct {
	items map[string]sources.Item
}

func (c *fixedCatalog) Item(ctx context.Context, itemId string) (*sources.Item, error) {
	item, exists := c.items[itemId]
	if !exists {
		return nil, nil
	}
	return &item, nil
}

func (c *fixedCatalog) Items(ctx context.Context) ([]sources.Item, error) {
	all := make([]sources.Item, 0, len(c.items))
	for _, item := range c.items {
		all = append(all, item)
	}
	return all, nil
}

func testItem() sources.Item {
	return sources.Item{
		Id:          "item-1",
		SourceId:    "src-1",
		Title:       "Go 1.25 Released",
		Url:         "https://example.com/go125",
		Content:     "The Go team released version 1.25 with runtime improvements.",
		Summary:     "A new Go release.",
		Tags:        []string{"golang"},
		PublishedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestPipeline(t *testing.T, gen generator.Generator) *Pipeline {
	t.Helper()

	catalog := &fixedCatalog{items: map[string]sources.Item{"item-1": testItem()}}

	return NewPipeline(gen, nil, catalog, WithDir(t.TempDir()))
}

func TestGeneratePersistsSummaryPackage(t *testing.T) {
	ctx := context.Background()

	gen := &scriptedGenerator{response: "A thorough analysis of the release."}
	pipeline := newTestPipeline(t, gen)

	pkg, err := pipeline.Generate(ctx, Request{ItemId: "item-1"})
	require.NoError(t, err)
	require.Len(t, pkg.Contents, 1)

	summary := pkg.Contents[0]
	assert.Equal(t, TypeSummary, summary.Type)
	assert.Equal(t, "Summary: Go 1.25 Released", summary.Title)
	assert.Equal(t, "A thorough analysis of the release.", summary.Content)
	assert.Len(t, pkg.Id, 12)

	// the package is readable back from disk
	loaded, err := pipeline.Package(ctx, pkg.Id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, pkg.ItemId, loaded.ItemId)
	assert.Len(t, loaded.Contents, 1)
}

func TestGenerateUnknownItem(t *testing.T) {
	pipeline := newTestPipeline(t, &scriptedGenerator{response: "x"})

	_, err := pipeline.Generate(context.Background(), Request{ItemId: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGenerateScriptsPerPlatform(t *testing.T) {
	gen := &scriptedGenerator{response: "1. Hook them early."}
	pipeline := newTestPipeline(t, gen)

	pkg, err := pipeline.Generate(context.Background(), Request{
		ItemId:    "item-1",
		Types:     []Type{TypeScripts},
		Platforms: []string{"x", "youtube", "myspace"},
	})
	require.NoError(t, err)
	require.Len(t, pkg.Contents, 1)

	scripts := pkg.Contents[0]
	assert.Equal(t, TypeScripts, scripts.Type)
	require.Len(t, scripts.Scripts, 2)
	assert.Equal(t, "x", scripts.Scripts[0].Platform)
	assert.Equal(t, "youtube", scripts.Scripts[1].Platform)
}

func TestGenerateScriptsWithoutPlatforms(t *testing.T) {
	pipeline := newTestPipeline(t, &scriptedGenerator{response: "x"})

	pkg, err := pipeline.Generate(context.Background(), Request{
		ItemId: "item-1",
		Types:  []Type{TypeScripts},
	})
	require.NoError(t, err)
	require.Len(t, pkg.Contents, 1)
	assert.Equal(t, true, pkg.Contents[0].Metadata["error"])
}

func TestGenerateDegradesOnProviderFailure(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider down")}
	pipeline := newTestPipeline(t, gen)

	pkg, err := pipeline.Generate(context.Background(), Request{ItemId: "item-1"})
	require.NoError(t, err)
	require.Len(t, pkg.Contents, 1)

	summary := pkg.Contents[0]
	assert.Equal(t, true, summary.Metadata["error"])
	assert.Contains(t, summary.Title, "Summary Error")
}

func TestPackagesListsNewestFirst(t *testing.T) {
	ctx := context.Background()

	pipeline := newTestPipeline(t, &scriptedGenerator{response: "fine"})

	first, err := pipeline.Generate(ctx, Request{ItemId: "item-1"})
	require.NoError(t, err)

	second, err := pipeline.Generate(ctx, Request{ItemId: "item-1"})
	require.NoError(t, err)

	infos, err := pipeline.Packages(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	ids := []string{infos[0].Id, infos[1].Id}
	assert.Contains(t, ids, first.Id)
	assert.Contains(t, ids, second.Id)
	assert.False(t, infos[0].CreatedAt.Before(infos[1].CreatedAt))
}

func TestDeletePackage(t *testing.T) {
	ctx := context.Background()

	pipeline := newTestPipeline(t, &scriptedGenerator{response: "fine"})

	pkg, err := pipeline.Generate(ctx, Request{ItemId: "item-1"})
	require.NoError(t, err)

	require.NoError(t, pipeline.DeletePackage(ctx, pkg.Id))

	loaded, err := pipeline.Package(ctx, pkg.Id)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	err = pipeline.DeletePackage(ctx, pkg.Id)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestResearchFallsBackWithoutGenerator(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	doc := pipeline.research(context.Background(), testItem())
	require.NotNil(t, doc)
	assert.Equal(t, "item-1", doc.ItemId)
	assert.NotEmpty(t, doc.Queries)
	assert.Contains(t, doc.Summary, "Research conducted on: Go 1.25 Released")
}

func TestResearchIsCached(t *testing.T) {
	ctx := context.Background()

	gen := &scriptedGenerator{response: "1. What changed in the Go runtime this release?"}
	pipeline := newTestPipeline(t, gen)

	first := pipeline.research(ctx, testItem())
	calls := len(gen.prompts)

	second := pipeline.research(ctx, testItem())
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, calls, len(gen.prompts))
}

func TestParseQueries(t *testing.T) {
	response := "1. What changed in the Go runtime?\n" +
		"2. How do teams adopt new Go releases?\n" +
		"- short\n" +
		"* Impact of release cadence on library maintainers\n" +
		"noise without numbering\n"

	queries := parseQueries(response)
	require.Len(t, queries, 3)
	assert.Equal(t, "What changed in the Go runtime?", queries[0])
	assert.Equal(t, "How do teams adopt new Go releases?", queries[1])
	assert.Equal(t, "Impact of release cadence on library maintainers", queries[2])
}

func TestFallbackQueries(t *testing.T) {
	queries := fallbackQueries(testItem())
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "Latest developments in")
	assert.Equal(t, "Current trends in golang", queries[1])

	assert.Equal(t, []string{"Related news and information"}, fallbackQueries(sources.Item{}))
}
