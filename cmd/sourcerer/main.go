package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/w-h-a/sourcerer/chat"
	"github.com/w-h-a/sourcerer/config"
	"github.com/w-h-a/sourcerer/content"
	"github.com/w-h-a/sourcerer/embedder"
	googleembedder "github.com/w-h-a/sourcerer/embedder/google"
	openaiembedder "github.com/w-h-a/sourcerer/embedder/openai"
	"github.com/w-h-a/sourcerer/generator"
	anthropicgenerator "github.com/w-h-a/sourcerer/generator/anthropic"
	customgenerator "github.com/w-h-a/sourcerer/generator/custom"
	googlegenerator "github.com/w-h-a/sourcerer/generator/google"
	openaigenerator "github.com/w-h-a/sourcerer/generator/openai"
	"github.com/w-h-a/sourcerer/internal/service"
	"github.com/w-h-a/sourcerer/rag"
	"github.com/w-h-a/sourcerer/retrieval"
	"github.com/w-h-a/sourcerer/scheduler"
	"github.com/w-h-a/sourcerer/server"
	httpserver "github.com/w-h-a/sourcerer/server/http"
	"github.com/w-h-a/sourcerer/sources"
	"github.com/w-h-a/sourcerer/vectorstore"
	"github.com/w-h-a/sourcerer/vectorstore/flat"
	"github.com/w-h-a/sourcerer/vectorstore/postgres"
)

var cli struct {
	Dir string `help:"Data and config directory" default:""`

	Serve   serveCmd   `cmd:"" help:"Run the HTTP server with the background scheduler"`
	Ingest  ingestCmd  `cmd:"" help:"Refresh every source once and index fresh items"`
	Reindex reindexCmd `cmd:"" help:"Index unindexed items, or everything with --force"`
	Stats   statsCmd   `cmd:"" help:"Print index and catalog stats"`
}

type app struct {
	cfg       *config.Config
	store     *sources.Store
	engine    *rag.Engine
	ingestion *sources.Ingestion
	chat      *chat.Manager
	content   *content.Pipeline
	generator generator.Generator
}

type serveCmd struct{}

func (c *serveCmd) Run(a *app) error {
	ctx := context.Background()

	sched := scheduler.NewScheduler(
		a.store,
		a.ingestion,
		a.engine,
		scheduler.WithRefreshInterval(a.cfg.Scheduler.RefreshInterval),
		scheduler.WithCleanupInterval(a.cfg.Scheduler.CleanupInterval),
		scheduler.WithRetention(a.cfg.Scheduler.Retention),
		scheduler.WithGenerator(a.generator),
	)
	sched.Start()
	defer sched.Stop()

	svc := service.NewService(a.chat, a.engine, a.store, a.ingestion, a.content, sched)

	srv := httpserver.NewServer(
		server.WithAddress(a.cfg.Address),
		server.WithHandler(svc.Router()),
	)

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "listening", "address", a.cfg.Address)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.InfoContext(ctx, "shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

type ingestCmd struct{}

func (c *ingestCmd) Run(a *app) error {
	fresh, err := a.ingestion.RefreshAll(context.Background(), true)
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d fresh items\n", fresh)

	return nil
}

type reindexCmd struct {
	Force bool `help:"Reset the index and re-embed everything"`
}

func (c *reindexCmd) Run(a *app) error {
	indexed, err := a.engine.BulkReindex(context.Background(), c.Force)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %d items\n", indexed)

	return nil
}

type statsCmd struct{}

func (c *statsCmd) Run(a *app) error {
	ctx := context.Background()

	stats, err := a.engine.Stats(ctx)
	if err != nil {
		return err
	}

	srcs, err := a.store.Sources(ctx)
	if err != nil {
		return err
	}

	items, err := a.store.Items(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("sources: %d\nitems: %d\nindexed: %d active, %d deleted (dimension %d)\n",
		len(srcs), len(items), stats.Active, stats.Deleted, stats.Dimension)

	return nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	parsed := kong.Parse(&cli)

	dir := cli.Dir
	if dir == "" {
		dir = config.DefaultDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	parsed.FatalIfErrorf(parsed.Run(buildApp(cfg)))
}

func buildApp(cfg *config.Config) *app {
	emb := buildEmbedder(cfg)
	gen := buildGenerator(cfg)
	store := buildVectorStore(cfg, emb.Dimension())

	srcStore := sources.NewStore(sources.WithDir(cfg.DataDir))
	engine := rag.NewEngine(
		emb,
		store,
		srcStore,
		rag.WithMaxContextItems(cfg.Retrieval.MaxItems),
		rag.WithMinSimilarity(float32(cfg.Retrieval.MinSimilarity)),
	)
	ingestion := sources.NewIngestion(srcStore, engine, sources.WithDir(cfg.DataDir))

	chatOpts := []chat.Option{
		chat.WithDir(filepath.Join(cfg.DataDir, "sessions")),
		chat.WithGenerator(gen),
		chat.WithProvider(cfg.Provider),
		chat.WithModel(activeModel(cfg)),
		chat.WithLimits(buildLimits(cfg)),
		chat.WithResponseReserve(cfg.Chat.ResponseReserve),
		chat.WithSystemReserve(cfg.Chat.SystemReserve),
		chat.WithRecentFraction(cfg.Chat.RecentFraction),
		chat.WithMinRecent(cfg.Chat.MinRecent),
	}
	if cfg.Chat.SystemPrompt != "" {
		chatOpts = append(chatOpts, chat.WithSystemPrompt(cfg.Chat.SystemPrompt))
	}

	chatManager := chat.NewManager(retrieval.NewEngine(emb, store, srcStore), chatOpts...)

	pipeline := content.NewPipeline(gen, engine, srcStore, content.WithDir(filepath.Join(cfg.DataDir, "outputs")))

	return &app{
		cfg:       cfg,
		store:     srcStore,
		engine:    engine,
		ingestion: ingestion,
		chat:      chatManager,
		content:   pipeline,
		generator: gen,
	}
}

func buildEmbedder(cfg *config.Config) embedder.Embedder {
	opts := []embedder.Option{
		embedder.WithApiKey(cfg.Embedding.ApiKey),
		embedder.WithModel(cfg.Embedding.Model),
		embedder.WithDimension(cfg.Embedding.Dimension),
	}

	switch cfg.Embedding.Provider {
	case config.ProviderGoogle:
		return googleembedder.NewEmbedder(opts...)
	default:
		return openaiembedder.NewEmbedder(opts...)
	}
}

func buildGenerator(cfg *config.Config) generator.Generator {
	pc, err := cfg.Active()
	if err != nil {
		log.Fatalf("invalid provider config: %v", err)
	}

	opts := []generator.Option{
		generator.WithApiKey(pc.ApiKey),
		generator.WithModel(pc.Model),
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropicgenerator.NewGenerator(opts...)
	case config.ProviderGoogle:
		return googlegenerator.NewGenerator(opts...)
	case config.ProviderCustom:
		opts = append(opts, generator.WithBaseUrl(pc.BaseUrl))
		if pc.ModelsEndpoint != "" {
			opts = append(opts, generator.WithModelsEndpoint(pc.ModelsEndpoint))
		}
		if pc.ModelsPath != "" {
			opts = append(opts, generator.WithModelsPath(pc.ModelsPath))
		}
		return customgenerator.NewGenerator(opts...)
	default:
		return openaigenerator.NewGenerator(opts...)
	}
}

func buildVectorStore(cfg *config.Config, dimension int) vectorstore.VectorStore {
	if cfg.Postgres != "" {
		return postgres.NewStore(
			vectorstore.WithLocation(cfg.Postgres),
			vectorstore.WithDimension(dimension),
		)
	}

	return flat.NewStore(
		vectorstore.WithDir(filepath.Join(cfg.DataDir, "index")),
		vectorstore.WithDimension(dimension),
	)
}

func activeModel(cfg *config.Config) string {
	pc, _ := cfg.Active()
	return pc.Model
}

// buildLimits layers config overrides, keyed "provider/model", over the
// built-in token limit table.
func buildLimits(cfg *config.Config) chat.Limits {
	limits := chat.DefaultLimits()

	for key, limit := range cfg.Chat.TokenLimits {
		provider, model, ok := strings.Cut(key, "/")
		if !ok || limit <= 0 {
			continue
		}
		if _, ok := limits[provider]; !ok {
			limits[provider] = map[string]int{}
		}
		limits[provider][model] = limit
	}

	return limits
}
