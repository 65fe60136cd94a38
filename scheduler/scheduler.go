package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/rag"
	"github.com/w-h-a/sourcerer/sources"
)

// Scheduler drives the periodic background work: refreshing due sources,
// expiring old items, and compacting the vector index. It owns a single
// goroutine; all state it touches is passed in explicitly.
type Scheduler struct {
	options   Options
	store     *sources.Store
	ingestion *sources.Ingestion
	engine    *rag.Engine
	models    atomic.Pointer[[]generator.ModelInfo]
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// Start launches the background loop. It returns immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(s.options.Context)
	s.cancel = cancel

	go s.run(ctx)
}

// Stop signals the loop to exit and waits for in-flight work to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	refresh := time.NewTicker(s.options.RefreshInterval)
	defer refresh.Stop()

	cleanup := time.NewTicker(s.options.CleanupInterval)
	defer cleanup.Stop()

	models := time.NewTicker(s.options.ModelsInterval)
	defer models.Stop()

	// catch up immediately on start rather than waiting a full interval
	s.refreshDue(ctx)
	s.refreshModels(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			s.refreshDue(ctx)
		case <-cleanup.C:
			s.cleanupOld(ctx)
		case <-models.C:
			s.refreshModels(ctx)
		}
	}
}

// Models returns the cached model list, falling back to a live provider
// call when the cache has not been filled yet.
func (s *Scheduler) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	if cached := s.models.Load(); cached != nil {
		return *cached, nil
	}

	if s.options.Generator == nil {
		return nil, nil
	}

	return s.options.Generator.Models(ctx)
}

func (s *Scheduler) refreshModels(ctx context.Context) {
	if s.options.Generator == nil {
		return
	}

	infos, err := s.options.Generator.Models(ctx)
	if err != nil {
		slog.WarnContext(ctx, "model list refresh failed", "error", err)
		return
	}

	s.models.Store(&infos)
}

func (s *Scheduler) refreshDue(ctx context.Context) {
	fresh, err := s.ingestion.RefreshAll(ctx, false)
	if err != nil {
		slog.ErrorContext(ctx, "scheduled refresh failed", "error", err)
		return
	}

	if fresh > 0 {
		slog.InfoContext(ctx, "scheduled refresh complete", "fresh", fresh)
	}
}

func (s *Scheduler) cleanupOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.options.Retention)

	removed, err := s.store.RemoveItemsBefore(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "item cleanup failed", "error", err)
		return
	}

	if len(removed) > 0 {
		s.engine.RemoveItemIndexes(ctx, removed)
	}

	if err := s.engine.Cleanup(ctx); err != nil {
		slog.ErrorContext(ctx, "index compaction failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "cleanup complete", "removed", len(removed), "cutoff", cutoff)
}

func NewScheduler(store *sources.Store, ingestion *sources.Ingestion, engine *rag.Engine, opts ...Option) *Scheduler {
	return &Scheduler{
		options:   NewOptions(opts...),
		store:     store,
		ingestion: ingestion,
		engine:    engine,
		done:      make(chan struct{}),
	}
}
