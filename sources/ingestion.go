package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxConcurrentRefreshes = 4

// Indexer receives freshly ingested items. Indexing failures are logged and
// never abort a refresh.
type Indexer interface {
	IndexItems(ctx context.Context, items []Item) error
}

// Ingestion refreshes sources through their parsers and hands new items to
// the indexer.
type Ingestion struct {
	store   *Store
	indexer Indexer
	parsers map[SourceType]Parser
	running atomic.Bool
}

// RefreshAll refreshes every due source with bounded concurrency and
// returns the number of new items across all of them. Per-source failures
// are logged, not propagated.
func (i *Ingestion) RefreshAll(ctx context.Context, force bool) (int, error) {
	if !i.running.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("ingestion already in progress")
	}
	defer i.running.Store(false)

	var due []Source
	var err error

	if force {
		due, err = i.store.Sources(ctx)
	} else {
		due, err = i.store.DueForRefresh(ctx, time.Now().UTC())
	}
	if err != nil {
		return 0, err
	}

	if len(due) == 0 {
		return 0, nil
	}

	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefreshes)

	for _, src := range due {
		g.Go(func() error {
			count, err := i.refresh(gctx, src)
			if err != nil {
				slog.WarnContext(gctx, "failed to refresh source", "source_id", src.Id, "url", src.Url, "error", err)
				return nil
			}
			total.Add(int64(count))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}

	slog.InfoContext(ctx, "refreshed sources", "sources", len(due), "new_items", total.Load())

	return int(total.Load()), nil
}

// RefreshSource refreshes a single source and returns the new-item count.
func (i *Ingestion) RefreshSource(ctx context.Context, sourceId string) (int, error) {
	src, err := i.store.Source(ctx, sourceId)
	if err != nil {
		return 0, err
	}
	if src == nil {
		return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceId)
	}

	return i.refresh(ctx, *src)
}

func (i *Ingestion) refresh(ctx context.Context, src Source) (int, error) {
	parser, exists := i.parsers[src.Type]
	if !exists {
		return 0, fmt.Errorf("no parser for source type %q", src.Type)
	}

	items, err := parser.Parse(ctx, src)
	if err != nil {
		return 0, err
	}

	items = applyFilters(src, items)

	fresh, err := i.store.UpsertItems(ctx, src.Id, items)
	if err != nil {
		return 0, err
	}

	if len(fresh) > 0 && i.indexer != nil {
		if err := i.indexer.IndexItems(ctx, fresh); err != nil {
			slog.WarnContext(ctx, "failed to index new items", "source_id", src.Id, "count", len(fresh), "error", err)
		}
	}

	return len(fresh), nil
}

// applyFilters keeps only items matching at least one of the source's
// keyword filters. A source without filters keeps everything.
func applyFilters(src Source, items []Item) []Item {
	if len(src.Filters) == 0 {
		return items
	}

	kept := make([]Item, 0, len(items))

	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Summary + " " + item.Content)

		for _, filter := range src.Filters {
			if strings.Contains(text, strings.ToLower(filter)) {
				kept = append(kept, item)
				break
			}
		}
	}

	return kept
}

func NewIngestion(store *Store, indexer Indexer, opts ...Option) *Ingestion {
	options := NewOptions(opts...)

	return &Ingestion{
		store:   store,
		indexer: indexer,
		parsers: map[SourceType]Parser{
			SourceTypeRSS:  NewRSSParser(WithHTTPTimeout(options.HTTPTimeout), WithUserAgent(options.UserAgent)),
			SourceTypeHTML: NewHTMLParser(WithHTTPTimeout(options.HTTPTimeout), WithUserAgent(options.UserAgent)),
		},
	}
}
