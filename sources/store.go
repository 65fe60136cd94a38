package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const storeFile = "sources.json"

var ErrSourceNotFound = errors.New("source not found")

// Store holds source configs and their aggregated items, persisted as one
// JSON file under the data directory.
type Store struct {
	options Options
	sources map[string]Source
	items   map[string]Item
	mtx     sync.RWMutex
}

type storeSnapshot struct {
	Sources map[string]Source `json:"sources"`
	Items   map[string]Item   `json:"items"`
}

func (s *Store) AddSource(ctx context.Context, src Source) (Source, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(src.Id) == 0 {
		src.Id = uuid.New().String()
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now().UTC()
	}

	s.sources[src.Id] = src

	if err := s.save(ctx); err != nil {
		delete(s.sources, src.Id)
		return Source{}, err
	}

	slog.InfoContext(ctx, "added source", "source_id", src.Id, "type", src.Type, "url", src.Url)

	return src, nil
}

func (s *Store) UpdateSource(ctx context.Context, src Source) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	prev, exists := s.sources[src.Id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, src.Id)
	}

	src.CreatedAt = prev.CreatedAt
	s.sources[src.Id] = src

	if err := s.save(ctx); err != nil {
		s.sources[src.Id] = prev
		return err
	}

	return nil
}

func (s *Store) RemoveSource(ctx context.Context, sourceId string) ([]string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.sources[sourceId]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceId)
	}

	// the caller de-indexes the orphaned items
	var removed []string
	for id, item := range s.items {
		if item.SourceId == sourceId {
			removed = append(removed, id)
		}
	}

	prev := s.sources[sourceId]
	delete(s.sources, sourceId)
	prevItems := make(map[string]Item, len(removed))
	for _, id := range removed {
		prevItems[id] = s.items[id]
		delete(s.items, id)
	}

	if err := s.save(ctx); err != nil {
		s.sources[sourceId] = prev
		for id, item := range prevItems {
			s.items[id] = item
		}
		return nil, err
	}

	return removed, nil
}

func (s *Store) Source(ctx context.Context, sourceId string) (*Source, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	src, exists := s.sources[sourceId]
	if !exists {
		return nil, nil
	}

	return &src, nil
}

func (s *Store) Sources(ctx context.Context) ([]Source, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]Source, 0, len(s.sources))
	for _, src := range s.sources {
		list = append(list, src)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	return list, nil
}

// DueForRefresh returns enabled sources whose refresh interval has elapsed.
func (s *Store) DueForRefresh(ctx context.Context, now time.Time) ([]Source, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var due []Source
	for _, src := range s.sources {
		if !src.Enabled {
			continue
		}
		if src.LastRefreshed.IsZero() || now.Sub(src.LastRefreshed) >= src.RefreshInterval {
			due = append(due, src)
		}
	}

	return due, nil
}

// UpsertItems stores freshly parsed items, stamps the source as refreshed,
// and returns the items that were not previously known.
func (s *Store) UpsertItems(ctx context.Context, sourceId string, items []Item) ([]Item, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	src, exists := s.sources[sourceId]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceId)
	}

	var fresh []Item
	for _, item := range items {
		if len(item.Id) == 0 {
			item.Id = ItemId(item.Url)
		}
		item.SourceId = sourceId
		if item.FetchedAt.IsZero() {
			item.FetchedAt = time.Now().UTC()
		}

		if _, known := s.items[item.Id]; !known {
			fresh = append(fresh, item)
		}
		s.items[item.Id] = item
	}

	src.LastRefreshed = time.Now().UTC()
	s.sources[sourceId] = src

	if err := s.save(ctx); err != nil {
		return nil, err
	}

	return fresh, nil
}

func (s *Store) Item(ctx context.Context, itemId string) (*Item, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	item, exists := s.items[itemId]
	if !exists {
		return nil, nil
	}

	return &item, nil
}

func (s *Store) Items(ctx context.Context) ([]Item, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		list = append(list, item)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].PublishedAt.After(list[j].PublishedAt)
	})

	return list, nil
}

func (s *Store) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	list, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// RemoveItemsBefore drops items fetched before the cutoff and returns their
// ids so callers can de-index them.
func (s *Store) RemoveItemsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var removed []string
	prevItems := map[string]Item{}

	for id, item := range s.items {
		if item.FetchedAt.Before(cutoff) {
			removed = append(removed, id)
			prevItems[id] = item
			delete(s.items, id)
		}
	}

	if len(removed) == 0 {
		return nil, nil
	}

	if err := s.save(ctx); err != nil {
		for id, item := range prevItems {
			s.items[id] = item
		}
		return nil, err
	}

	slog.InfoContext(ctx, "removed old items", "count", len(removed), "cutoff", cutoff)

	return removed, nil
}

// SearchItems is a plain keyword match over titles and bodies, used by the
// API as a non-semantic fallback.
func (s *Store) SearchItems(ctx context.Context, query string, sourceIds []string) ([]Item, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	allowed := map[string]bool{}
	for _, id := range sourceIds {
		allowed[id] = true
	}

	type scored struct {
		item  Item
		score int
	}

	var matches []scored

	for _, item := range s.items {
		if len(allowed) > 0 && !allowed[item.SourceId] {
			continue
		}

		title := strings.ToLower(item.Title)
		body := strings.ToLower(item.Content + " " + item.Summary)

		score := 0
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 3
			}
			if strings.Contains(body, term) {
				score++
			}
		}

		if score > 0 {
			matches = append(matches, scored{item: item, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	items := make([]Item, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.item)
	}

	return items, nil
}

func (s *Store) load() {
	if len(s.options.Dir) == 0 {
		return
	}

	ctx := s.options.Context
	path := filepath.Join(s.options.Dir, storeFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read sources, starting empty", "path", path, "error", err)
		return
	}

	var snap storeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.ErrorContext(ctx, "failed to decode sources, starting empty", "path", path, "error", err)
		return
	}

	if snap.Sources != nil {
		s.sources = snap.Sources
	}
	if snap.Items != nil {
		s.items = snap.Items
	}

	slog.InfoContext(ctx, "loaded sources", "sources", len(s.sources), "items", len(s.items))
}

func (s *Store) save(ctx context.Context) error {
	if len(s.options.Dir) == 0 {
		return nil
	}

	data, err := json.Marshal(storeSnapshot{Sources: s.sources, Items: s.items})
	if err != nil {
		return err
	}

	path := filepath.Join(s.options.Dir, storeFile)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

func NewStore(opts ...Option) *Store {
	options := NewOptions(opts...)

	s := &Store{
		options: options,
		sources: map[string]Source{},
		items:   map[string]Item{},
	}

	if len(options.Dir) > 0 {
		if err := os.MkdirAll(options.Dir, 0o755); err != nil {
			slog.ErrorContext(options.Context, "failed to create sources directory", "dir", options.Dir, "error", err)
		}
	}

	s.load()

	return s
}
