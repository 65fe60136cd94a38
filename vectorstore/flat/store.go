package flat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/w-h-a/sourcerer/vectorstore"
)

// flatStore keeps unit-normalized vectors in a flat in-memory index and
// scores queries by inner product, which equals cosine similarity for
// normalized rows. The index is append-only: removal flips a deleted flag
// and drops the id mapping, and slots are only reclaimed by CleanupDeleted.
// Every mutation is persisted before it returns.
type flatStore struct {
	options  vectorstore.Options
	rows     [][]float32
	metadata map[int]vectorstore.Metadata
	idToSlot map[string]int
	slotToId map[int]string
	nextSlot int
	lock     *flock.Flock
	mtx      sync.RWMutex
}

func (s *flatStore) AddEmbeddings(ctx context.Context, vectors [][]float32, metas []vectorstore.Metadata) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%w: %d vectors, %d metadata entries", vectorstore.ErrCountMismatch, len(vectors), len(metas))
	}

	if len(vectors) == 0 {
		return nil
	}

	for _, vec := range vectors {
		if len(vec) != s.options.Dimension {
			return fmt.Errorf("%w: got %d, store dimension is %d", vectorstore.ErrDimensionMismatch, len(vec), s.options.Dimension)
		}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	start := s.nextSlot

	// re-adding a live itemId retires its old slot so at most one active
	// slot per itemId exists
	replaced := map[int]vectorstore.Metadata{}

	for i, vec := range vectors {
		if old, exists := s.idToSlot[metas[i].ItemId]; exists && old < start {
			prev := s.metadata[old]
			replaced[old] = prev
			prev.Deleted = true
			s.metadata[old] = prev
		}

		slot := start + i
		s.rows = append(s.rows, vectorstore.Normalize(vec))
		s.metadata[slot] = metas[i]
		s.idToSlot[metas[i].ItemId] = slot
		s.slotToId[slot] = metas[i].ItemId
	}

	s.nextSlot += len(vectors)

	if err := s.save(ctx); err != nil {
		// roll the batch back so a failed write leaves no partial state
		s.rows = s.rows[:start]
		for i, meta := range metas {
			delete(s.metadata, start+i)
			delete(s.slotToId, start+i)
			if slot, ok := s.idToSlot[meta.ItemId]; ok && slot >= start {
				delete(s.idToSlot, meta.ItemId)
			}
		}
		for old, prev := range replaced {
			s.metadata[old] = prev
			s.idToSlot[prev.ItemId] = old
		}
		s.nextSlot = start
		return fmt.Errorf("persist embeddings: %w", err)
	}

	slog.DebugContext(ctx, "added embeddings", "count", len(vectors), "total", s.nextSlot)

	return nil
}

func (s *flatStore) UpdateEmbedding(ctx context.Context, itemId string, vector []float32, meta vectorstore.Metadata) error {
	if err := s.RemoveEmbedding(ctx, itemId); err != nil {
		return err
	}

	return s.AddEmbeddings(ctx, [][]float32{vector}, []vectorstore.Metadata{meta})
}

func (s *flatStore) RemoveEmbedding(ctx context.Context, itemId string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	slot, exists := s.idToSlot[itemId]
	if !exists {
		return nil
	}

	meta := s.metadata[slot]
	meta.Deleted = true
	s.metadata[slot] = meta

	delete(s.idToSlot, itemId)

	if err := s.save(ctx); err != nil {
		meta.Deleted = false
		s.metadata[slot] = meta
		s.idToSlot[itemId] = slot
		return fmt.Errorf("persist removal: %w", err)
	}

	slog.DebugContext(ctx, "marked embedding as deleted", "item_id", itemId)

	return nil
}

func (s *flatStore) Search(ctx context.Context, query []float32, k int, minSimilarity float32) ([]vectorstore.SearchResult, error) {
	if k < 1 {
		return nil, nil
	}

	if len(query) != s.options.Dimension {
		return nil, fmt.Errorf("%w: got %d, store dimension is %d", vectorstore.ErrDimensionMismatch, len(query), s.options.Dimension)
	}

	normalized := vectorstore.Normalize(query)

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if len(s.rows) == 0 {
		return nil, nil
	}

	type candidate struct {
		slot       int
		similarity float32
	}

	candidates := make([]candidate, 0, len(s.rows))
	for slot, row := range s.rows {
		candidates = append(candidates, candidate{
			slot:       slot,
			similarity: vectorstore.Dot(normalized, row),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	// over-fetch to absorb soft-deleted slots among the nearest neighbors
	limit := k * 2
	if limit > len(candidates) {
		limit = len(candidates)
	}
	candidates = candidates[:limit]

	results := make([]vectorstore.SearchResult, 0, k)
	for _, cand := range candidates {
		if cand.similarity < minSimilarity {
			continue
		}

		meta, exists := s.metadata[cand.slot]
		if !exists || meta.Deleted {
			continue
		}

		results = append(results, vectorstore.SearchResult{
			Metadata:   meta,
			Similarity: cand.similarity,
		})

		if len(results) >= k {
			break
		}
	}

	return results, nil
}

func (s *flatStore) EmbeddingMetadata(ctx context.Context, itemId string) (*vectorstore.Metadata, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	slot, exists := s.idToSlot[itemId]
	if !exists {
		return nil, nil
	}

	meta, exists := s.metadata[slot]
	if !exists || meta.Deleted {
		return nil, nil
	}

	cpy := meta

	return &cpy, nil
}

func (s *flatStore) Stats(ctx context.Context) (vectorstore.Stats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats := vectorstore.Stats{
		Total:     len(s.rows),
		Dimension: s.options.Dimension,
	}

	for _, meta := range s.metadata {
		if meta.Deleted {
			stats.Deleted++
		} else {
			stats.Active++
		}
	}

	return stats, nil
}

func (s *flatStore) Reset(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.reset()

	if err := s.save(ctx); err != nil {
		return fmt.Errorf("persist reset: %w", err)
	}

	slog.InfoContext(ctx, "reset vector index", "dimension", s.options.Dimension)

	return nil
}

// CleanupDeleted rebuilds the index from the active slots. The row vectors
// are retained on disk, so no re-embedding is required, but the rebuild is
// O(n) and renumbers every slot.
func (s *flatStore) CleanupDeleted(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var removed int

	rows := make([][]float32, 0, len(s.rows))
	metadata := make(map[int]vectorstore.Metadata, len(s.metadata))
	idToSlot := make(map[string]int, len(s.idToSlot))
	slotToId := make(map[int]string, len(s.slotToId))

	for slot, row := range s.rows {
		meta, exists := s.metadata[slot]
		if !exists || meta.Deleted {
			removed++
			continue
		}

		next := len(rows)
		rows = append(rows, row)
		metadata[next] = meta
		idToSlot[meta.ItemId] = next
		slotToId[next] = meta.ItemId
	}

	if removed == 0 {
		return nil
	}

	prevRows, prevMeta, prevIdToSlot, prevSlotToId, prevNext := s.rows, s.metadata, s.idToSlot, s.slotToId, s.nextSlot

	s.rows = rows
	s.metadata = metadata
	s.idToSlot = idToSlot
	s.slotToId = slotToId
	s.nextSlot = len(rows)

	if err := s.save(ctx); err != nil {
		s.rows, s.metadata, s.idToSlot, s.slotToId, s.nextSlot = prevRows, prevMeta, prevIdToSlot, prevSlotToId, prevNext
		return fmt.Errorf("persist compaction: %w", err)
	}

	slog.InfoContext(ctx, "compacted vector index", "removed", removed, "active", len(rows))

	return nil
}

func (s *flatStore) reset() {
	s.rows = nil
	s.metadata = map[int]vectorstore.Metadata{}
	s.idToSlot = map[string]int{}
	s.slotToId = map[int]string{}
	s.nextSlot = 0
}

func NewStore(opts ...vectorstore.Option) vectorstore.VectorStore {
	options := vectorstore.NewOptions(opts...)

	s := &flatStore{
		options: options,
	}

	s.reset()
	s.setupDir()
	s.load()

	return s
}
