package flat

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/w-h-a/sourcerer/vectorstore"
)

const (
	indexFile = "index.json"
	lockFile  = "index.lock"
)

// snapshot is the on-disk shape of the whole store: rows, metadata, both id
// mappings, and the slot counter are written together so a reload is always
// consistent.
type snapshot struct {
	Dimension int                          `json:"dimension"`
	NextSlot  int                          `json:"next_slot"`
	Rows      [][]float32                  `json:"rows"`
	Metadata  map[int]vectorstore.Metadata `json:"metadata"`
	IdToSlot  map[string]int               `json:"id_to_slot"`
	SlotToId  map[int]string               `json:"slot_to_id"`
}

func (s *flatStore) setupDir() {
	if len(s.options.Dir) == 0 {
		return
	}

	ctx := s.options.Context

	if err := os.MkdirAll(s.options.Dir, 0o755); err != nil {
		slog.ErrorContext(ctx, "failed to create vector store directory", "dir", s.options.Dir, "error", err)
		return
	}

	// one writer process per data directory
	s.lock = flock.New(filepath.Join(s.options.Dir, lockFile))

	locked, err := s.lock.TryLock()
	if err != nil || !locked {
		slog.WarnContext(ctx, "vector store directory is locked by another process", "dir", s.options.Dir, "error", err)
		s.lock = nil
	}
}

func (s *flatStore) load() {
	if len(s.options.Dir) == 0 {
		return
	}

	ctx := s.options.Context
	path := filepath.Join(s.options.Dir, indexFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "created new vector index", "dimension", s.options.Dimension)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read vector index, starting fresh", "path", path, "error", err)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.ErrorContext(ctx, "failed to decode vector index, starting fresh", "path", path, "error", err)
		return
	}

	if snap.Dimension != s.options.Dimension {
		slog.ErrorContext(ctx, "vector index dimension does not match, starting fresh", "path", path, "got", snap.Dimension, "want", s.options.Dimension)
		return
	}

	s.rows = snap.Rows
	s.nextSlot = snap.NextSlot

	if snap.Metadata != nil {
		s.metadata = snap.Metadata
	}
	if snap.IdToSlot != nil {
		s.idToSlot = snap.IdToSlot
	}
	if snap.SlotToId != nil {
		s.slotToId = snap.SlotToId
	}

	slog.InfoContext(ctx, "loaded vector index", "embeddings", len(s.rows), "dimension", s.options.Dimension)
}

// save writes the snapshot to a temp file and renames it over the previous
// one, so a crash mid-write never corrupts the state seen on next load.
// Callers hold the write lock.
func (s *flatStore) save(ctx context.Context) error {
	if len(s.options.Dir) == 0 {
		return nil
	}

	snap := snapshot{
		Dimension: s.options.Dimension,
		NextSlot:  s.nextSlot,
		Rows:      s.rows,
		Metadata:  s.metadata,
		IdToSlot:  s.idToSlot,
		SlotToId:  s.slotToId,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	path := filepath.Join(s.options.Dir, indexFile)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	slog.DebugContext(ctx, "saved vector index", "path", path, "embeddings", len(s.rows))

	return nil
}
