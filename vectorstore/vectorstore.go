package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the
	// dimension the store was created with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCountMismatch is returned when the number of vectors does not
	// match the number of metadata entries.
	ErrCountMismatch = errors.New("vector count does not match metadata count")
)

// VectorStore is a durable collection of embeddings with cosine-similarity
// search. Removal is logical: deleted slots stay in the index and are
// skipped on the search path until CleanupDeleted rebuilds the store.
type VectorStore interface {
	AddEmbeddings(ctx context.Context, vectors [][]float32, metas []Metadata) error
	UpdateEmbedding(ctx context.Context, itemId string, vector []float32, meta Metadata) error
	RemoveEmbedding(ctx context.Context, itemId string) error
	Search(ctx context.Context, query []float32, k int, minSimilarity float32) ([]SearchResult, error)
	EmbeddingMetadata(ctx context.Context, itemId string) (*Metadata, error)
	Stats(ctx context.Context) (Stats, error)
	Reset(ctx context.Context) error
	CleanupDeleted(ctx context.Context) error
}

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Deleted   int `json:"deleted"`
	Dimension int `json:"dimension"`
}
