package embedder

import "context"

// Embedder turns text into fixed-dimension vectors. Implementations must
// return a zero vector of the configured dimension for blank input instead
// of calling out to the provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
