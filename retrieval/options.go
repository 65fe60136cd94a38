package retrieval

import "context"

type RetrieveOption func(*RetrieveOptions)

type RetrieveOptions struct {
	MaxItems      int
	MinSimilarity float32
	Sources       []string
	Context       context.Context
}

func WithMaxItems(maxItems int) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.MaxItems = maxItems
	}
}

func WithMinSimilarity(min float32) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.MinSimilarity = min
	}
}

// WithSources restricts retrieval to hits from the given source ids.
func WithSources(sourceIds ...string) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.Sources = sourceIds
	}
}

func NewRetrieveOptions(opts ...RetrieveOption) RetrieveOptions {
	options := RetrieveOptions{
		MaxItems:      5,
		MinSimilarity: 0.3,
		Context:       context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
