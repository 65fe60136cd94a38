package rag

import "context"

type Option func(*Options)

type Options struct {
	MaxContextItems  int
	MinSimilarity    float32
	GenerationMinSim float32
	MaxContentChars  int
	BatchSize        int
	Context          context.Context
}

func WithMaxContextItems(count int) Option {
	return func(o *Options) {
		o.MaxContextItems = count
	}
}

func WithMinSimilarity(min float32) Option {
	return func(o *Options) {
		o.MinSimilarity = min
	}
}

// WithGenerationMinSimilarity sets the looser threshold used when gathering
// research context for content generation.
func WithGenerationMinSimilarity(min float32) Option {
	return func(o *Options) {
		o.GenerationMinSim = min
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxContextItems:  5,
		MinSimilarity:    0.3,
		GenerationMinSim: 0.2,
		MaxContentChars:  5000,
		BatchSize:        32,
		Context:          context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
