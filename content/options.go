package content

import "context"

type Option func(*Options)

type Options struct {
	Dir              string
	MaxResearchItems int
	ResearchCacheTTL int
	Context          context.Context
}

func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithMaxResearchItems bounds how many related items the research pass
// pulls from the index.
func WithMaxResearchItems(count int) Option {
	return func(o *Options) {
		o.MaxResearchItems = count
	}
}

// WithResearchCacheTTL sets how long, in hours, a cached research document
// stays fresh.
func WithResearchCacheTTL(hours int) Option {
	return func(o *Options) {
		o.ResearchCacheTTL = hours
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxResearchItems: 3,
		ResearchCacheTTL: 24,
		Context:          context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
