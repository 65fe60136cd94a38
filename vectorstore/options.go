package vectorstore

import "context"

type Option func(*Options)

type Options struct {
	Dir       string
	Location  string
	Dimension int
	Context   context.Context
}

// WithDir sets the on-disk directory for file-backed stores.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithLocation sets the connection string for database-backed stores.
func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithDimension(dim int) Option {
	return func(o *Options) {
		o.Dimension = dim
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Dimension: 1536,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
