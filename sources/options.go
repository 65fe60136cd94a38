package sources

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Dir         string
	HTTPTimeout time.Duration
	UserAgent   string
	Context     context.Context
}

func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

func WithHTTPTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.HTTPTimeout = timeout
	}
}

func WithUserAgent(ua string) Option {
	return func(o *Options) {
		o.UserAgent = ua
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		HTTPTimeout: 30 * time.Second,
		UserAgent:   "sourcerer/1.0 (+https://github.com/w-h-a/sourcerer)",
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
