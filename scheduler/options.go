package scheduler

import (
	"context"
	"time"

	"github.com/w-h-a/sourcerer/generator"
)

type Option func(*Options)

type Options struct {
	RefreshInterval time.Duration
	CleanupInterval time.Duration
	ModelsInterval  time.Duration
	Retention       time.Duration
	Generator       generator.Generator
	Context         context.Context
}

func WithRefreshInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.RefreshInterval = interval
	}
}

func WithCleanupInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.CleanupInterval = interval
	}
}

func WithModelsInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.ModelsInterval = interval
	}
}

// WithRetention sets how long fetched items are kept before the cleanup
// task removes them and drops their index entries.
func WithRetention(retention time.Duration) Option {
	return func(o *Options) {
		o.Retention = retention
	}
}

// WithGenerator enables the periodic model list refresh. Without a
// generator the scheduler skips that task.
func WithGenerator(gen generator.Generator) Option {
	return func(o *Options) {
		o.Generator = gen
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		RefreshInterval: 15 * time.Minute,
		CleanupInterval: 24 * time.Hour,
		ModelsInterval:  time.Hour,
		Retention:       90 * 24 * time.Hour,
		Context:         context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
