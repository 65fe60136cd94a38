package chat

import (
	"context"

	"github.com/w-h-a/sourcerer/generator"
)

type Option func(*Options)

type Options struct {
	Dir             string
	Generator       generator.Generator
	Provider        string
	Model           string
	Limits          Limits
	Counter         TokenCounter
	ResponseReserve int
	SystemReserve   int
	RecentFraction  float64
	MinRecent       int
	SystemPrompt    string
	Context         context.Context
}

func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

func WithGenerator(g generator.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

func WithProvider(provider string) Option {
	return func(o *Options) {
		o.Provider = provider
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithLimits(limits Limits) Option {
	return func(o *Options) {
		o.Limits = limits
	}
}

// WithTokenCounter overrides how message tokens are counted.
func WithTokenCounter(counter TokenCounter) Option {
	return func(o *Options) {
		o.Counter = counter
	}
}

func WithResponseReserve(tokens int) Option {
	return func(o *Options) {
		o.ResponseReserve = tokens
	}
}

func WithSystemReserve(tokens int) Option {
	return func(o *Options) {
		o.SystemReserve = tokens
	}
}

// WithRecentFraction sets the share of the available budget kept for
// verbatim recent messages; the rest is headroom for the summary and the
// incoming message.
func WithRecentFraction(fraction float64) Option {
	return func(o *Options) {
		o.RecentFraction = fraction
	}
}

// WithMinRecent sets the floor of most-recent messages that are always
// preserved regardless of token cost.
func WithMinRecent(count int) Option {
	return func(o *Options) {
		o.MinRecent = count
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Limits:          DefaultLimits(),
		ResponseReserve: 1000,
		SystemReserve:   500,
		RecentFraction:  0.7,
		MinRecent:       4,
		SystemPrompt:    "You are a helpful assistant with access to aggregated content from the user's sources.",
		Context:         context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Counter == nil {
		options.Counter = defaultCounter()
	}
	return options
}
