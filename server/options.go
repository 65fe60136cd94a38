package server

import (
	"context"
	"net/http"
)

type Option func(*Options)

type Options struct {
	Address string
	Handler http.Handler
	Context context.Context
}

func WithAddress(address string) Option {
	return func(o *Options) {
		o.Address = address
	}
}

func WithHandler(handler http.Handler) Option {
	return func(o *Options) {
		o.Handler = handler
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Address: ":8080",
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
