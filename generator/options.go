package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey         string
	Model          string
	BaseUrl        string
	ModelsEndpoint string
	ModelsPath     string
	Context        context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithBaseUrl(baseUrl string) Option {
	return func(o *Options) {
		o.BaseUrl = baseUrl
	}
}

func WithModelsEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.ModelsEndpoint = endpoint
	}
}

func WithModelsPath(path string) Option {
	return func(o *Options) {
		o.ModelsPath = path
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type ChatOption func(*ChatOptions)

type ChatOptions struct {
	Temperature float32
	MaxTokens   int
	Context     context.Context
}

func WithTemperature(temp float32) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) ChatOption {
	return func(o *ChatOptions) {
		o.MaxTokens = maxTokens
	}
}

func NewChatOptions(opts ...ChatOption) ChatOptions {
	options := ChatOptions{
		Temperature: 0.7,
		MaxTokens:   1024,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
