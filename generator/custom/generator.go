package custom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/sourcerer/generator"
)

// customGenerator talks to any OpenAI-compatible endpoint. Chat goes through
// the openai client pointed at the configured base URL; model discovery hits
// the configured models endpoint and extracts ids with a declarative path.
type customGenerator struct {
	options    generator.Options
	client     *openai.Client
	httpClient *http.Client
}

func (g *customGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
	options := generator.NewChatOptions(opts...)

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    chatMessages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return nil, errors.New("no response from custom provider")
	}

	return &generator.Response{
		Content: rsp.Choices[0].Message.Content,
		Model:   rsp.Model,
		Usage: generator.Usage{
			PromptTokens:     rsp.Usage.PromptTokens,
			CompletionTokens: rsp.Usage.CompletionTokens,
			TotalTokens:      rsp.Usage.TotalTokens,
		},
	}, nil
}

func (g *customGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	if len(g.options.ModelsEndpoint) == 0 {
		if len(g.options.Model) > 0 {
			return []generator.ModelInfo{{Id: g.options.Model, Name: g.options.Model}}, nil
		}
		return nil, nil
	}

	url := g.options.BaseUrl + g.options.ModelsEndpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if len(g.options.ApiKey) > 0 {
		req.Header.Set("Authorization", "Bearer "+g.options.ApiKey)
	}

	rsp, err := g.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch models from custom provider", "url", url, "error", err)
		return g.fallbackModels(), nil
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "unexpected status fetching models from custom provider", "url", url, "status", rsp.StatusCode)
		return g.fallbackModels(), nil
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	if err != nil {
		return g.fallbackModels(), nil
	}

	ids, err := ExtractModelIds(body, g.options.ModelsPath)
	if err != nil {
		slog.WarnContext(ctx, "failed to extract models from custom provider response", "path", g.options.ModelsPath, "error", err)
		return g.fallbackModels(), nil
	}

	models := make([]generator.ModelInfo, 0, len(ids))
	for _, id := range ids {
		models = append(models, generator.ModelInfo{Id: id, Name: id})
	}

	return models, nil
}

func (g *customGenerator) fallbackModels() []generator.ModelInfo {
	if len(g.options.Model) == 0 {
		return nil
	}
	return []generator.ModelInfo{{Id: g.options.Model, Name: g.options.Model}}
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	if len(options.ModelsPath) == 0 {
		options.ModelsPath = "data[].id"
	}

	g := &customGenerator{
		options:    options,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	config := openai.DefaultConfig(options.ApiKey)
	config.BaseURL = options.BaseUrl

	g.client = openai.NewClientWithConfig(config)

	return g
}
