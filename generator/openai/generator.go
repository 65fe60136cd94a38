package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/sourcerer/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
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
		return nil, errors.New("no response from OpenAI")
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

func (g *openAIGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	rsp, err := g.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]generator.ModelInfo, 0, len(rsp.Models))
	for _, model := range rsp.Models {
		models = append(models, generator.ModelInfo{
			Id:   model.ID,
			Name: model.ID,
		})
	}

	return models, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	config := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseUrl) > 0 {
		config.BaseURL = options.BaseUrl
	}

	g.client = openai.NewClientWithConfig(config)

	return g
}
