package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/sourcerer/generator"
)

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

func (g *anthropicGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
	options := generator.NewChatOptions(opts...)

	// Anthropic takes system prompts out of band
	var system []anthropic.TextBlockParam
	chatMessages := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case generator.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case generator.RoleAssistant:
			chatMessages = append(chatMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.options.Model),
		MaxTokens:   int64(options.MaxTokens),
		Temperature: anthropic.Float(float64(options.Temperature)),
		System:      system,
		Messages:    chatMessages,
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return nil, errors.New("no response from Anthropic")
	}

	return &generator.Response{
		Content: result,
		Model:   string(rsp.Model),
		Usage: generator.Usage{
			PromptTokens:     int(rsp.Usage.InputTokens),
			CompletionTokens: int(rsp.Usage.OutputTokens),
			TotalTokens:      int(rsp.Usage.InputTokens + rsp.Usage.OutputTokens),
		},
	}, nil
}

func (g *anthropicGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	page, err := g.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, err
	}

	models := make([]generator.ModelInfo, 0, len(page.Data))
	for _, model := range page.Data {
		models = append(models, generator.ModelInfo{
			Id:   string(model.ID),
			Name: model.DisplayName,
		})
	}

	return models, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &anthropicGenerator{
		options: options,
	}

	client := anthropic.NewClient(
		anthropicopt.WithAPIKey(options.ApiKey),
	)

	g.client = &client

	return g
}
