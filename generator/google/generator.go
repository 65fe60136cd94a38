package google

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	genaiopt "google.golang.org/api/option"

	"github.com/w-h-a/sourcerer/generator"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Chat(ctx context.Context, messages []generator.Message, opts ...generator.ChatOption) (*generator.Response, error) {
	options := generator.NewChatOptions(opts...)

	model := g.client.GenerativeModel(g.options.Model)
	model.SetTemperature(options.Temperature)
	model.SetMaxOutputTokens(int32(options.MaxTokens))

	// Gemini takes system prompts out of band and the final user turn as
	// the message; everything in between is history
	history := []*genai.Content{}
	var last string

	for i, msg := range messages {
		switch msg.Role {
		case generator.RoleSystem:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		case generator.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			if i == len(messages)-1 {
				last = msg.Content
				continue
			}
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	if len(last) == 0 {
		return nil, errors.New("conversation must end with a user message")
	}

	chat := model.StartChat()
	chat.History = history

	rsp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, candidate := range rsp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}

	result := b.String()
	if len(result) == 0 {
		return nil, errors.New("no response from Google")
	}

	response := &generator.Response{
		Content: result,
		Model:   g.options.Model,
	}

	if rsp.UsageMetadata != nil {
		response.Usage = generator.Usage{
			PromptTokens:     int(rsp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(rsp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(rsp.UsageMetadata.TotalTokenCount),
		}
	}

	return response, nil
}

func (g *googleGenerator) Models(ctx context.Context) ([]generator.ModelInfo, error) {
	models := []generator.ModelInfo{}

	it := g.client.ListModels(ctx)
	for {
		model, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		models = append(models, generator.ModelInfo{
			Id:   strings.TrimPrefix(model.Name, "models/"),
			Name: model.DisplayName,
		})
	}

	return models, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &googleGenerator{
		options: options,
	}

	client, err := genai.NewClient(
		options.Context,
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	g.client = client

	return g
}
