package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/sourcerer/embedder"
)

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := embedder.Clean(text)
	if len(cleaned) == 0 {
		return embedder.ZeroVector(e.options.Dimension), nil
	}

	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{cleaned},
		Model: openai.EmbeddingModel(e.options.Model),
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return rsp.Data[0].Embedding, nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	// blank entries get a zero vector without a provider round trip
	input := make([]string, 0, len(texts))
	slots := make([]int, 0, len(texts))

	for i, text := range texts {
		cleaned := embedder.Clean(text)
		if len(cleaned) == 0 {
			vectors[i] = embedder.ZeroVector(e.options.Dimension)
			continue
		}
		input = append(input, cleaned)
		slots = append(slots, i)
	}

	if len(input) == 0 {
		return vectors, nil
	}

	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(e.options.Model),
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) != len(input) {
		return nil, errors.New("unexpected embedding count from OpenAI")
	}

	for i, data := range rsp.Data {
		vectors[slots[i]] = data.Embedding
	}

	return vectors, nil
}

func (e *openAIEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	e := &openAIEmbedder{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	e.client = client

	return e
}
