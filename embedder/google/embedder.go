package google

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/sourcerer/embedder"
	genaiopt "google.golang.org/api/option"
)

type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := embedder.Clean(text)
	if len(cleaned) == 0 {
		return embedder.ZeroVector(e.options.Dimension), nil
	}

	model := e.client.EmbeddingModel(e.options.Model)
	rsp, err := model.EmbedContent(ctx, genai.Text(cleaned))
	if err != nil {
		return nil, err
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, errors.New("no response from Google")
	}

	return rsp.Embedding.Values, nil
}

func (e *googleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	model := e.client.EmbeddingModel(e.options.Model)
	batch := model.NewBatch()

	slots := make([]int, 0, len(texts))

	for i, text := range texts {
		cleaned := embedder.Clean(text)
		if len(cleaned) == 0 {
			vectors[i] = embedder.ZeroVector(e.options.Dimension)
			continue
		}
		batch.AddContent(genai.Text(cleaned))
		slots = append(slots, i)
	}

	if len(slots) == 0 {
		return vectors, nil
	}

	rsp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	if rsp == nil || len(rsp.Embeddings) != len(slots) {
		return nil, errors.New("unexpected embedding count from Google")
	}

	for i, emb := range rsp.Embeddings {
		vectors[slots[i]] = emb.Values
	}

	return vectors, nil
}

func (e *googleEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	e := &googleEmbedder{
		options: options,
	}

	client, err := genai.NewClient(
		options.Context,
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	e.client = client

	return e
}
