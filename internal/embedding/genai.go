package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiModel embeds text through the Google GenAI API.
type GeminiModel struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGeminiModel creates a GenAI client bound to the given embedding model.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiModel{
		client: client,
		model:  client.EmbeddingModel(modelName),
	}, nil
}

func (m *GeminiModel) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := m.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classifyGenAI(err)
	}
	if res.Embedding == nil {
		return nil, fmt.Errorf("%w: empty embedding response", ErrRemoteUnavailable)
	}
	return res.Embedding.Values, nil
}

func (m *GeminiModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, classifyGenAI(err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrRemoteUnavailable, len(res.Embeddings), len(texts))
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

// Close releases the underlying API client.
func (m *GeminiModel) Close() error {
	return m.client.Close()
}

func classifyGenAI(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return classifyTransport(err)
}

var _ Embedding = (*GeminiModel)(nil)
