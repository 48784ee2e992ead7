package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel embeds text through a local or remote Ollama server.
type OllamaModel struct {
	client *ollama.Client
	model  string
}

func NewOllamaModel(model, baseURL string) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &OllamaModel{
		client: ollama.NewClient(parsedURL, httpClient),
		model:  model,
	}, nil
}

func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	}

	resp, err := m.client.Embed(ctx, req)
	if err != nil {
		return nil, classifyOllama(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrRemoteUnavailable, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func classifyOllama(err error) error {
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, err)
	}
	return classifyTransport(err)
}

var _ Embedding = (*OllamaModel)(nil)
