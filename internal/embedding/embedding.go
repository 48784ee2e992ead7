package embedding

import (
	"context"
	"fmt"
)

// NewModel creates an embedding client for the given provider. baseURL is
// ignored by providers that do not support endpoint overrides.
func NewModel(ctx context.Context, provider ModelType, model, apiKey, baseURL string) (Embedding, error) {
	switch provider {
	case Gemini:
		return NewGeminiModel(ctx, apiKey, model)
	case OpenAI:
		return NewOpenAIModel(apiKey, model, baseURL)
	case Ollama:
		return NewOllamaModel(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
