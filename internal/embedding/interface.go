// Package embedding provides clients for remote embedding providers. Each
// client maps text to fixed-dimension vectors; provider failures are
// normalized into the taxonomy in errors.go so callers can decide what to
// retry without knowing which provider is behind the interface.
package embedding

import "context"

// Embedding is the provider-side contract. EmbedBatch returns one vector per
// input text, in input order.
type Embedding interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType identifies an embedding provider.
type ModelType string

const (
	Gemini ModelType = "gemini"
	OpenAI ModelType = "openai"
	Ollama ModelType = "ollama"
)
