// Package llm provides the generation model used to answer questions over
// retrieved context.
package llm

import (
	"context"
	"fmt"

	"studypal/internal/config"
	"studypal/internal/rag/interfaces"
)

// NewModel creates the configured generation model.
func NewModel(ctx context.Context, cfg *config.LLMConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
