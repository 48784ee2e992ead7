// Package embeddings adapts provider embedding clients to the pipeline
// contract, adding input normalization, client-side rate limiting, retries,
// and dimension enforcement.
package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studypal/internal/embedding"
	"studypal/internal/rag/interfaces"
	"studypal/pkg/logger"
	"studypal/pkg/ratelimiter"
)

// Options tunes the retry and throttling behavior of the adapter.
type Options struct {
	// MaxAttempts is the total number of tries per provider call, first
	// attempt included. Values below 1 are treated as 1.
	MaxAttempts int
	// BaseBackoff is the sleep before the second attempt; it doubles on each
	// further attempt.
	BaseBackoff time.Duration
	// Limiter throttles outbound calls. Nil disables throttling.
	Limiter ratelimiter.RateLimiter
}

// Embedder wraps a provider client and enforces the pipeline contract: texts
// are normalized before they leave the process, transient provider failures
// are retried with exponential backoff, and every returned vector must have
// the configured dimension.
type Embedder struct {
	model     embedding.Embedding
	dimension int
	opts      Options
	log       *logger.Logger
}

// NewEmbedder builds an adapter around the given provider client. dimension
// is the vector size every response must carry; configuration validation
// guarantees it is positive.
func NewEmbedder(model embedding.Embedding, dimension int, opts Options) *Embedder {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 200 * time.Millisecond
	}
	return &Embedder{
		model:     model,
		dimension: dimension,
		opts:      opts,
		log:       logger.New("embedder"),
	}
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one provider call, preserving input order.
// An empty batch returns an empty result without touching the provider. Any
// blank text fails the whole batch with ErrInvalidInput.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	normalized := make([]string, len(texts))
	for i, text := range texts {
		n := normalize(text)
		if n == "" {
			return nil, fmt.Errorf("%w: text %d is empty", embedding.ErrInvalidInput, i)
		}
		normalized[i] = n
	}

	vectors, err := e.callWithRetry(ctx, normalized)
	if err != nil {
		return nil, err
	}

	for i, vec := range vectors {
		if len(vec) != e.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vec), e.dimension)
		}
	}
	return vectors, nil
}

func (e *Embedder) callWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := e.opts.BaseBackoff

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if e.opts.Limiter != nil {
			if err := ratelimiter.Wait(ctx, e.opts.Limiter); err != nil {
				return nil, err
			}
		}

		vectors, err := e.model.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !embedding.Retryable(err) {
			return nil, err
		}
		if attempt == e.opts.MaxAttempts {
			break
		}

		e.log.WithField("attempt", attempt).WithError(err).
			Warn("transient embedding failure, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.opts.MaxAttempts, lastErr)
}

// normalize collapses newlines to spaces and trims the result. Embedding
// models treat line breaks as strong separators, which distorts similarity
// for text whose breaks are layout artifacts of extraction.
func normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

var _ interfaces.EmbeddingModel = (*Embedder)(nil)
