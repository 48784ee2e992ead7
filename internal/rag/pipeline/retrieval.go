package pipeline

import (
	"context"
	"fmt"
	"strings"

	"studypal/internal/config"
	"studypal/internal/embedding"
	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/schema"
	"studypal/pkg/logger"
)

// QueryCache memoizes query embeddings. Implemented by the Redis-backed
// cache; nil disables caching.
type QueryCache interface {
	Get(ctx context.Context, query string) ([]float32, bool)
	Set(ctx context.Context, query string, vector []float32) error
}

// QueryOptions overrides the configured retrieval defaults for one query.
type QueryOptions struct {
	// TopK caps the number of results. Zero or negative uses the default.
	TopK int
	// Threshold is the exclusive minimum similarity. Nil uses the default.
	Threshold *float32
}

// Retrieval answers similarity queries: embed the query text, then search
// the vector store.
type Retrieval struct {
	embedder interfaces.EmbeddingModel
	store    interfaces.VectorStore
	defaults config.RetrievalConfig
	cache    QueryCache
	log      *logger.Logger
}

// NewRetrieval builds the retrieval pipeline. cache may be nil.
func NewRetrieval(
	embedder interfaces.EmbeddingModel,
	store interfaces.VectorStore,
	defaults config.RetrievalConfig,
	cache QueryCache,
) *Retrieval {
	return &Retrieval{
		embedder: embedder,
		store:    store,
		defaults: defaults,
		cache:    cache,
		log:      logger.New("retrieval"),
	}
}

// Run returns the stored fragments most similar to the query text, best
// first. A blank query is invalid; a query matching nothing returns an empty
// slice, which callers must treat as "no relevant context", not an error.
func (p *Retrieval) Run(ctx context.Context, query string, opts QueryOptions) ([]schema.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", embedding.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = p.defaults.TopK
	}
	threshold := p.defaults.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	vector, err := p.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := p.store.Query(ctx, vector, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	p.log.WithField("results", len(results)).Debug("retrieval complete")
	return results, nil
}

func (p *Retrieval) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if p.cache != nil {
		if vector, ok := p.cache.Get(ctx, query); ok {
			return vector, nil
		}
	}

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, query, vector); err != nil {
			p.log.WithError(err).Warn("query cache write failed")
		}
	}
	return vector, nil
}
