package interfaces

import (
	"context"

	"studypal/internal/rag/schema"
)

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

// Splitter splits extracted text into an ordered sequence of overlapping
// chunks suitable for embedding.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// EmbeddingModel maps text to fixed-dimension vectors. EmbedBatch is
// order-preserving: one vector per input text, in input order.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists embedding records and answers nearest-neighbor queries.
//
// Write appends records atomically per call: either all records become
// queryable or none do. Query returns records whose cosine similarity to the
// given vector is strictly greater than threshold, sorted descending, at most
// limit entries; ties are broken by insertion order so repeated queries
// against an unchanged store are reproducible.
type VectorStore interface {
	Write(ctx context.Context, records []schema.EmbeddingRecord) error
	Query(ctx context.Context, vector []float32, threshold float32, limit int) ([]schema.RetrievalResult, error)
}

// LLM generates text from a prompt. The retrieval core hands it retrieved
// fragments as opaque context and assumes nothing about downstream use.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
