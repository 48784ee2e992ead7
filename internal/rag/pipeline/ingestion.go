// Package pipeline wires the extraction, chunking, embedding, storage, and
// generation stages into the ingestion, retrieval, and answering flows.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/schema"
	"studypal/pkg/logger"
)

// defaultIngestConcurrency bounds how many documents are processed at once
// in IngestAll.
const defaultIngestConcurrency = 4

// Ingestion runs uploaded documents through extract, split, embed, and store.
type Ingestion struct {
	extractor interfaces.Extractor
	splitter  interfaces.Splitter
	embedder  interfaces.EmbeddingModel
	store     interfaces.VectorStore
	log       *logger.Logger
}

// NewIngestion builds the ingestion pipeline from its stages.
func NewIngestion(
	extractor interfaces.Extractor,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	store interfaces.VectorStore,
) *Ingestion {
	return &Ingestion{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		log:       logger.New("ingestion"),
	}
}

// Ingest processes one document and returns the number of chunks written.
// A document with no extractable text ingests successfully with zero chunks.
// The store write is all-or-nothing, so a failure anywhere leaves no partial
// records behind.
func (p *Ingestion) Ingest(ctx context.Context, doc schema.UploadedDocument) (int, error) {
	text, err := p.extractor.Extract(ctx, doc.Data, doc.MediaType)
	if err != nil {
		return 0, fmt.Errorf("extract %q: %w", doc.Filename, err)
	}
	if strings.TrimSpace(text) == "" {
		p.log.WithField("filename", doc.Filename).Info("document has no extractable text")
		return 0, nil
	}

	chunks, err := p.splitter.Split(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("split %q: %w", doc.Filename, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %q: %w", doc.Filename, err)
	}

	records := make([]schema.EmbeddingRecord, len(chunks))
	for i := range chunks {
		records[i] = schema.EmbeddingRecord{
			Content:   chunks[i],
			Embedding: vectors[i],
		}
	}

	if err := p.store.Write(ctx, records); err != nil {
		return 0, fmt.Errorf("store %q: %w", doc.Filename, err)
	}

	p.log.WithField("filename", doc.Filename).
		WithField("chunks", len(chunks)).
		Info("document ingested")
	return len(chunks), nil
}

// IngestAll processes documents concurrently and waits for all of them. One
// document failing does not stop the others; each entry of the returned slice
// reports its own outcome, in input order.
func (p *Ingestion) IngestAll(ctx context.Context, docs []schema.UploadedDocument) []schema.IngestResult {
	results := make([]schema.IngestResult, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultIngestConcurrency)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			chunks, err := p.Ingest(ctx, doc)
			results[i] = schema.IngestResult{
				Filename: doc.Filename,
				Chunks:   chunks,
				Err:      err,
			}
			// Failures are recorded per document, never propagated, so the
			// group context is not cancelled for the remaining documents.
			return nil
		})
	}

	g.Wait()
	return results
}
