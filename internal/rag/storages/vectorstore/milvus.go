package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"studypal/internal/database/milvus"
	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/schema"
	"studypal/pkg/logger"
)

// Field names of the Milvus collection schema. The id field is an
// auto-generated Int64 primary key; auto ids increase with insertion order,
// which preserves the tie-break contract of the store interface.
const (
	FieldID        = "id"
	FieldContent   = "content"
	FieldEmbedding = "embedding"
)

// MilvusStore is a VectorStore backed by a Milvus collection. Writes are
// acknowledged once Milvus accepts them; segment flushing makes them visible
// to queries shortly after, so a record may briefly be absent from results
// right after ingestion.
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
	searchEf   int
	log        *logger.Logger
}

// NewMilvusStore creates a store over an existing collection. The collection
// must have been created with the matching dimension; EnsureCollection on the
// database client does that at startup.
func NewMilvusStore(client *milvus.Client, collection string, dimension, searchEf int) (*MilvusStore, error) {
	if client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	if searchEf <= 0 {
		searchEf = 64
	}
	return &MilvusStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
		searchEf:   searchEf,
		log:        logger.New("milvus_store"),
	}, nil
}

// Write inserts all records in one call. Dimensions are checked before the
// insert so a bad record rejects the whole batch with no effect.
func (s *MilvusStore) Write(ctx context.Context, records []schema.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	contents := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	for i, rec := range records {
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(rec.Embedding), s.dimension)
		}
		contents[i] = rec.Content
		embeddings[i] = rec.Embedding
	}

	contentCol := entity.NewColumnVarChar(FieldContent, contents)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, s.dimension, embeddings)

	if _, err := s.client.Client.Insert(ctx, s.collection, "", contentCol, embeddingCol); err != nil {
		s.log.WithError(err).Error("milvus insert failed")
		return fmt.Errorf("%w: insert: %v", ErrStorageUnavailable, err)
	}

	s.log.WithField("records", len(records)).Debug("inserted records into milvus")
	return nil
}

// Query searches the collection and keeps results whose cosine similarity is
// strictly greater than threshold, best first, at most limit entries.
func (s *MilvusStore) Query(ctx context.Context, vector []float32, threshold float32, limit int) ([]schema.RetrievalResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		return []schema.RetrievalResult{}, nil
	}

	searchParams, err := entity.NewIndexHNSWSearchParam(s.searchEf)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}

	searchResults, err := s.client.Client.Search(
		ctx, s.collection, []string{}, "", []string{FieldContent},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, limit, searchParams,
	)
	if err != nil {
		s.log.WithError(err).Error("milvus search failed")
		return nil, fmt.Errorf("%w: search: %v", ErrStorageUnavailable, err)
	}

	results := make([]schema.RetrievalResult, 0, limit)
	for _, res := range searchResults {
		var contentData []string
		for _, field := range res.Fields {
			if col, ok := field.(*entity.ColumnVarChar); ok && col.Name() == FieldContent {
				contentData = col.Data()
			}
		}
		if contentData == nil {
			s.log.Warn("search result is missing the content field, skipping")
			continue
		}

		for i := 0; i < res.ResultCount && i < len(contentData); i++ {
			if res.Scores[i] <= threshold {
				continue
			}
			results = append(results, schema.RetrievalResult{
				Content:    contentData[i],
				Similarity: res.Scores[i],
			})
		}
	}
	return results, nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
