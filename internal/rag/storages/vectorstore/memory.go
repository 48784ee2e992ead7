package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"studypal/internal/index"
	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/schema"
)

// MemoryStore keeps embedding records in an in-process vector index. Records
// get monotonically increasing ids in insertion order, which is also the
// tie-break order for equal similarity scores.
type MemoryStore struct {
	mu        sync.RWMutex
	idx       index.Index
	contents  map[int64]string
	dimension int
	nextID    int64
}

// NewMemoryStore creates a store that accepts vectors of the given dimension.
// The index decides the search strategy: brute force for exactness, HNSW for
// larger corpora.
func NewMemoryStore(idx index.Index, dimension int) *MemoryStore {
	return &MemoryStore{
		idx:       idx,
		contents:  make(map[int64]string),
		dimension: dimension,
	}
}

// Write appends all records, or none: every vector is dimension-checked
// before the first insert, so a bad record cannot leave a partial batch
// behind.
func (s *MemoryStore) Write(ctx context.Context, records []schema.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, rec := range records {
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(rec.Embedding), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		id := s.nextID
		s.nextID++
		s.idx.Insert(id, rec.Embedding)
		s.contents[id] = rec.Content
	}
	return nil
}

// Query returns the stored records whose cosine similarity to the vector is
// strictly greater than threshold, best first, at most limit entries.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, threshold float32, limit int) ([]schema.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		return []schema.RetrievalResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Filtering after a top-limit search is sound: the threshold only removes
	// results, so nothing below the returned set could have qualified.
	hits := s.idx.Search(vector, limit)
	results := make([]schema.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= threshold {
			continue
		}
		results = append(results, schema.RetrievalResult{
			Content:    s.contents[hit.ID],
			Similarity: hit.Score,
		})
	}
	return results, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len()
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
