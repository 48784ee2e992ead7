package index

import (
	"container/heap"
	"sort"
	"sync"
)

// Result is one index hit: the record id and its cosine similarity to the
// query vector.
type Result struct {
	ID    int64
	Score float32
}

// Index is the contract shared by the brute-force and HNSW implementations.
// Search returns at most topK results ordered by descending score; equal
// scores are ordered by ascending id so results are stable for a fixed index
// state.
type Index interface {
	Insert(id int64, vector []float32)
	Search(query []float32, topK int) []Result
	Len() int
}

type bruteEntry struct {
	id     int64
	vector []float32
}

// BruteForce is an exact nearest-neighbor index using a linear scan. It is the
// reference implementation: O(n) per query, but never wrong. Small corpora and
// tests use it directly.
type BruteForce struct {
	mu      sync.RWMutex
	entries []bruteEntry
}

// NewBruteForce creates an empty brute-force index.
func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Insert adds a vector under the given id.
func (idx *BruteForce) Insert(id int64, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, bruteEntry{id: id, vector: vector})
}

// Search scans every stored vector and keeps the topK best scores in a
// min-heap, then emits them in descending order.
func (idx *BruteForce) Search(query []float32, topK int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 || topK <= 0 {
		return []Result{}
	}

	h := &resultHeap{}
	heap.Init(h)

	for _, e := range idx.entries {
		score := CosineSimilarity(query, e.vector)
		if h.Len() < topK {
			heap.Push(h, Result{ID: e.id, Score: score})
		} else if worse((*h)[0], Result{ID: e.id, Score: score}) {
			heap.Pop(h)
			heap.Push(h, Result{ID: e.id, Score: score})
		}
	}

	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Result)
	}
	sortResults(results)
	return results
}

// Len returns the number of stored vectors.
func (idx *BruteForce) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// worse reports whether a ranks below b: lower score, or equal score with a
// higher insertion id.
func worse(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

// resultHeap is a min-heap of Results keyed on (score, inverse id), so the
// root is always the entry to evict first.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return worse(h[i], h[j]) }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ Index = (*BruteForce)(nil)
