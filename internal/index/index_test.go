package index

import (
	"math"
	"math/rand"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := CosineSimilarity(a, a); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("identical vectors: similarity = %v, want 1", got)
	}

	b := []float32{0, 1, 0}
	if got := CosineSimilarity(a, b); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal vectors: similarity = %v, want 0", got)
	}

	c := []float32{-1, 0, 0}
	if got := CosineSimilarity(a, c); math.Abs(float64(got+1)) > 1e-6 {
		t.Errorf("opposite vectors: similarity = %v, want -1", got)
	}

	if got := CosineSimilarity(a, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths: similarity = %v, want 0", got)
	}
}

func TestBruteForceRanking(t *testing.T) {
	idx := NewBruteForce()
	idx.Insert(1, []float32{1, 0})
	idx.Insert(2, []float32{0.7, 0.7})
	idx.Insert(3, []float32{0, 1})

	results := idx.Search([]float32{1, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 1 || results[1].ID != 2 {
		t.Errorf("expected ids [1 2], got [%d %d]", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted by descending score: %v", results)
	}
}

func TestBruteForceTieBreakByID(t *testing.T) {
	idx := NewBruteForce()
	// Same direction, so identical similarity to any query.
	idx.Insert(5, []float32{1, 1})
	idx.Insert(2, []float32{2, 2})
	idx.Insert(9, []float32{3, 3})

	results := idx.Search([]float32{1, 1}, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != 2 || results[1].ID != 5 || results[2].ID != 9 {
		t.Errorf("ties should order by ascending id, got %v", results)
	}
}

func TestBruteForceEmpty(t *testing.T) {
	idx := NewBruteForce()
	if results := idx.Search([]float32{1, 0}, 4); len(results) != 0 {
		t.Errorf("empty index should return no results, got %v", results)
	}
}

func TestHNSWMatchesBruteForceTopResult(t *testing.T) {
	const dim = 16
	const n = 300

	rng := rand.New(rand.NewSource(7))
	brute := NewBruteForce()
	hnsw := NewHNSW(DefaultHNSWConfig())

	for i := 0; i < n; i++ {
		vec := randomVector(rng, dim)
		brute.Insert(int64(i), vec)
		hnsw.Insert(int64(i), vec)
	}

	for q := 0; q < 10; q++ {
		query := randomVector(rng, dim)
		exact := brute.Search(query, 5)
		approx := hnsw.Search(query, 5)

		if len(approx) != 5 {
			t.Fatalf("query %d: expected 5 results, got %d", q, len(approx))
		}
		// The graph is effectively exact at this scale; allow a small margin
		// against the 3rd-best exact score rather than demanding identity.
		if approx[0].Score < exact[2].Score-1e-4 {
			t.Errorf("query %d: hnsw top score %v worse than exact 3rd score %v",
				q, approx[0].Score, exact[2].Score)
		}
		for i := 1; i < len(approx); i++ {
			if approx[i-1].Score < approx[i].Score {
				t.Errorf("query %d: results not sorted descending: %v", q, approx)
			}
		}
	}
}

func TestHNSWSingleNode(t *testing.T) {
	hnsw := NewHNSW(DefaultHNSWConfig())
	hnsw.Insert(42, []float32{0.5, 0.5})

	results := hnsw.Search([]float32{0.5, 0.5}, 4)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != 42 {
		t.Errorf("expected id 42, got %d", results[0].ID)
	}
	if math.Abs(float64(results[0].Score-1)) > 1e-5 {
		t.Errorf("self-similarity = %v, want ~1", results[0].Score)
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	return vec
}

func BenchmarkBruteForceSearch(b *testing.B) {
	benchmarkSearch(b, NewBruteForce())
}

func BenchmarkHNSWSearch(b *testing.B) {
	benchmarkSearch(b, NewHNSW(DefaultHNSWConfig()))
}

func benchmarkSearch(b *testing.B, idx Index) {
	const dim = 64
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 5000; i++ {
		idx.Insert(int64(i), randomVector(rng, dim))
	}
	query := randomVector(rng, dim)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Search(query, 10)
	}
}
