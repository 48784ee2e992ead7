package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// HNSWConfig holds the tuning knobs of the HNSW graph.
//
// Reference: "Efficient and robust approximate nearest neighbor search using
// Hierarchical Navigable Small World graphs", Malkov & Yashunin (2016).
type HNSWConfig struct {
	// M is the maximum number of connections per node above layer 0.
	M int
	// MMax is the connection cap at layer 0, conventionally 2*M.
	MMax int
	// EfConstruction is the beam width while building the graph.
	EfConstruction int
	// EfSearch is the beam width at query time. It is raised to topK when a
	// caller asks for more results than the configured beam.
	EfSearch int
	// ML is the level generation factor, conventionally 1/ln(M).
	ML float64
}

// DefaultHNSWConfig returns the parameters used when configuration does not
// override them.
func DefaultHNSWConfig() HNSWConfig {
	m := 16
	return HNSWConfig{
		M:              m,
		MMax:           m * 2,
		EfConstruction: 200,
		EfSearch:       100,
		ML:             1.0 / math.Log(float64(m)),
	}
}

type hnswNode struct {
	id        int64
	vector    []float32
	neighbors [][]int64 // neighbors[layer] = ids connected at that layer
	layer     int
}

// HNSW is a graph-based approximate nearest-neighbor index keyed on cosine
// similarity. Writes become searchable as soon as Insert returns; there is no
// rebuild step.
type HNSW struct {
	mu       sync.RWMutex
	nodes    map[int64]*hnswNode
	entry    int64
	hasEntry bool
	maxLevel int
	config   HNSWConfig
	rng      *rand.Rand
}

// NewHNSW creates an empty HNSW index. The level generator is seeded
// deterministically so a store rebuilt from the same records yields the same
// graph, which keeps query results reproducible across restarts.
func NewHNSW(config HNSWConfig) *HNSW {
	return &HNSW{
		nodes:    make(map[int64]*hnswNode),
		maxLevel: -1,
		config:   config,
		rng:      rand.New(rand.NewSource(1)),
	}
}

// Insert adds a vector under the given id.
func (idx *HNSW) Insert(id int64, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	level := idx.randomLevel()
	node := &hnswNode{
		id:        id,
		vector:    vector,
		neighbors: make([][]int64, level+1),
		layer:     level,
	}
	idx.nodes[id] = node

	if !idx.hasEntry {
		idx.entry = id
		idx.hasEntry = true
		idx.maxLevel = level
		return
	}

	// Greedy descent from the top layer to level+1.
	entryID := idx.greedyDescend(vector, idx.entry, idx.maxLevel, level)

	// Connect at each layer from min(level, maxLevel) down to 0.
	for l := minInt(level, idx.maxLevel); l >= 0; l-- {
		candidates := idx.searchLayer(vector, entryID, idx.config.EfConstruction, l)

		mLayer := idx.config.M
		if l == 0 {
			mLayer = idx.config.MMax
		}
		if len(candidates) > mLayer {
			candidates = candidates[:mLayer]
		}

		node.neighbors[l] = make([]int64, 0, len(candidates))
		for _, c := range candidates {
			node.neighbors[l] = append(node.neighbors[l], c.id)

			neighbor := idx.nodes[c.id]
			if neighbor == nil || l >= len(neighbor.neighbors) {
				continue
			}
			neighbor.neighbors[l] = append(neighbor.neighbors[l], id)
			if len(neighbor.neighbors[l]) > mLayer {
				neighbor.neighbors[l] = idx.prune(neighbor.vector, neighbor.neighbors[l], mLayer)
			}
		}

		if len(candidates) > 0 {
			entryID = candidates[0].id
		}
	}

	if level > idx.maxLevel {
		idx.entry = id
		idx.maxLevel = level
	}
}

// Search returns up to topK approximate nearest neighbors ordered by
// descending similarity, ids ascending on ties.
func (idx *HNSW) Search(query []float32, topK int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.hasEntry || topK <= 0 {
		return []Result{}
	}

	entryID := idx.greedyDescend(query, idx.entry, idx.maxLevel, 0)

	ef := idx.config.EfSearch
	if ef < topK {
		ef = topK
	}
	candidates := idx.searchLayer(query, entryID, ef, 0)

	results := make([]Result, 0, topK)
	for i := 0; i < len(candidates) && i < topK; i++ {
		results = append(results, Result{
			ID:    candidates[i].id,
			Score: 1 - candidates[i].distance,
		})
	}
	sortResults(results)
	return results
}

// Len returns the number of stored vectors.
func (idx *HNSW) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

// greedyDescend walks the upper layers from fromLevel down to toLevel+1,
// always moving to the closest neighbor, and returns the entry id for the
// next phase.
func (idx *HNSW) greedyDescend(query []float32, entryID int64, fromLevel, toLevel int) int64 {
	current := idx.nodes[entryID]
	for l := fromLevel; l > toLevel; l-- {
		changed := true
		for changed {
			changed = false
			if l >= len(current.neighbors) {
				continue
			}
			for _, neighborID := range current.neighbors[l] {
				neighbor := idx.nodes[neighborID]
				if neighbor == nil {
					continue
				}
				if CosineDistance(query, neighbor.vector) < CosineDistance(query, current.vector) {
					current = neighbor
					entryID = neighborID
					changed = true
				}
			}
		}
	}
	return entryID
}

type distanceEntry struct {
	id       int64
	distance float32
}

// searchLayer performs beam search with width ef at one layer and returns the
// visited candidates ordered by ascending distance.
func (idx *HNSW) searchLayer(query []float32, entryID int64, ef int, layer int) []distanceEntry {
	entryNode := idx.nodes[entryID]
	if entryNode == nil {
		return nil
	}

	visited := map[int64]bool{entryID: true}

	candidates := &minDistanceHeap{}
	results := &maxDistanceHeap{}
	heap.Init(candidates)
	heap.Init(results)

	entryDist := CosineDistance(query, entryNode.vector)
	heap.Push(candidates, distanceEntry{id: entryID, distance: entryDist})
	heap.Push(results, distanceEntry{id: entryID, distance: entryDist})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distanceEntry)
		if results.Len() > 0 && closest.distance > (*results)[0].distance {
			break
		}

		node := idx.nodes[closest.id]
		if node == nil || layer >= len(node.neighbors) {
			continue
		}

		for _, neighborID := range node.neighbors[layer] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor := idx.nodes[neighborID]
			if neighbor == nil {
				continue
			}

			dist := CosineDistance(query, neighbor.vector)
			if results.Len() < ef {
				heap.Push(candidates, distanceEntry{id: neighborID, distance: dist})
				heap.Push(results, distanceEntry{id: neighborID, distance: dist})
			} else if dist < (*results)[0].distance {
				heap.Push(candidates, distanceEntry{id: neighborID, distance: dist})
				heap.Pop(results)
				heap.Push(results, distanceEntry{id: neighborID, distance: dist})
			}
		}
	}

	output := make([]distanceEntry, results.Len())
	for i := len(output) - 1; i >= 0; i-- {
		output[i] = heap.Pop(results).(distanceEntry)
	}
	sort.Slice(output, func(i, j int) bool {
		if output[i].distance != output[j].distance {
			return output[i].distance < output[j].distance
		}
		return output[i].id < output[j].id
	})
	return output
}

// prune trims a neighbor list back down to m entries, keeping the closest.
func (idx *HNSW) prune(vector []float32, neighborIDs []int64, m int) []int64 {
	if len(neighborIDs) <= m {
		return neighborIDs
	}

	dists := make([]distanceEntry, 0, len(neighborIDs))
	for _, nid := range neighborIDs {
		node := idx.nodes[nid]
		if node == nil {
			continue
		}
		dists = append(dists, distanceEntry{id: nid, distance: CosineDistance(vector, node.vector)})
	}
	sort.Slice(dists, func(i, j int) bool {
		if dists[i].distance != dists[j].distance {
			return dists[i].distance < dists[j].distance
		}
		return dists[i].id < dists[j].id
	})

	kept := make([]int64, 0, m)
	for i := 0; i < m && i < len(dists); i++ {
		kept = append(kept, dists[i].id)
	}
	return kept
}

// randomLevel draws a level with P(level = l) decaying geometrically.
func (idx *HNSW) randomLevel() int {
	level := 0
	for idx.rng.Float64() < idx.config.ML && level < 16 {
		level++
	}
	return level
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// minDistanceHeap pops the closest entry first.
type minDistanceHeap []distanceEntry

func (h minDistanceHeap) Len() int            { return len(h) }
func (h minDistanceHeap) Less(i, j int) bool  { return h[i].distance < h[j].distance }
func (h minDistanceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minDistanceHeap) Push(x interface{}) { *h = append(*h, x.(distanceEntry)) }
func (h *minDistanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxDistanceHeap pops the furthest entry first, used to evict the worst
// result when the beam is full.
type maxDistanceHeap []distanceEntry

func (h maxDistanceHeap) Len() int            { return len(h) }
func (h maxDistanceHeap) Less(i, j int) bool  { return h[i].distance > h[j].distance }
func (h maxDistanceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistanceHeap) Push(x interface{}) { *h = append(*h, x.(distanceEntry)) }
func (h *maxDistanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ Index = (*HNSW)(nil)
