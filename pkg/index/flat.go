package index

import (
	"container/heap"
	"sync"
)

// FlatIndex is a brute-force exact index: it scores every stored vector
// against the query. It is the correctness oracle the other index families
// are tested against, and the engine's fallback for filtered queries.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32
	ids       []string       // slot-ordered ids; Remove swaps the last id into the freed slot
	pos       map[string]int // id -> index into ids
}

// NewFlatIndex creates an empty flat index committed to dimension.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
		pos:       make(map[string]int),
	}
}

// Build replaces any prior content with ids/vectors. O(n).
func (f *FlatIndex) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return &DimensionError{Expected: len(ids), Actual: len(vectors)}
	}
	for _, v := range vectors {
		if len(v) != f.dimension {
			return &DimensionError{Expected: f.dimension, Actual: len(v)}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.vectors = make(map[string][]float32, len(ids))
	f.ids = make([]string, 0, len(ids))
	f.pos = make(map[string]int, len(ids))
	for i, id := range ids {
		v := make([]float32, len(vectors[i]))
		copy(v, vectors[i])
		f.vectors[id] = v
		f.pos[id] = len(f.ids)
		f.ids = append(f.ids, id)
	}
	return nil
}

// Insert appends a single record, or overwrites it if already present. O(1).
func (f *FlatIndex) Insert(id string, vector []float32) error {
	if len(vector) != f.dimension {
		return &DimensionError{Expected: f.dimension, Actual: len(vector)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	v := make([]float32, len(vector))
	copy(v, vector)

	if _, exists := f.pos[id]; exists {
		f.vectors[id] = v
		return nil
	}
	f.vectors[id] = v
	f.pos[id] = len(f.ids)
	f.ids = append(f.ids, id)
	return nil
}

// Remove deletes id by swapping it with the last entry and truncating. O(1).
func (f *FlatIndex) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, exists := f.pos[id]
	if !exists {
		return false
	}

	last := len(f.ids) - 1
	lastID := f.ids[last]
	f.ids[idx] = lastID
	f.pos[lastID] = idx
	f.ids = f.ids[:last]

	delete(f.vectors, id)
	delete(f.pos, id)
	return true
}

// Update replaces id's vector, equivalent to Remove then Insert semantically.
func (f *FlatIndex) Update(id string, vector []float32) bool {
	f.mu.RLock()
	_, exists := f.pos[id]
	f.mu.RUnlock()
	if !exists {
		return false
	}
	_ = f.Insert(id, vector)
	return true
}

// Search scores every stored vector against query and returns the top-k via
// a bounded max-heap, descending by cosine with ties by ascending id. O(n*d).
func (f *FlatIndex) Search(query []float32, k int) ([]Scored, error) {
	if len(query) != f.dimension {
		return nil, &DimensionError{Expected: f.dimension, Actual: len(query)}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 || k <= 0 {
		return []Scored{}, nil
	}

	h := &flatMaxHeap{}
	heap.Init(h)

	for id, vector := range f.vectors {
		score := cosine(query, vector)
		if h.Len() < k {
			heap.Push(h, Scored{ID: id, Score: score})
		} else if better(score, id, (*h)[0].Score, (*h)[0].ID) {
			heap.Pop(h)
			heap.Push(h, Scored{ID: id, Score: score})
		}
	}

	out := make([]Scored, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Scored)
	}
	return out, nil
}

// Size returns the number of indexed records.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Type reports the index family name.
func (f *FlatIndex) Type() string { return "FLAT" }

// GetVector returns a copy of the stored vector for id, and false if id is
// not indexed.
func (f *FlatIndex) GetVector(id string) ([]float32, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.vectors[id]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// cosine computes the dot product of two equal-length unit vectors.
func cosine(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// better reports whether (scoreA, idA) ranks ahead of (scoreB, idB) under
// descending-score, ascending-id tie-break ordering.
func better(scoreA float32, idA string, scoreB float32, idB string) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return idA < idB
}

// flatMaxHeap is a bounded heap over Scored ordered so the current worst
// top-k member sits at the root and is evicted first.
type flatMaxHeap []Scored

func (h flatMaxHeap) Len() int { return len(h) }
func (h flatMaxHeap) Less(i, j int) bool {
	return !better(h[i].Score, h[i].ID, h[j].Score, h[j].ID)
}
func (h flatMaxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *flatMaxHeap) Push(x interface{}) {
	*h = append(*h, x.(Scored))
}

func (h *flatMaxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}