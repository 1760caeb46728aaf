package index

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// LshIndex implements locality-sensitive hashing via random-hyperplane
// signatures: an approximate index trading exactness for sublinear lookup
// once the dataset is large. The construction seed is a required parameter
// so that two indexes built from identical (ids, vectors) with the same
// seed hash identically, so rebuilds and tests are reproducible.
type LshIndex struct {
	mu sync.RWMutex

	dimension    int
	numTables    int
	numHashFuncs int
	seed         int64

	hyperplanes [][][]float32        // [table][hashFunc][dimension]
	buckets     []map[uint64][]string // [table] hash -> ids
	vectors     map[string][]float32
}

// LshConfig parameterizes an LshIndex. Seed must be supplied explicitly:
// there is no "random" default, since an unseeded LSH index could not be
// rebuilt to an identical bucket layout.
type LshConfig struct {
	Dimension    int
	NumTables    int
	NumHashFuncs int
	Seed         int64
}

const (
	defaultLshNumTables    = 8
	defaultLshNumHashFuncs = 10
	lshMultiProbe          = 2 // nearby buckets probed per table to improve recall
)

// NewLshIndex builds an LshIndex with the given configuration, generating
// its random hyperplanes deterministically from Seed.
func NewLshIndex(cfg LshConfig) *LshIndex {
	if cfg.NumTables <= 0 {
		cfg.NumTables = defaultLshNumTables
	}
	if cfg.NumHashFuncs <= 0 {
		cfg.NumHashFuncs = defaultLshNumHashFuncs
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	hyperplanes := make([][][]float32, cfg.NumTables)
	for t := 0; t < cfg.NumTables; t++ {
		hyperplanes[t] = make([][]float32, cfg.NumHashFuncs)
		for h := 0; h < cfg.NumHashFuncs; h++ {
			plane := make([]float32, cfg.Dimension)
			for d := 0; d < cfg.Dimension; d++ {
				plane[d] = float32(rng.NormFloat64())
			}
			hyperplanes[t][h] = plane
		}
	}

	buckets := make([]map[uint64][]string, cfg.NumTables)
	for t := range buckets {
		buckets[t] = make(map[uint64][]string)
	}

	return &LshIndex{
		dimension:    cfg.Dimension,
		numTables:    cfg.NumTables,
		numHashFuncs: cfg.NumHashFuncs,
		seed:         cfg.Seed,
		hyperplanes:  hyperplanes,
		buckets:      buckets,
		vectors:      make(map[string][]float32),
	}
}

// Build replaces any prior content, inserting ids/vectors in order.
func (l *LshIndex) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return &DimensionError{Expected: len(ids), Actual: len(vectors)}
	}
	for _, v := range vectors {
		if len(v) != l.dimension {
			return &DimensionError{Expected: l.dimension, Actual: len(v)}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.vectors = make(map[string][]float32, len(ids))
	for t := range l.buckets {
		l.buckets[t] = make(map[uint64][]string)
	}
	for i, id := range ids {
		l.insertLocked(id, vectors[i])
	}
	return nil
}

// Insert adds a single vector to every hash table's bucket.
func (l *LshIndex) Insert(id string, vector []float32) error {
	if len(vector) != l.dimension {
		return &DimensionError{Expected: l.dimension, Actual: len(vector)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.vectors[id]; exists {
		l.removeLocked(id)
	}
	l.insertLocked(id, vector)
	return nil
}

func (l *LshIndex) insertLocked(id string, vector []float32) {
	v := make([]float32, len(vector))
	copy(v, vector)
	l.vectors[id] = v
	for t := 0; t < l.numTables; t++ {
		h := l.hash(v, t)
		l.buckets[t][h] = append(l.buckets[t][h], id)
	}
}

// Remove deletes id from the vector store and every bucket it occupies.
func (l *LshIndex) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.vectors[id]; !exists {
		return false
	}
	l.removeLocked(id)
	return true
}

func (l *LshIndex) removeLocked(id string) {
	vector := l.vectors[id]
	for t := 0; t < l.numTables; t++ {
		h := l.hash(vector, t)
		bucket := l.buckets[t][h]
		out := bucket[:0]
		for _, bid := range bucket {
			if bid != id {
				out = append(out, bid)
			}
		}
		if len(out) == 0 {
			delete(l.buckets[t], h)
		} else {
			l.buckets[t][h] = out
		}
	}
	delete(l.vectors, id)
}

// Update re-hashes id's vector, since its bucket membership may change.
func (l *LshIndex) Update(id string, vector []float32) bool {
	if len(vector) != l.dimension {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.vectors[id]; !exists {
		return false
	}
	l.removeLocked(id)
	l.insertLocked(id, vector)
	return true
}

// Search unions the query's bucket (plus a small multi-probe neighborhood)
// across all hash tables, exactly scores the resulting candidate set, and
// returns the top-k. Recall is approximate: true neighbors hashed into a
// different bucket in every table are missed.
func (l *LshIndex) Search(query []float32, k int) ([]Scored, error) {
	scored, _, err := l.SearchConsidered(query, k)
	return scored, err
}

// SearchConsidered behaves like Search but also reports the size of the
// bucket-union candidate set that was scored, which is typically far smaller
// than Size() and is what a caller reporting "how much of the index did this
// query actually touch" should use instead of Size().
func (l *LshIndex) SearchConsidered(query []float32, k int) ([]Scored, int, error) {
	if len(query) != l.dimension {
		return nil, 0, &DimensionError{Expected: l.dimension, Actual: len(query)}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.vectors) == 0 || k <= 0 {
		return []Scored{}, 0, nil
	}

	candidates := make(map[string]struct{})
	for t := 0; t < l.numTables; t++ {
		for _, h := range l.probeHashes(query, t) {
			for _, id := range l.buckets[t][h] {
				candidates[id] = struct{}{}
			}
		}
	}

	// An empty bucket union must never starve a non-empty index: fall back
	// to scanning every stored vector so Search only returns empty when
	// Size() == 0.
	if len(candidates) == 0 {
		for id := range l.vectors {
			candidates[id] = struct{}{}
		}
	}

	scored := make([]Scored, 0, len(candidates))
	for id := range candidates {
		scored = append(scored, Scored{ID: id, Score: cosine(query, l.vectors[id])})
	}
	sort.Slice(scored, func(i, j int) bool {
		return better(scored[i].Score, scored[i].ID, scored[j].Score, scored[j].ID)
	})

	considered := len(candidates)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, considered, nil
}

// Size returns the number of indexed vectors.
func (l *LshIndex) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.vectors)
}

// Type reports the index family name.
func (l *LshIndex) Type() string { return "LSH" }

// hash computes the sign-based bit signature of vector under table t.
func (l *LshIndex) hash(vector []float32, t int) uint64 {
	var h uint64
	for i, plane := range l.hyperplanes[t] {
		if dot32(vector, plane) > 0 {
			h |= 1 << uint(i)
		}
	}
	return h
}

// probeHashes returns the query's own bucket hash plus the hashes reached by
// flipping the bits closest to the hyperplane boundary (multi-probe LSH),
// widening the candidate set without scanning every bucket.
func (l *LshIndex) probeHashes(vector []float32, t int) []uint64 {
	base := l.hash(vector, t)
	type flip struct {
		bit  int
		dist float32
	}
	flips := make([]flip, l.numHashFuncs)
	for i, plane := range l.hyperplanes[t] {
		flips[i] = flip{bit: i, dist: float32(math.Abs(float64(dot32(vector, plane))))}
	}
	sort.Slice(flips, func(i, j int) bool { return flips[i].dist < flips[j].dist })

	probes := make([]uint64, 0, lshMultiProbe+1)
	probes = append(probes, base)
	for i := 0; i < lshMultiProbe && i < len(flips); i++ {
		probes = append(probes, base^(1<<uint(flips[i].bit)))
	}
	return probes
}

func dot32(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
