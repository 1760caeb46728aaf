package vectorcore

import (
	"container/heap"
	"math"
)

// Normalize returns a unit-length copy of v. A zero-magnitude vector is
// returned unchanged (the caller is expected to reject zero vectors at
// intake with ErrInvalidArgument; Normalize itself never errors so it stays
// usable as a pure building block for the index family).
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// IsZeroVector reports whether v has zero L2 norm.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity computes the dot product of two vectors. Callers must
// pass unit-normalized vectors for the result to be a true cosine in
// [-1, 1]; the function itself just computes the dot product so it stays
// cheap on the hot search path.
func CosineSimilarity(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// SquaredL2 computes squared Euclidean distance between two vectors. For
// unit vectors this equals 2 - 2*cos, so ranking ascending by SquaredL2 is
// identical to ranking descending by CosineSimilarity.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// CosineFromSquaredL2 recovers cosine similarity from the squared L2
// distance between two unit vectors via cos = 1 - L2²/2.
func CosineFromSquaredL2(sqL2 float32) float32 {
	return 1 - sqL2/2
}

// ScoredID pairs a record id with a similarity score, the unit of result
// produced by TopKCollector (index.Search implementations return their own
// index.Scored type).
type ScoredID struct {
	ID    string
	Score float32
}

// topKHeap is a bounded min-heap over ScoredID ordered by ascending score
// (so the root is the worst of the current top-k, the one to evict first).
// Ties break by descending id so that, once drained in reverse, results
// come out sorted by descending score then ascending id.
type topKHeap []ScoredID

func (h topKHeap) Len() int { return len(h) }
func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].ID > h[j].ID
}
func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredID))
}

func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopKCollector keeps the k best (id, score) pairs seen via Offer, ordered
// by descending score with ties broken by ascending id, as required by the
// spec's determinism rule.
type TopKCollector struct {
	k int
	h topKHeap
}

// NewTopKCollector creates a collector that retains at most k results.
func NewTopKCollector(k int) *TopKCollector {
	return &TopKCollector{k: k}
}

// Offer considers (id, score) for inclusion in the top-k.
func (c *TopKCollector) Offer(id string, score float32) {
	if c.k <= 0 {
		return
	}
	if c.h.Len() < c.k {
		heap.Push(&c.h, ScoredID{ID: id, Score: score})
		return
	}
	worst := c.h[0]
	if score > worst.Score || (score == worst.Score && id < worst.ID) {
		heap.Pop(&c.h)
		heap.Push(&c.h, ScoredID{ID: id, Score: score})
	}
}

// Results drains the collector into a slice ordered by descending score,
// ties broken by ascending id.
func (c *TopKCollector) Results() []ScoredID {
	n := c.h.Len()
	out := make([]ScoredID, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(&c.h).(ScoredID)
	}
	return out
}

// Len reports how many results are currently held.
func (c *TopKCollector) Len() int { return c.h.Len() }

// Worst returns the current worst (lowest-ranked) score held, and whether
// the collector is at capacity — useful for pruning decisions in
// branch-and-bound searches.
func (c *TopKCollector) Worst() (float32, bool) {
	if c.h.Len() < c.k {
		return 0, false
	}
	return c.h[0].Score, true
}
