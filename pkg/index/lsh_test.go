package index

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func normalizeTestVector(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func TestLshIndexBasic(t *testing.T) {
	idx := NewLshIndex(LshConfig{Dimension: 4, NumTables: 8, NumHashFuncs: 6, Seed: 42})

	vectors := map[string][]float32{
		"vec1": {1, 0, 0, 0},
		"vec2": {0, 1, 0, 0},
		"vec3": {0, 0, 1, 0},
		"vec4": normalizeTestVector([]float32{1, 1, 0, 0}),
		"vec5": normalizeTestVector([]float32{1, 0, 1, 0}),
	}
	for id, v := range vectors {
		if err := idx.Insert(id, v); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	if idx.Size() != 5 {
		t.Errorf("expected size 5, got %d", idx.Size())
	}

	results, err := idx.Search([]float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if results[0].ID != "vec1" {
		t.Errorf("expected vec1 as closest match, got %s", results[0].ID)
	}
}

func TestLshIndexDeterministicBuild(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	vecs := [][]float32{{1, 0}, {0, 1}, {0.7071, 0.7071}, {-1, 0}}

	idx1 := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 7})
	idx2 := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 7})
	_ = idx1.Build(ids, vecs)
	_ = idx2.Build(ids, vecs)

	r1, _ := idx1.Search([]float32{1, 0}, 4)
	r2, _ := idx2.Search([]float32{1, 0}, 4)
	if len(r1) != len(r2) {
		t.Fatalf("same-seed builds returned different candidate counts: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Errorf("same-seed builds diverged at %d: %+v vs %+v", i, r1[i], r2[i])
		}
	}
}

func TestLshIndexDifferentSeedsCanDiffer(t *testing.T) {
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1, 0}, {0, 1}, {0.7071, 0.7071}}

	idxA := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 1})
	idxB := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 2})
	_ = idxA.Build(ids, vecs)
	_ = idxB.Build(ids, vecs)

	// Not asserting they must differ (they could coincide by chance with tiny
	// inputs), just that both remain usable and internally consistent.
	if idxA.Size() != 3 || idxB.Size() != 3 {
		t.Fatal("expected both indexes fully built")
	}
}

func TestLshIndexRemove(t *testing.T) {
	idx := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 3})
	_ = idx.Insert("v1", []float32{1, 0})
	_ = idx.Insert("v2", []float32{0, 1})

	if !idx.Remove("v1") {
		t.Error("expected Remove true for existing id")
	}
	if idx.Remove("v1") {
		t.Error("expected Remove false for already-removed id")
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1 after remove, got %d", idx.Size())
	}
}

func TestLshIndexUpdate(t *testing.T) {
	idx := NewLshIndex(LshConfig{Dimension: 2, NumTables: 4, NumHashFuncs: 3, Seed: 4})
	if idx.Update("missing", []float32{1, 0}) {
		t.Error("Update on absent id should report false")
	}
	_ = idx.Insert("v1", []float32{1, 0})
	if !idx.Update("v1", []float32{0, 1}) {
		t.Error("Update on present id should report true")
	}
}

func TestLshIndexDimensionMismatch(t *testing.T) {
	idx := NewLshIndex(LshConfig{Dimension: 3, NumTables: 4, NumHashFuncs: 3, Seed: 5})
	if err := idx.Insert("v1", []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	_ = idx.Insert("v2", []float32{1, 0, 0})
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error on search")
	}
}

func TestLshIndexType(t *testing.T) {
	if NewLshIndex(LshConfig{Dimension: 2}).Type() != "LSH" {
		t.Error("expected Type() == LSH")
	}
}

// TestLshIndexRecallAgainstFlatGroundTruth checks that LshIndex's top-k
// results cover a seeded lower-bound fraction of FlatIndex's exact top-k, on
// a fixed synthetic dataset. This is a regression guard against recall
// silently collapsing (e.g. a multi-probe or bucket-union change that
// narrows the candidate set too far), not a claim about any theoretical
// recall bound.
func TestLshIndexRecallAgainstFlatGroundTruth(t *testing.T) {
	const (
		numVectors = 500
		dimension  = 32
		k          = 10
		numQueries = 30
		minRecall  = 0.2
	)

	ids, vecs := randomUnitVectors(numVectors, dimension, 1234)

	flat := NewFlatIndex(dimension)
	if err := flat.Build(ids, vecs); err != nil {
		t.Fatalf("build flat: %v", err)
	}

	lsh := NewLshIndex(LshConfig{
		Dimension:    dimension,
		NumTables:    8,
		NumHashFuncs: 10,
		Seed:         5678,
	})
	if err := lsh.Build(ids, vecs); err != nil {
		t.Fatalf("build lsh: %v", err)
	}

	_, queryVecs := randomUnitVectors(numQueries, dimension, 9999)

	var totalHit, totalWant int
	for _, q := range queryVecs {
		want, err := flat.Search(q, k)
		if err != nil {
			t.Fatalf("flat search: %v", err)
		}
		got, err := lsh.Search(q, k)
		if err != nil {
			t.Fatalf("lsh search: %v", err)
		}

		gotIDs := make(map[string]struct{}, len(got))
		for _, s := range got {
			gotIDs[s.ID] = struct{}{}
		}
		for _, s := range want {
			totalWant++
			if _, ok := gotIDs[s.ID]; ok {
				totalHit++
			}
		}
	}

	recall := float64(totalHit) / float64(totalWant)
	if recall < minRecall {
		t.Errorf("recall@%d = %.3f, want >= %.2f (hit %d/%d)", k, recall, minRecall, totalHit, totalWant)
	}
}

func BenchmarkLshIndexSearch(b *testing.B) {
	idx := NewLshIndex(LshConfig{Dimension: 128, NumTables: 8, NumHashFuncs: 10, Seed: 99})
	for i := 0; i < 5000; i++ {
		v := make([]float32, 128)
		for j := range v {
			v[j] = rand.Float32()
		}
		_ = idx.Insert(fmt.Sprintf("vec_%d", i), v)
	}

	query := make([]float32, 128)
	for i := range query {
		query[i] = rand.Float32()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(query, 10)
	}
}
