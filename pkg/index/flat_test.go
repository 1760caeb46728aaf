package index

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestFlatIndexBasic(t *testing.T) {
	idx := NewFlatIndex(4)

	vectors := map[string][]float32{
		"vec1": {1.0, 0.0, 0.0, 0.0},
		"vec2": {0.0, 1.0, 0.0, 0.0},
		"vec3": {0.0, 0.0, 1.0, 0.0},
		"vec4": {0.7071, 0.7071, 0.0, 0.0},
	}

	for id, vec := range vectors {
		if err := idx.Insert(id, vec); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	if idx.Size() != 4 {
		t.Errorf("expected size 4, got %d", idx.Size())
	}

	results, err := idx.Search([]float32{1.0, 0.0, 0.0, 0.0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "vec1" {
		t.Errorf("expected closest result vec1, got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not in descending score order")
		}
	}
}

func TestFlatIndexBuildDeterministic(t *testing.T) {
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1, 0}, {0, 1}, {0.7071, 0.7071}}

	idx1 := NewFlatIndex(2)
	idx2 := NewFlatIndex(2)
	if err := idx1.Build(ids, vecs); err != nil {
		t.Fatalf("build idx1: %v", err)
	}
	if err := idx2.Build(ids, vecs); err != nil {
		t.Fatalf("build idx2: %v", err)
	}

	r1, _ := idx1.Search([]float32{1, 0}, 3)
	r2, _ := idx2.Search([]float32{1, 0}, 3)
	if len(r1) != len(r2) {
		t.Fatalf("result length mismatch: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, r1[i], r2[i])
		}
	}
}

func TestFlatIndexTieBreakAscendingID(t *testing.T) {
	idx := NewFlatIndex(2)
	_ = idx.Insert("zzz", []float32{1, 0})
	_ = idx.Insert("aaa", []float32{1, 0})
	_ = idx.Insert("mmm", []float32{1, 0})

	results, _ := idx.Search([]float32{1, 0}, 3)
	want := []string{"aaa", "mmm", "zzz"}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
}

func TestFlatIndexInsertOverwrite(t *testing.T) {
	idx := NewFlatIndex(2)
	_ = idx.Insert("v1", []float32{1, 0})
	_ = idx.Insert("v1", []float32{0, 1})

	if idx.Size() != 1 {
		t.Fatalf("expected size 1 after overwrite, got %d", idx.Size())
	}
	v, ok := idx.GetVector("v1")
	if !ok || v[1] != 1 {
		t.Errorf("expected overwritten vector {0,1}, got %v", v)
	}
}

func TestFlatIndexRemove(t *testing.T) {
	idx := NewFlatIndex(2)
	_ = idx.Insert("v1", []float32{1, 0})
	_ = idx.Insert("v2", []float32{0, 1})
	_ = idx.Insert("v3", []float32{1, 1})

	if !idx.Remove("v2") {
		t.Error("expected Remove to report true for existing id")
	}
	if idx.Size() != 2 {
		t.Errorf("expected size 2 after remove, got %d", idx.Size())
	}
	if idx.Remove("v2") {
		t.Error("expected Remove to report false for already-removed id")
	}

	results, _ := idx.Search([]float32{0, 1}, 3)
	for _, r := range results {
		if r.ID == "v2" {
			t.Error("removed vector still present in search results")
		}
	}

	// Remaining entries should still be reachable after the swap-truncate.
	if _, ok := idx.GetVector("v1"); !ok {
		t.Error("v1 missing after unrelated remove")
	}
	if _, ok := idx.GetVector("v3"); !ok {
		t.Error("v3 missing after unrelated remove")
	}
}

func TestFlatIndexUpdate(t *testing.T) {
	idx := NewFlatIndex(2)
	if idx.Update("missing", []float32{1, 0}) {
		t.Error("Update on absent id should report false")
	}

	_ = idx.Insert("v1", []float32{1, 0})
	if !idx.Update("v1", []float32{0, 1}) {
		t.Error("Update on present id should report true")
	}
	v, _ := idx.GetVector("v1")
	if v[0] != 0 || v[1] != 1 {
		t.Errorf("expected updated vector {0,1}, got %v", v)
	}
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)
	if err := idx.Insert("v1", []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error on insert")
	}
	_ = idx.Insert("v2", []float32{1, 0, 0})
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error on search")
	}
}

func TestFlatIndexEmptySearch(t *testing.T) {
	idx := NewFlatIndex(3)
	results, err := idx.Search([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results on empty index, got %d", len(results))
	}
}

func TestFlatIndexKGreaterThanSize(t *testing.T) {
	idx := NewFlatIndex(3)
	_ = idx.Insert("v1", []float32{1, 0, 0})
	_ = idx.Insert("v2", []float32{0, 1, 0})

	results, _ := idx.Search([]float32{0.5, 0.5, 0}, 10)
	if len(results) != 2 {
		t.Errorf("expected 2 results (all vectors), got %d", len(results))
	}
}

func TestFlatIndexType(t *testing.T) {
	if NewFlatIndex(4).Type() != "FLAT" {
		t.Error("expected Type() == FLAT")
	}
}

func BenchmarkFlatIndexInsert(b *testing.B) {
	idx := NewFlatIndex(128)
	vector := make([]float32, 128)
	for i := range vector {
		vector[i] = rand.Float32()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Insert(fmt.Sprintf("vec_%d", i), vector)
	}
}

func BenchmarkFlatIndexSearch(b *testing.B) {
	idx := NewFlatIndex(128)
	for i := 0; i < 1000; i++ {
		vector := make([]float32, 128)
		for j := range vector {
			vector[j] = rand.Float32()
		}
		_ = idx.Insert(fmt.Sprintf("vec_%d", i), vector)
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
