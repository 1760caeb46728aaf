package index

import (
	"fmt"
	"math/rand"
	"testing"
)

func randomUnitVectors(n, dim int, seed int64) ([]string, [][]float32) {
	rng := rand.New(rand.NewSource(seed))
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		var sumSq float64
		for d := 0; d < dim; d++ {
			v[d] = float32(rng.NormFloat64())
			sumSq += float64(v[d]) * float64(v[d])
		}
		norm := float32(1)
		if sumSq > 0 {
			norm = float32(1 / sqrtf(sumSq))
		}
		for d := range v {
			v[d] *= norm
		}
		ids[i] = fmt.Sprintf("v%d", i)
		vecs[i] = v
	}
	return ids, vecs
}

func sqrtf(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func TestKdTreeIndexMatchesFlatIndex(t *testing.T) {
	ids, vecs := randomUnitVectors(200, 6, 1)

	flat := NewFlatIndex(6)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 6})
	if err := flat.Build(ids, vecs); err != nil {
		t.Fatalf("build flat: %v", err)
	}
	if err := kd.Build(ids, vecs); err != nil {
		t.Fatalf("build kd: %v", err)
	}

	query := vecs[0]
	flatResults, _ := flat.Search(query, 10)
	kdResults, _ := kd.Search(query, 10)

	if len(flatResults) != len(kdResults) {
		t.Fatalf("result count mismatch: flat=%d kd=%d", len(flatResults), len(kdResults))
	}
	for i := range flatResults {
		if flatResults[i].ID != kdResults[i].ID {
			t.Errorf("position %d id mismatch: flat=%s kd=%s", i, flatResults[i].ID, kdResults[i].ID)
		}
		diff := flatResults[i].Score - kdResults[i].Score
		if diff < -1e-3 || diff > 1e-3 {
			t.Errorf("position %d score mismatch: flat=%f kd=%f", i, flatResults[i].Score, kdResults[i].Score)
		}
	}
}

func TestKdTreeIndexOverflowAfterInsert(t *testing.T) {
	ids, vecs := randomUnitVectors(50, 4, 2)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 4})
	if err := kd.Build(ids, vecs); err != nil {
		t.Fatalf("build: %v", err)
	}

	newVec := make([]float32, 4)
	copy(newVec, vecs[0])
	newVec[0] += 0.0001 // nudge, stays nearly identical direction
	if err := kd.Insert("new-record", newVec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, _ := kd.Search(vecs[0], 3)
	found := false
	for _, r := range results {
		if r.ID == "new-record" {
			found = true
		}
	}
	if !found {
		t.Error("record inserted after build did not appear via overflow scan")
	}
}

func TestKdTreeIndexRemoveViaTombstone(t *testing.T) {
	ids, vecs := randomUnitVectors(30, 3, 3)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	_ = kd.Build(ids, vecs)

	target := ids[5]
	if !kd.Remove(target) {
		t.Fatal("expected Remove true for existing id")
	}
	if kd.Remove(target) {
		t.Error("expected Remove false for already-removed id")
	}

	results, _ := kd.Search(vecs[5], len(ids))
	for _, r := range results {
		if r.ID == target {
			t.Error("tombstoned record still returned by search")
		}
	}
	if kd.Size() != len(ids)-1 {
		t.Errorf("expected size %d after remove, got %d", len(ids)-1, kd.Size())
	}
}

func TestKdTreeIndexUpdate(t *testing.T) {
	ids, vecs := randomUnitVectors(20, 3, 4)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	_ = kd.Build(ids, vecs)

	replacement := []float32{1, 0, 0}
	if !kd.Update(ids[0], replacement) {
		t.Fatal("expected Update true for existing id")
	}

	results, _ := kd.Search(replacement, 1)
	if len(results) == 0 || results[0].ID != ids[0] {
		t.Errorf("expected updated record to rank first for its new vector, got %+v", results)
	}

	if kd.Update("never-existed", replacement) {
		t.Error("Update on absent id should still report false")
	}
}

func TestKdTreeIndexNeedsRebuild(t *testing.T) {
	ids, vecs := randomUnitVectors(20, 3, 5)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	_ = kd.Build(ids, vecs)

	if kd.NeedsRebuild() {
		t.Error("freshly built tree should not need rebuild")
	}

	// Overflow/tombstone more than 25% of tree size.
	for i := 0; i < 6; i++ {
		kd.Remove(ids[i])
	}
	if !kd.NeedsRebuild() {
		t.Error("expected rebuild threshold crossed after removing 30% of records")
	}
}

func TestKdTreeIndexCustomOverflowRatio(t *testing.T) {
	ids, vecs := randomUnitVectors(20, 3, 5)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3, OverflowRatio: 0.8})
	_ = kd.Build(ids, vecs)

	// Removing 30% of records crosses the default 0.25 ratio but not 0.8.
	for i := 0; i < 6; i++ {
		kd.Remove(ids[i])
	}
	if kd.NeedsRebuild() {
		t.Error("expected no rebuild at 30% dirty against an 0.8 overflow ratio")
	}

	for i := 6; i < 18; i++ {
		kd.Remove(ids[i])
	}
	if !kd.NeedsRebuild() {
		t.Error("expected rebuild once dirty ratio exceeds 0.8")
	}
}

func TestKdTreeIndexSnapshotRoundTrip(t *testing.T) {
	ids, vecs := randomUnitVectors(15, 3, 6)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	_ = kd.Build(ids, vecs)
	_ = kd.Insert("extra", []float32{1, 0, 0})
	kd.Remove(ids[0])

	snapIDs, snapVecs := kd.Snapshot()
	if len(snapIDs) != len(ids) { // removed one, added one
		t.Errorf("expected snapshot size %d, got %d", len(ids), len(snapIDs))
	}

	rebuilt := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	if err := rebuilt.Build(snapIDs, snapVecs); err != nil {
		t.Fatalf("rebuild from snapshot: %v", err)
	}
	if rebuilt.NeedsRebuild() {
		t.Error("freshly rebuilt tree should not need rebuild")
	}
}

func TestKdTreeIndexDimensionMismatch(t *testing.T) {
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 4})
	if err := kd.Insert("v1", []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	_ = kd.Insert("v2", []float32{1, 0, 0, 0})
	if _, err := kd.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error on search")
	}
}

func TestKdTreeIndexEmptySearch(t *testing.T) {
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 3})
	results, err := kd.Search([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results on empty index, got %d", len(results))
	}
}

func TestKdTreeIndexType(t *testing.T) {
	if NewKdTreeIndex(KdTreeConfig{Dimension: 4}).Type() != "KDTREE" {
		t.Error("expected Type() == KDTREE")
	}
}

func BenchmarkKdTreeIndexSearch(b *testing.B) {
	ids, vecs := randomUnitVectors(5000, 16, 42)
	kd := NewKdTreeIndex(KdTreeConfig{Dimension: 16})
	_ = kd.Build(ids, vecs)

	query := vecs[0]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = kd.Search(query, 10)
	}
}
