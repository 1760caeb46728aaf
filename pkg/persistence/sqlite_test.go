package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

func testSnapshot() vc.Snapshot {
	collectionID := uuid.New()
	groupID := uuid.New()
	recordID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	return vc.Snapshot{
		Collection: vc.Collection{
			ID: collectionID, Name: "docs", Dimension: 4,
			DefaultIndexType: vc.IndexTypeFlat, Metadata: vc.Metadata{"env": "test"},
			DataVersion: 3, IndexVersion: 2, CreatedAt: now, UpdatedAt: now,
		},
		Groups: []vc.Group{
			{ID: groupID, CollectionID: collectionID, Title: "manuals", Metadata: nil, CreatedAt: now, UpdatedAt: now},
		},
		Records: []vc.Record{
			{
				ID: recordID, CollectionID: collectionID, GroupID: groupID,
				Text: "hello", Embedding: []float32{0.5, 0.5, 0.5, 0.5},
				Author: "alice", Tags: vc.TagSet("a", "b"), Source: "manual.pdf",
				Metadata: vc.Metadata{"page": "1"}, CreatedAt: now, UpdatedAt: now,
			},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vectorcore.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()

	snap := testSnapshot()
	ctx := context.Background()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, snap.Collection.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Collection.Name != snap.Collection.Name {
		t.Fatalf("collection name = %q, want %q", loaded.Collection.Name, snap.Collection.Name)
	}
	if loaded.Collection.Dimension != snap.Collection.Dimension {
		t.Fatalf("dimension = %d, want %d", loaded.Collection.Dimension, snap.Collection.Dimension)
	}
	if len(loaded.Groups) != 1 || loaded.Groups[0].Title != "manuals" {
		t.Fatalf("groups = %+v", loaded.Groups)
	}
	if len(loaded.Records) != 1 {
		t.Fatalf("records = %+v", loaded.Records)
	}
	rec := loaded.Records[0]
	if rec.Text != "hello" || len(rec.Embedding) != 4 {
		t.Fatalf("record round-trip mismatch: %+v", rec)
	}
	if _, ok := rec.Tags["a"]; !ok {
		t.Fatalf("tag %q missing after round trip: %+v", "a", rec.Tags)
	}
}

func TestStoreSaveOverwritesPreviousRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vectorcore.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	snap := testSnapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snap.Records = nil
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	loaded, err := store.Load(ctx, snap.Collection.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Records) != 0 {
		t.Fatalf("expected records cleared, got %d", len(loaded.Records))
	}
}

func TestStoreDeleteCascadesGroupsAndRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vectorcore.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	snap := testSnapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete(ctx, snap.Collection.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Load(ctx, snap.Collection.ID); err == nil {
		t.Fatalf("Load succeeded after Delete, want an error")
	}
}
