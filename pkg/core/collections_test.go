package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(vc.DefaultEngineConfig())
	t.Cleanup(e.Close)
	return e
}

func TestCreateCollection(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.CreateCollection(ctx, "docs", 4, vc.IndexTypeFlat, vc.Metadata{"env": "test"})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	c, err := e.GetCollection(ctx, id)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if c.Name != "docs" || c.Dimension != 4 {
		t.Errorf("got %+v, want name=docs dimension=4", c)
	}
	if c.DataVersion != 0 || c.IndexVersion != 0 {
		t.Errorf("new collection should start at version 0, got data=%d index=%d", c.DataVersion, c.IndexVersion)
	}
}

func TestCreateCollectionRejectsInvalidArgument(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		collName  string
		dimension int
	}{
		{"empty name", "", 4},
		{"zero dimension", "docs", 0},
		{"negative dimension", "docs", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.CreateCollection(ctx, tt.collName, tt.dimension, vc.IndexTypeFlat, nil); !errors.Is(err, vc.ErrInvalidArgument) {
				t.Errorf("CreateCollection() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCreateCollectionDuplicateName(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateCollection(ctx, "docs", 4, vc.IndexTypeFlat, nil); err != nil {
		t.Fatalf("first CreateCollection() error = %v", err)
	}
	if _, err := e.CreateCollection(ctx, "docs", 4, vc.IndexTypeFlat, nil); !errors.Is(err, vc.ErrAlreadyExists) {
		t.Errorf("duplicate name error = %v, want ErrAlreadyExists", err)
	}
}

func TestGetCollectionNotFound(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.GetCollection(context.Background(), uuid.New()); !errors.Is(err, vc.ErrNotFound) {
		t.Errorf("GetCollection() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateCollectionRenamesAndReplacesMetadata(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, _ := e.CreateCollection(ctx, "docs", 4, vc.IndexTypeFlat, nil)
	if err := e.UpdateCollection(ctx, id, "renamed", vc.Metadata{"k": "v"}); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	c, _ := e.GetCollection(ctx, id)
	if c.Name != "renamed" || c.Metadata["k"] != "v" {
		t.Errorf("got %+v, want name=renamed metadata[k]=v", c)
	}

	// The old name must be free for reuse and the new name taken.
	if _, err := e.CreateCollection(ctx, "docs", 4, vc.IndexTypeFlat, nil); err != nil {
		t.Errorf("old name should be free after rename: %v", err)
	}
	if _, err := e.CreateCollection(ctx, "renamed", 4, vc.IndexTypeFlat, nil); !errors.Is(err, vc.ErrAlreadyExists) {
		t.Errorf("new name should be taken after rename, error = %v", err)
	}
}

func TestDeleteCollectionCascades(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, _ := e.CreateCollection(ctx, "docs", 3, vc.IndexTypeFlat, nil)
	groupID, _ := e.CreateGroup(ctx, id, "g1", nil)
	_, _ = e.InsertRecord(ctx, id, groupID, "hello", []float32{1, 0, 0}, "", "", nil, nil)

	if err := e.DeleteCollection(ctx, id); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if _, err := e.GetCollection(ctx, id); !errors.Is(err, vc.ErrNotFound) {
		t.Errorf("collection should be gone, error = %v", err)
	}

	// The name should be free for reuse too.
	if _, err := e.CreateCollection(ctx, "docs", 3, vc.IndexTypeFlat, nil); err != nil {
		t.Errorf("name should be free after delete: %v", err)
	}
}

func TestListCollections(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, _ = e.CreateCollection(ctx, "a", 2, vc.IndexTypeFlat, nil)
	_, _ = e.CreateCollection(ctx, "b", 2, vc.IndexTypeFlat, nil)

	cols, err := e.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("got %d collections, want 2", len(cols))
	}
}
