package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// CreateGroup creates a group within a collection. Pure organizational
// entity (spec §3): it does not bump data_version, since no record or
// index content changes.
func (e *Engine) CreateGroup(ctx context.Context, collectionID uuid.UUID, title string, metadata vc.Metadata) (uuid.UUID, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return uuid.Nil, wrapErr("CreateGroup", err)
	}
	defer cs.mu.Unlock()

	now := time.Now()
	g := &vc.Group{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Title:        title,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cs.groups[g.ID] = g
	return g.ID, nil
}

// GetGroup returns a copy of the group.
func (e *Engine) GetGroup(ctx context.Context, collectionID, groupID uuid.UUID) (vc.Group, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return vc.Group{}, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return vc.Group{}, wrapErr("GetGroup", err)
	}
	defer cs.mu.RUnlock()

	g, ok := cs.groups[groupID]
	if !ok {
		return vc.Group{}, wrapErr("GetGroup", vc.ErrNotFound)
	}
	return *g, nil
}

// ListGroups returns every group in the collection.
func (e *Engine) ListGroups(ctx context.Context, collectionID uuid.UUID) ([]vc.Group, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return nil, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return nil, wrapErr("ListGroups", err)
	}
	defer cs.mu.RUnlock()

	out := make([]vc.Group, 0, len(cs.groups))
	for _, g := range cs.groups {
		out = append(out, *g)
	}
	return out, nil
}

// DeleteGroup destroys a group and cascades to its records (spec §3),
// bumping data_version once for the whole cascade and applying each
// removal incrementally to the installed index.
func (e *Engine) DeleteGroup(ctx context.Context, collectionID, groupID uuid.UUID) error {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return wrapErr("DeleteGroup", err)
	}
	defer cs.mu.Unlock()

	if _, ok := cs.groups[groupID]; !ok {
		return wrapErr("DeleteGroup", vc.ErrNotFound)
	}

	members := cs.groupIndex[groupID]
	removed := 0
	for recordID := range members {
		if rec, ok := cs.records[recordID]; ok {
			e.deleteRecordLocked(cs, rec)
			removed++
		}
	}
	delete(cs.groups, groupID)

	if removed > 0 {
		cs.versions.bumpData()
	}
	return nil
}
