package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// ExportSnapshot returns a read-only copy of a collection's logical state
// (spec §6), for the external replication collaborator.
func (e *Engine) ExportSnapshot(ctx context.Context, collectionID uuid.UUID) (vc.Snapshot, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return vc.Snapshot{}, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return vc.Snapshot{}, wrapErr("ExportSnapshot", err)
	}
	defer cs.mu.RUnlock()

	c := cs.collection
	c.DataVersion = cs.versions.dataVersion
	c.IndexVersion = cs.versions.indexVersion
	c.InstalledIndexType = cs.versions.indexType

	groups := make([]vc.Group, 0, len(cs.groups))
	for _, g := range cs.groups {
		groups = append(groups, *g)
	}
	records := make([]vc.Record, 0, len(cs.records))
	for _, r := range cs.records {
		records = append(records, *r)
	}

	return vc.Snapshot{Collection: c, Groups: groups, Records: records}, nil
}

// ImportSnapshot replaces a collection's state under its write lock and
// forces a rebuild (spec §6: "import replaces state under a collection
// write lock and forces rebuild"). If the collection does not yet exist, it
// is created from the snapshot's Collection fields.
func (e *Engine) ImportSnapshot(ctx context.Context, snapshot vc.Snapshot) error {
	cs, ok := e.reg.get(snapshot.Collection.ID)
	if !ok {
		cs = newCollectionState(snapshot.Collection)
		e.reg.add(cs)
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return wrapErr("ImportSnapshot", err)
	}

	cs.collection = snapshot.Collection
	cs.collection.UpdatedAt = time.Now()

	cs.groups = make(map[uuid.UUID]*vc.Group, len(snapshot.Groups))
	for i := range snapshot.Groups {
		g := snapshot.Groups[i]
		cs.groups[g.ID] = &g
	}

	cs.records = make(map[uuid.UUID]*vc.Record, len(snapshot.Records))
	cs.groupIndex = make(map[uuid.UUID]map[uuid.UUID]struct{})
	for i := range snapshot.Records {
		r := snapshot.Records[i]
		cs.records[r.ID] = &r
		if cs.groupIndex[r.GroupID] == nil {
			cs.groupIndex[r.GroupID] = make(map[uuid.UUID]struct{})
		}
		cs.groupIndex[r.GroupID][r.ID] = struct{}{}
	}

	cs.index = nil
	cs.versions.dataVersion++
	cs.versions.indexVersion = 0
	params := cs.buildParams
	if params.IndexType == "" {
		params.IndexType = cs.collection.DefaultIndexType
	}
	cs.mu.Unlock()

	e.rebuild.enqueue(snapshot.Collection.ID, params)
	return nil
}
