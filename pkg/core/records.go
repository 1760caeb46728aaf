package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// InsertRecord normalizes embedding, validates its dimension against the
// collection, stores the record, bumps data_version once, and — if an index
// is installed — applies the same insert incrementally so the index never
// falls behind a single-record write (spec §3, §4.6).
func (e *Engine) InsertRecord(ctx context.Context, collectionID, groupID uuid.UUID, text string, embedding []float32, author, source string, tags []string, metadata vc.Metadata) (uuid.UUID, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return uuid.Nil, wrapErr("InsertRecord", err)
	}
	defer cs.mu.Unlock()

	if _, ok := cs.groups[groupID]; !ok {
		return uuid.Nil, wrapErr("InsertRecord", vc.ErrNotFound)
	}

	rec, err := e.buildRecord(ctx, cs, collectionID, groupID, text, embedding, author, source, tags, metadata)
	if err != nil {
		return uuid.Nil, wrapErr("InsertRecord", err)
	}

	e.storeRecordLocked(cs, rec)
	cs.versions.bumpData()
	e.applyIncrementalInsertLocked(cs, rec)

	return rec.ID, nil
}

// InsertRecordBatch inserts every record under a single data_version bump,
// per spec §4.3's explicit "a batch insert of N records is one increment".
func (e *Engine) InsertRecordBatch(ctx context.Context, collectionID, groupID uuid.UUID, records []vc.NewRecord) ([]uuid.UUID, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return nil, err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return nil, wrapErr("InsertRecordBatch", err)
	}
	defer cs.mu.Unlock()

	if _, ok := cs.groups[groupID]; !ok {
		return nil, wrapErr("InsertRecordBatch", vc.ErrNotFound)
	}

	ids := make([]uuid.UUID, 0, len(records))
	built := make([]vc.Record, 0, len(records))
	for _, nr := range records {
		rec, err := e.buildRecord(ctx, cs, collectionID, groupID, nr.Text, nr.Embedding, nr.Author, nr.Source, nr.Tags, nr.Metadata)
		if err != nil {
			return nil, wrapErr("InsertRecordBatch", err)
		}
		built = append(built, rec)
	}

	for _, rec := range built {
		e.storeRecordLocked(cs, rec)
		ids = append(ids, rec.ID)
	}
	if len(built) > 0 {
		cs.versions.bumpData()
	}
	for _, rec := range built {
		e.applyIncrementalInsertLocked(cs, rec)
	}

	return ids, nil
}

func (e *Engine) buildRecord(ctx context.Context, cs *collectionState, collectionID, groupID uuid.UUID, text string, embedding []float32, author, source string, tags []string, metadata vc.Metadata) (vc.Record, error) {
	if len(embedding) == 0 && text != "" {
		embedded, err := e.embedText(ctx, text)
		if err != nil {
			return vc.Record{}, err
		}
		embedding = embedded
	}
	if len(embedding) != cs.collection.Dimension {
		return vc.Record{}, vc.ErrDimensionMismatch
	}
	if vc.IsZeroVector(embedding) {
		return vc.Record{}, vc.ErrInvalidArgument
	}

	now := time.Now()
	return vc.Record{
		ID:           uuid.New(),
		CollectionID: collectionID,
		GroupID:      groupID,
		Text:         text,
		Embedding:    vc.Normalize(embedding),
		Author:       author,
		Tags:         vc.TagSet(tags...),
		Source:       source,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// embedText calls the configured Embedder collaborator (spec §6: "the core
// calls [embed] only when the caller passes text instead of a vector").
func (e *Engine) embedText(ctx context.Context, text string) ([]float32, error) {
	if e.cfg.Embedder == nil {
		return nil, vc.ErrInvalidArgument
	}
	return e.cfg.Embedder.Embed(ctx, text)
}

func (e *Engine) storeRecordLocked(cs *collectionState, rec vc.Record) {
	r := rec
	cs.records[r.ID] = &r
	if cs.groupIndex[r.GroupID] == nil {
		cs.groupIndex[r.GroupID] = make(map[uuid.UUID]struct{})
	}
	cs.groupIndex[r.GroupID][r.ID] = struct{}{}
}

func (e *Engine) applyIncrementalInsertLocked(cs *collectionState, rec vc.Record) {
	if cs.index == nil {
		return
	}
	_ = cs.index.Insert(rec.ID.String(), rec.Embedding)
	e.maybeScheduleRebuildLocked(cs)
}

// rebuildNeeder is implemented by index families (currently KdTreeIndex)
// whose tombstone+overflow state can cross a threshold that warrants a
// full rebuild (spec §4.2.2).
type rebuildNeeder interface {
	NeedsRebuild() bool
}

func (e *Engine) maybeScheduleRebuildLocked(cs *collectionState) {
	rn, ok := cs.index.(rebuildNeeder)
	if !ok || !rn.NeedsRebuild() {
		return
	}
	e.rebuild.enqueue(cs.collection.ID, cs.buildParams)
}

// GetRecord returns a copy of the record.
func (e *Engine) GetRecord(ctx context.Context, collectionID, recordID uuid.UUID) (vc.Record, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return vc.Record{}, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return vc.Record{}, wrapErr("GetRecord", err)
	}
	defer cs.mu.RUnlock()

	rec, ok := cs.records[recordID]
	if !ok {
		return vc.Record{}, wrapErr("GetRecord", vc.ErrNotFound)
	}
	return *rec, nil
}

// ListRecords returns every record in the collection matching filter (an
// empty Filter matches everything).
func (e *Engine) ListRecords(ctx context.Context, collectionID uuid.UUID, filter vc.Filter) ([]vc.Record, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return nil, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return nil, wrapErr("ListRecords", err)
	}
	defer cs.mu.RUnlock()

	out := make([]vc.Record, 0, len(cs.records))
	for _, rec := range cs.records {
		if filter.IsEmpty() || filter.Matches(*rec) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// UpdateRecord applies patch to an existing record. Any field change bumps
// data_version (spec §3's conservative policy); an embedding change is
// additionally re-normalized and re-validated against the collection's
// dimension, then applied incrementally to the installed index via Update.
func (e *Engine) UpdateRecord(ctx context.Context, collectionID, recordID uuid.UUID, patch vc.RecordPatch) error {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return wrapErr("UpdateRecord", err)
	}
	defer cs.mu.Unlock()

	rec, ok := cs.records[recordID]
	if !ok {
		return wrapErr("UpdateRecord", vc.ErrNotFound)
	}

	changed := false
	if patch.Text != nil {
		rec.Text = *patch.Text
		changed = true
	}
	if patch.Author != nil {
		rec.Author = *patch.Author
		changed = true
	}
	if patch.Source != nil {
		rec.Source = *patch.Source
		changed = true
	}
	if patch.Tags != nil {
		rec.Tags = vc.TagSet(patch.Tags...)
		changed = true
	}
	if patch.Metadata != nil {
		rec.Metadata = patch.Metadata
		changed = true
	}
	if patch.Embedding != nil {
		if len(patch.Embedding) != cs.collection.Dimension {
			return wrapErr("UpdateRecord", vc.ErrDimensionMismatch)
		}
		if vc.IsZeroVector(patch.Embedding) {
			return wrapErr("UpdateRecord", vc.ErrInvalidArgument)
		}
		rec.Embedding = vc.Normalize(patch.Embedding)
		changed = true
	}

	if !changed {
		return nil
	}

	rec.UpdatedAt = time.Now()
	cs.versions.bumpData()

	if cs.index != nil {
		_ = cs.index.Update(rec.ID.String(), rec.Embedding)
		e.maybeScheduleRebuildLocked(cs)
	}

	return nil
}

// DeleteRecord removes a record, bumping data_version and applying the
// removal incrementally to any installed index. Reports whether the record
// existed.
func (e *Engine) DeleteRecord(ctx context.Context, collectionID, recordID uuid.UUID) (bool, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return false, err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return false, wrapErr("DeleteRecord", err)
	}
	defer cs.mu.Unlock()

	rec, ok := cs.records[recordID]
	if !ok {
		return false, nil
	}

	e.deleteRecordLocked(cs, rec)
	cs.versions.bumpData()
	return true, nil
}

// DeleteRecordsByFilter removes every record matching filter under a single
// data_version bump, mirroring InsertRecordBatch's batching rule.
func (e *Engine) DeleteRecordsByFilter(ctx context.Context, collectionID uuid.UUID, filter vc.Filter) (int, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return 0, err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return 0, wrapErr("DeleteRecordsByFilter", err)
	}
	defer cs.mu.Unlock()

	var toDelete []*vc.Record
	for _, rec := range cs.records {
		if filter.IsEmpty() || filter.Matches(*rec) {
			toDelete = append(toDelete, rec)
		}
	}
	for _, rec := range toDelete {
		e.deleteRecordLocked(cs, rec)
	}
	if len(toDelete) > 0 {
		cs.versions.bumpData()
	}
	return len(toDelete), nil
}

func (e *Engine) deleteRecordLocked(cs *collectionState, rec *vc.Record) {
	delete(cs.records, rec.ID)
	if members := cs.groupIndex[rec.GroupID]; members != nil {
		delete(members, rec.ID)
		if len(members) == 0 {
			delete(cs.groupIndex, rec.GroupID)
		}
	}
	if cs.index != nil {
		cs.index.Remove(rec.ID.String())
		e.maybeScheduleRebuildLocked(cs)
	}
}

// deadlineFromContext converts a context deadline into the time.Time the
// lock/planner helpers expect; a context with no deadline yields the zero
// value (no deadline).
func deadlineFromContext(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Time{}
}
