package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// Query implements the execution decision table from spec §4.5: filtered
// brute-force beats everything, then no-index flat scan, then the three
// staleness branches, then serve-from-index.
func (e *Engine) Query(ctx context.Context, req vc.QueryRequest) (vc.QueryResult, error) {
	if req.K <= 0 {
		return vc.QueryResult{}, wrapErr("Query", vc.ErrInvalidArgument)
	}

	cs, err := e.mustGet(req.CollectionID)
	if err != nil {
		return vc.QueryResult{}, err
	}

	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = deadlineFromContext(ctx)
	}
	if deadline.IsZero() {
		deadline = time.Now().Add(e.cfg.LockTimeout)
	}
	if err := acquireRead(cs, deadline); err != nil {
		return vc.QueryResult{}, wrapErr("Query", err)
	}
	defer cs.mu.RUnlock()

	if len(req.Vector) != cs.collection.Dimension {
		return vc.QueryResult{}, wrapErr("Query", vc.ErrDimensionMismatch)
	}
	if vc.IsZeroVector(req.Vector) {
		return vc.QueryResult{}, wrapErr("Query", vc.ErrInvalidArgument)
	}
	query := vc.Normalize(req.Vector)

	if !req.Filter.IsEmpty() {
		return e.queryFilteredBruteForce(cs, query, req.K, req.Filter), nil
	}

	if cs.index == nil {
		return e.queryFlatScan(cs, query, req.K, false), nil
	}

	stale := cs.versions.stale()
	switch {
	case stale && !req.AllowStale && req.UseFallbackOnStale:
		result := e.queryFlatScan(cs, query, req.K, true)
		e.scheduleRebuildFromQuery(cs)
		return result, nil

	case stale && req.AllowStale:
		result := e.queryFromIndex(cs, query, req.K)
		result.StaleIndex = true
		e.scheduleRebuildFromQuery(cs)
		return result, nil

	case stale && !req.AllowStale && !req.UseFallbackOnStale:
		return vc.QueryResult{}, wrapErr("Query", vc.ErrIndexStale)

	default:
		return e.queryFromIndex(cs, query, req.K), nil
	}
}

func (e *Engine) scheduleRebuildFromQuery(cs *collectionState) {
	params := cs.buildParams
	if params.IndexType == "" {
		params.IndexType = cs.collection.DefaultIndexType
	}
	e.rebuild.enqueue(cs.collection.ID, params)
}

// queryFromIndex serves a query from the installed index, converting index
// ids (strings) back to uuid.UUID and hydrating each hit with its record's
// group/text/metadata.
func (e *Engine) queryFromIndex(cs *collectionState, query []float32, k int) vc.QueryResult {
	scored, considered, err := searchConsidered(cs.index, query, k)
	if err != nil {
		return vc.QueryResult{IndexTypeUsed: cs.versions.indexType}
	}

	hits := make([]vc.Hit, 0, len(scored))
	for _, s := range scored {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			continue
		}
		rec, ok := cs.records[id]
		if !ok {
			continue
		}
		hits = append(hits, hitFromRecord(*rec, s.Score))
	}

	return vc.QueryResult{
		Hits:            hits,
		IndexTypeUsed:   cs.versions.indexType,
		ConsideredCount: considered,
	}
}

// queryFlatScan computes cosine against every record in the collection,
// used when no index is installed and as the stale+fallback branch.
func (e *Engine) queryFlatScan(cs *collectionState, query []float32, k int, staleFlag bool) vc.QueryResult {
	collector := vc.NewTopKCollector(k)
	for id, rec := range cs.records {
		collector.Offer(id.String(), vc.CosineSimilarity(query, rec.Embedding))
	}

	results := collector.Results()
	hits := make([]vc.Hit, 0, len(results))
	for _, r := range results {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			continue
		}
		rec := cs.records[id]
		hits = append(hits, hitFromRecord(*rec, r.Score))
	}

	indexType := cs.versions.indexType
	if cs.index == nil {
		indexType = ""
	}

	return vc.QueryResult{
		Hits:            hits,
		StaleIndex:      staleFlag,
		IndexTypeUsed:   indexType,
		ConsideredCount: len(cs.records),
	}
}

// queryFilteredBruteForce scans only records matching filter. Never uses an
// approximate index: a filter applied post-selection cannot recover records
// an LSH bucket scheme excluded (spec §4.5).
func (e *Engine) queryFilteredBruteForce(cs *collectionState, query []float32, k int, filter vc.Filter) vc.QueryResult {
	collector := vc.NewTopKCollector(k)
	considered := 0
	for id, rec := range cs.records {
		if !filter.Matches(*rec) {
			continue
		}
		considered++
		collector.Offer(id.String(), vc.CosineSimilarity(query, rec.Embedding))
	}

	results := collector.Results()
	hits := make([]vc.Hit, 0, len(results))
	for _, r := range results {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			continue
		}
		rec := cs.records[id]
		hits = append(hits, hitFromRecord(*rec, r.Score))
	}

	return vc.QueryResult{
		Hits:            hits,
		IndexTypeUsed:   "",
		ConsideredCount: considered,
	}
}

func hitFromRecord(rec vc.Record, score float32) vc.Hit {
	return vc.Hit{
		ID:       rec.ID,
		Score:    score,
		GroupID:  rec.GroupID,
		Text:     rec.Text,
		Metadata: rec.Metadata,
	}
}

// Status reports the collection's index health (spec §6).
func (e *Engine) Status(ctx context.Context, collectionID uuid.UUID) (vc.Status, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return vc.Status{}, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return vc.Status{}, wrapErr("Status", err)
	}
	defer cs.mu.RUnlock()

	size := 0
	if cs.index != nil {
		size = cs.index.Size()
	}

	return vc.Status{
		IndexType:         cs.versions.indexType,
		Size:              size,
		DataVersion:       cs.versions.dataVersion,
		IndexVersion:      cs.versions.indexVersion,
		Stale:             cs.versions.stale(),
		RebuildInProgress: e.reg.rebuildInProgress(collectionID),
		LastRebuildError:  cs.versions.lastRebuildError,
		RebuildCount:      cs.versions.rebuildCount,
	}, nil
}

// Build enqueues a background rebuild and returns immediately with a build
// id (spec §6: "synchronous enqueue, returns immediately").
func (e *Engine) Build(ctx context.Context, collectionID uuid.UUID, params vc.BuildParams) (vc.BuildID, error) {
	cs, err := e.mustGet(collectionID)
	if err != nil {
		return "", err
	}

	if params.IndexType == "" {
		cs.mu.RLock()
		params.IndexType = cs.collection.DefaultIndexType
		cs.mu.RUnlock()
	}
	if params.IndexType == vc.IndexTypeLsh && !params.LshSeedSet() {
		return "", wrapErr("Build", vc.ErrInvalidArgument)
	}

	cs.mu.Lock()
	cs.buildParams = params
	cs.mu.Unlock()

	return e.rebuild.enqueue(collectionID, params), nil
}
