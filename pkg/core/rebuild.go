package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	vc "github.com/nullvector/vectorcore"
)

// rebuildJob is one enqueued rebuild request (spec §4.6).
type rebuildJob struct {
	collectionID uuid.UUID
	params       vc.BuildParams
}

// rebuildScheduler runs rebuild jobs on a bounded worker pool fed by a
// channel (spec §9: "a bounded worker pool consuming rebuild jobs from a
// channel suffices; the core does not require async/await"), grounded in
// the errgroup-based fan-out pattern used for query dispatch elsewhere in
// the retrieval pack.
type rebuildScheduler struct {
	jobs   chan rebuildJob
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	engine *Engine
}

func newRebuildScheduler(e *Engine, workers, queueSize int) *rebuildScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	s := &rebuildScheduler{
		jobs:   make(chan rebuildJob, queueSize),
		group:  g,
		ctx:    ctx,
		cancel: cancel,
		engine: e,
	}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case job, ok := <-s.jobs:
					if !ok {
						return nil
					}
					s.run(job)
				}
			}
		})
	}

	return s
}

func (s *rebuildScheduler) stop() {
	s.cancel()
	close(s.jobs)
	_ = s.group.Wait()
}

// enqueue submits a rebuild job, coalescing with any rebuild already in
// flight for the same collection (spec §4.5: "scheduling a background
// rebuild is idempotent").
func (s *rebuildScheduler) enqueue(collectionID uuid.UUID, params vc.BuildParams) vc.BuildID {
	if !s.engine.reg.tryStartRebuild(collectionID) {
		return vc.BuildID(fmt.Sprintf("coalesced-%s", collectionID))
	}
	id := vc.BuildID(uuid.New().String())
	select {
	case s.jobs <- rebuildJob{collectionID: collectionID, params: params}:
	default:
		// Queue full: every caller reaching enqueue from a mutation path
		// (applyIncrementalInsertLocked and friends in records.go) already
		// holds cs.mu for writing, and run acquires cs.mu for reading to
		// snapshot records — running inline here would deadlock the caller
		// against itself. Spin the job off onto its own goroutine instead of
		// blocking, and log it since this bypasses the worker pool's bound.
		s.engine.logger.Warn("rebuild queue full, running overflow job off-pool", "collection_id", collectionID)
		go s.run(rebuildJob{collectionID: collectionID, params: params})
	}
	return id
}

// run executes the four-step rebuild protocol from spec §4.6: snapshot
// under read lock, build off-lock, install under write lock (with
// supersede-and-reenqueue if data changed mid-build), dispose outside the
// lock.
func (s *rebuildScheduler) run(job rebuildJob) {
	finished := false
	defer func() {
		if !finished {
			s.engine.reg.finishRebuild(job.collectionID)
		}
	}()

	cs, ok := s.engine.reg.get(job.collectionID)
	if !ok {
		return // collection deleted while the job was queued
	}

	cs.mu.RLock()
	ids := make([]string, 0, len(cs.records))
	vectors := make([][]float32, 0, len(cs.records))
	for id, rec := range cs.records {
		ids = append(ids, id.String())
		vectors = append(vectors, rec.Embedding)
	}
	snapshotVersion := cs.versions.dataVersion
	dimension := cs.collection.Dimension
	params := job.params
	if params.IndexType == "" {
		params.IndexType = cs.collection.DefaultIndexType
	}
	cs.mu.RUnlock()

	newIdx, err := newIndex(dimension, params, s.engine.cfg.KdTreeOverflowRatio)
	if err != nil {
		cs.mu.Lock()
		cs.versions.lastRebuildError = err.Error()
		cs.mu.Unlock()
		s.engine.logger.Error("rebuild failed to construct index", "collection_id", job.collectionID, "error", err)
		return
	}
	if err := newIdx.Build(ids, vectors); err != nil {
		cs.mu.Lock()
		cs.versions.lastRebuildError = err.Error()
		cs.mu.Unlock()
		s.engine.logger.Error("rebuild failed during build", "collection_id", job.collectionID, "error", err)
		return
	}

	cs.mu.Lock()
	var oldIdx VectorIndex
	superseded := cs.versions.dataVersion > snapshotVersion
	oldIdx, cs.index = cs.index, newIdx
	cs.versions.installIndex(snapshotVersion, params.IndexType)
	cs.versions.lastRebuildError = ""
	cs.buildParams = params
	cs.mu.Unlock()
	_ = oldIdx // disposed by GC; no explicit Close in this index family

	if superseded {
		s.engine.logger.Info("rebuild superseded by concurrent writes, re-enqueuing", "collection_id", job.collectionID)
		// Clear this job's in-progress flag first; otherwise enqueue would
		// see it and coalesce the follow-up rebuild away.
		s.engine.reg.finishRebuild(job.collectionID)
		finished = true
		if s.ctx.Err() == nil {
			s.enqueue(job.collectionID, params)
		}
	}
}
