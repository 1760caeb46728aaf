// Package core implements the Engine described by the root vectorcore
// package's Engine interface: the RW-lock/index registry, the version
// tracker, the query planner, and background rebuild.
package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// collectionState is the single guarded struct per collection the registry
// holds — lock, index slot, versions, and the collection's own data, all in
// one place so nothing escapes the registry's critical section unowned
// (spec §9: "avoid storing references to the interior outside the
// registry's critical section").
type collectionState struct {
	mu sync.RWMutex // per-collection reader-writer lock (spec §4.4)

	collection vc.Collection
	groups     map[uuid.UUID]*vc.Group
	records    map[uuid.UUID]*vc.Record
	groupIndex map[uuid.UUID]map[uuid.UUID]struct{} // group id -> member record ids

	index       VectorIndex
	versions    versionTracker
	buildParams vc.BuildParams // last build configuration, reused by auto-rebuild
}

func newCollectionState(c vc.Collection) *collectionState {
	return &collectionState{
		collection: c,
		groups:     make(map[uuid.UUID]*vc.Group),
		records:    make(map[uuid.UUID]*vc.Record),
		groupIndex: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		versions:   versionTracker{indexType: c.DefaultIndexType},
	}
}

// registry is the process-wide map from collection id to collectionState,
// guarded by a single mutex used only for lookup/insert/remove of the
// mapping itself — never held during collection operations (spec §4.4).
type registry struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*collectionState
	byName      map[string]uuid.UUID
	rebuildFlag map[uuid.UUID]bool // per-collection rebuild-in-progress, guarded by mu
}

func newRegistry() *registry {
	return &registry{
		byID:        make(map[uuid.UUID]*collectionState),
		byName:      make(map[string]uuid.UUID),
		rebuildFlag: make(map[uuid.UUID]bool),
	}
}

func (r *registry) add(cs *collectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[cs.collection.ID] = cs
	r.byName[cs.collection.Name] = cs.collection.ID
}

func (r *registry) get(id uuid.UUID) (*collectionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.byID[id]
	return cs, ok
}

func (r *registry) nameTaken(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byName[name]
	return ok
}

func (r *registry) rename(oldName, newName string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, oldName)
	r.byName[newName] = id
}

func (r *registry) list() []*collectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*collectionState, 0, len(r.byID))
	for _, cs := range r.byID {
		out = append(out, cs)
	}
	return out
}

func (r *registry) remove(id uuid.UUID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	delete(r.byName, name)
	delete(r.rebuildFlag, id)
}

// tryStartRebuild atomically sets the rebuild-in-progress flag for id,
// reporting whether it was this call that won the race (spec §4.6: "at most
// one rebuild per collection runs at a time").
func (r *registry) tryStartRebuild(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rebuildFlag[id] {
		return false
	}
	r.rebuildFlag[id] = true
	return true
}

func (r *registry) finishRebuild(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rebuildFlag, id)
}

func (r *registry) rebuildInProgress(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildFlag[id]
}

// acquireRead locks cs for reading, respecting deadline if non-zero (spec
// §5: "lock acquisition itself respects the deadline"). Go's sync.RWMutex
// has no deadline-aware Lock, so a non-zero deadline is enforced with a
// best-effort goroutine + timer; the common case (zero deadline) takes the
// direct uncontended path with no extra allocation.
func acquireRead(cs *collectionState, deadline time.Time) error {
	if deadline.IsZero() {
		cs.mu.RLock()
		return nil
	}
	return lockWithDeadline(cs.mu.RLock, cs.mu.RUnlock, deadline)
}

func acquireWrite(cs *collectionState, deadline time.Time) error {
	if deadline.IsZero() {
		cs.mu.Lock()
		return nil
	}
	return lockWithDeadline(cs.mu.Lock, cs.mu.Unlock, deadline)
}

// lockWithDeadline races lock acquisition against the deadline timer. A CAS
// on resolved decides the winner so the lock is never held by nobody: if
// the timer fires first, the acquiring goroutine discovers it lost the race
// once it finally gets the lock and releases it immediately instead of
// leaving it held with no owner.
func lockWithDeadline(lock, unlock func(), deadline time.Time) error {
	var resolved int32 // 0 = pending, 1 = acquired first, 2 = deadline first
	acquired := make(chan struct{})

	go func() {
		lock()
		if atomic.CompareAndSwapInt32(&resolved, 0, 1) {
			close(acquired)
		} else {
			unlock()
		}
	}()

	select {
	case <-acquired:
		return nil
	case <-time.After(time.Until(deadline)):
		if atomic.CompareAndSwapInt32(&resolved, 0, 2) {
			return vc.ErrDeadlineExceeded
		}
		// Lost the CAS race: the goroutine above already claimed the lock
		// and is closing acquired right now.
		<-acquired
		return nil
	}
}
