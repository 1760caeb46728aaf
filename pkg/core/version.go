package core

import vc "github.com/nullvector/vectorcore"

// versionTracker holds the two monotonic counters and the installed index
// tag for one collection (spec §4.3). It is always accessed under the
// owning collectionState's lock — it has no lock of its own.
type versionTracker struct {
	dataVersion  uint64
	indexVersion uint64
	indexType    vc.IndexType

	rebuildInProgress bool
	rebuildCount      uint64
	lastRebuildError  string
}

// stale reports index_version < data_version.
func (v *versionTracker) stale() bool {
	return v.indexVersion < v.dataVersion
}

// bumpData increments data_version exactly once, regardless of how many
// records a batch operation touched (spec §4.3).
func (v *versionTracker) bumpData() {
	v.dataVersion++
}

// installIndex stamps index_version to the data_version observed at
// snapshot time, never to a later value (spec §4.6 step 3).
func (v *versionTracker) installIndex(snapshotVersion uint64, indexType vc.IndexType) {
	v.indexVersion = snapshotVersion
	v.indexType = indexType
	v.rebuildCount++
}
