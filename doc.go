// Package vectorcore provides a single-node vector search engine with a
// pluggable index family, per-collection concurrency control, and a query
// planner that chooses between serving from an index, falling back to a
// brute-force scan, or serving a stale index pending rebuild.
//
// # Key Components
//
//   - Engine: the main entry point, owning the per-collection registry of
//     locks, installed indexes, and version trackers.
//   - VectorIndex: the shared contract implemented by FlatIndex, KdTreeIndex,
//     and LshIndex (package index).
//   - Query planner: decides between index, filtered brute-force, and
//     stale-with-fallback execution for every query.
//
// # Observability
//
// The engine supports pluggable structured logging through the Logger
// interface (see logger.go).
package vectorcore
