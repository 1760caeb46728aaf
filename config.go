package vectorcore

import "time"

// EngineConfig tunes the engine's concurrency and default index behavior,
// in the manner of the teacher's Config/DefaultConfig pair.
type EngineConfig struct {
	// RebuildWorkers bounds the background rebuild worker pool (spec §9:
	// "a bounded worker pool consuming rebuild jobs from a channel").
	RebuildWorkers int

	// RebuildQueueSize bounds how many rebuild jobs may wait for a worker.
	// When the queue is full, the job runs on its own goroutine outside the
	// pool; Build never blocks on it.
	RebuildQueueSize int

	// KdTreeOverflowRatio is the fraction of tree size the tombstone+
	// overflow list may reach before a rebuild is auto-scheduled (spec
	// §4.2.2 recommends 25%).
	KdTreeOverflowRatio float64

	// LockTimeout bounds how long a query waits to acquire a collection's
	// read lock before failing with DeadlineExceeded (spec §5).
	LockTimeout time.Duration

	Logger Logger

	// Embedder is consulted by InsertRecord/InsertRecordBatch when a caller
	// supplies text without an embedding (spec §6). Nil means callers must
	// always supply the vector themselves.
	Embedder Embedder
}

// DefaultEngineConfig returns the configuration used when the caller
// supplies none.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RebuildWorkers:      4,
		RebuildQueueSize:    64,
		KdTreeOverflowRatio: 0.25,
		LockTimeout:         30 * time.Second,
		Logger:              NopLogger(),
	}
}
