package core

import (
	vc "github.com/nullvector/vectorcore"
)

// Engine is the concrete implementation of vectorcore.Engine: the RW-lock/
// index registry, version tracker, query planner, and background rebuild
// scheduler described across spec §4.
type Engine struct {
	cfg     vc.EngineConfig
	logger  vc.Logger
	reg     *registry
	rebuild *rebuildScheduler
}

// NewEngine constructs an Engine. A zero-value EngineConfig is replaced
// field-by-field with DefaultEngineConfig()'s values where unset.
func NewEngine(cfg vc.EngineConfig) *Engine {
	cfg = fillDefaults(cfg)

	e := &Engine{
		cfg:    cfg,
		logger: cfg.Logger,
		reg:    newRegistry(),
	}
	e.rebuild = newRebuildScheduler(e, cfg.RebuildWorkers, cfg.RebuildQueueSize)
	return e
}

// Close stops the rebuild worker pool, waiting for in-flight jobs to
// finish.
func (e *Engine) Close() {
	e.rebuild.stop()
}

func fillDefaults(cfg vc.EngineConfig) vc.EngineConfig {
	d := vc.DefaultEngineConfig()
	if cfg.RebuildWorkers <= 0 {
		cfg.RebuildWorkers = d.RebuildWorkers
	}
	if cfg.RebuildQueueSize <= 0 {
		cfg.RebuildQueueSize = d.RebuildQueueSize
	}
	if cfg.KdTreeOverflowRatio <= 0 {
		cfg.KdTreeOverflowRatio = d.KdTreeOverflowRatio
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = d.LockTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = d.Logger
	}
	// Embedder has no default: nil means callers must supply vectors
	// themselves, which buildRecord enforces.
	return cfg
}

// compile-time assertion that Engine satisfies vectorcore.Engine.
var _ vc.Engine = (*Engine)(nil)
