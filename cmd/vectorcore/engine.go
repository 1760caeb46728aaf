package main

import (
	"fmt"

	vc "github.com/nullvector/vectorcore"
	"github.com/nullvector/vectorcore/pkg/core"
	"github.com/nullvector/vectorcore/pkg/persistence"
)

// openEngine constructs an Engine backed by the configured persistence
// file. Persistence is external to the core (spec §6); the CLI is the
// collaborator that wires it in. Each CLI invocation is a fresh process, so
// any collection the caller needs must first be restored from disk with
// restoreCollection.
func openEngine() (*core.Engine, *persistence.Store, error) {
	s, err := persistence.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open persistence store: %w", err)
	}
	e := core.NewEngine(vc.DefaultEngineConfig())
	return e, s, nil
}

func closeEngine(e *core.Engine, s *persistence.Store) {
	e.Close()
	_ = s.Close()
}

func mustEngine() (*core.Engine, *persistence.Store) {
	e, s, err := openEngine()
	if err != nil {
		exitf("%v", err)
	}
	return e, s
}
