package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nullvector/vectorcore/pkg/core"
	"github.com/nullvector/vectorcore/pkg/persistence"
)

// restoreCollection loads a previously persisted collection into the
// in-process engine. Each CLI invocation is a fresh process with an empty
// registry, so every command that operates on an existing collection id
// restores it first; a collection never persisted (e.g. created moments
// ago by CreateCollection in this same process) is left alone.
func restoreCollection(ctx context.Context, e *core.Engine, s *persistence.Store, id uuid.UUID) error {
	if _, err := e.GetCollection(ctx, id); err == nil {
		return nil // already present (just created in this process)
	}

	snapshot, err := s.Load(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("collection %s not found", id)
		}
		return fmt.Errorf("restore collection %s: %w", id, err)
	}
	return e.ImportSnapshot(ctx, snapshot)
}

// persistCollection exports the engine's current view of a collection and
// saves it to disk, so the next CLI invocation can restore it.
func persistCollection(ctx context.Context, e *core.Engine, s *persistence.Store, id uuid.UUID) error {
	snapshot, err := e.ExportSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf("export collection %s: %w", id, err)
	}
	if err := s.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist collection %s: %w", id, err)
	}
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func parseVector(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("vector is required")
	}
	parts := strings.Split(s, ",")
	vector := make([]float32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vector = append(vector, float32(val))
	}
	return vector, nil
}
