package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	vc "github.com/nullvector/vectorcore"
)

// CreateCollection creates a new collection with data_version and
// index_version both starting at 0 and no installed index (spec §3).
func (e *Engine) CreateCollection(ctx context.Context, name string, dimension int, defaultIndexType vc.IndexType, metadata vc.Metadata) (uuid.UUID, error) {
	if name == "" || dimension <= 0 {
		return uuid.Nil, wrapErr("CreateCollection", vc.ErrInvalidArgument)
	}
	if e.reg.nameTaken(name) {
		return uuid.Nil, wrapErr("CreateCollection", vc.ErrAlreadyExists)
	}

	now := time.Now()
	c := vc.Collection{
		ID:               uuid.New(),
		Name:             name,
		Dimension:        dimension,
		DefaultIndexType: defaultIndexType,
		Metadata:         metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	cs := newCollectionState(c)
	e.reg.add(cs)
	e.logger.Info("collection created", "id", c.ID, "name", name, "dimension", dimension)
	return c.ID, nil
}

// GetCollection returns a copy of the collection's current metadata and
// version counters.
func (e *Engine) GetCollection(ctx context.Context, id uuid.UUID) (vc.Collection, error) {
	cs, err := e.mustGet(id)
	if err != nil {
		return vc.Collection{}, err
	}

	if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
		return vc.Collection{}, wrapErr("GetCollection", err)
	}
	defer cs.mu.RUnlock()

	c := cs.collection
	c.DataVersion = cs.versions.dataVersion
	c.IndexVersion = cs.versions.indexVersion
	c.InstalledIndexType = cs.versions.indexType
	return c, nil
}

// ListCollections returns every collection's current snapshot.
func (e *Engine) ListCollections(ctx context.Context) ([]vc.Collection, error) {
	var out []vc.Collection
	for _, cs := range e.reg.list() {
		if err := acquireRead(cs, deadlineFromContext(ctx)); err != nil {
			return nil, wrapErr("ListCollections", err)
		}
		c := cs.collection
		c.DataVersion = cs.versions.dataVersion
		c.IndexVersion = cs.versions.indexVersion
		c.InstalledIndexType = cs.versions.indexType
		cs.mu.RUnlock()
		out = append(out, c)
	}
	return out, nil
}

// UpdateCollection renames the collection and/or replaces its metadata.
// Dimension and id are immutable after creation (spec §3).
func (e *Engine) UpdateCollection(ctx context.Context, id uuid.UUID, name string, metadata vc.Metadata) error {
	cs, err := e.mustGet(id)
	if err != nil {
		return err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return wrapErr("UpdateCollection", err)
	}
	defer cs.mu.Unlock()

	if name != "" && name != cs.collection.Name {
		if e.reg.nameTaken(name) {
			return wrapErr("UpdateCollection", vc.ErrAlreadyExists)
		}
		old := cs.collection.Name
		cs.collection.Name = name
		e.reg.rename(old, name, id)
	}
	if metadata != nil {
		cs.collection.Metadata = metadata
	}
	cs.collection.UpdatedAt = time.Now()
	return nil
}

// DeleteCollection destroys a collection and cascades to its groups,
// records, and installed index (spec §3's lifecycle rule).
func (e *Engine) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	cs, err := e.mustGet(id)
	if err != nil {
		return err
	}

	if err := acquireWrite(cs, deadlineFromContext(ctx)); err != nil {
		return wrapErr("DeleteCollection", err)
	}
	name := cs.collection.Name
	cs.index = nil
	cs.mu.Unlock()

	e.reg.remove(id, name)
	return nil
}

// mustGet resolves a collection id, returning NotFound if unknown.
func (e *Engine) mustGet(id uuid.UUID) (*collectionState, error) {
	cs, ok := e.reg.get(id)
	if !ok {
		return nil, wrapErr("", vc.ErrNotFound)
	}
	return cs, nil
}

func wrapErr(op string, err error) error {
	return &vc.CoreError{Op: op, Err: err}
}
