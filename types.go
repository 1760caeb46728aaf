package vectorcore

import (
	"time"

	"github.com/google/uuid"
)

// IndexType identifies which VectorIndex implementation backs a collection.
type IndexType string

const (
	IndexTypeFlat   IndexType = "FLAT"
	IndexTypeKdTree IndexType = "KDTREE"
	IndexTypeLsh    IndexType = "LSH"
)

// Metadata is the free-form bundle carried by collections, groups, and
// records. Records additionally carry Tags, Author, and timestamps as
// first-class filter dimensions (see Filter in filter.go).
type Metadata map[string]string

// Record is the atomic indexable unit: text plus embedding plus metadata.
type Record struct {
	ID           uuid.UUID
	CollectionID uuid.UUID
	GroupID      uuid.UUID
	Text         string
	Embedding    []float32 // unit-normalized on ingress
	Author       string
	Tags         map[string]struct{}
	Source       string
	Metadata     Metadata
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TagSet builds a Record.Tags set from a slice of tag strings.
func TagSet(tags ...string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}

// Group is the organizational middle tier within a collection, used only
// for filtering and cascading deletes.
type Group struct {
	ID           uuid.UUID
	CollectionID uuid.UUID
	Title        string
	Metadata     Metadata
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Collection is the top-level container fixing embedding dimension and
// default index type. DataVersion and IndexVersion are maintained by the
// engine's version tracker (pkg/core/version.go), not mutated directly.
type Collection struct {
	ID                 uuid.UUID
	Name               string
	Dimension          int
	DefaultIndexType   IndexType
	Metadata           Metadata
	DataVersion        uint64
	IndexVersion       uint64
	InstalledIndexType IndexType
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Stale reports whether the installed index lags the collection's data.
func (c Collection) Stale() bool {
	return c.IndexVersion < c.DataVersion
}
