package vectorcore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Hit is one scored record in a QueryResult, carrying the fields spec §4.5
// requires per hit: id, score, group_id, text, metadata.
type Hit struct {
	ID       uuid.UUID
	Score    float32
	GroupID  uuid.UUID
	Text     string
	Metadata Metadata
}

// QueryRequest carries the planner's inputs (spec §4.5).
type QueryRequest struct {
	CollectionID       uuid.UUID
	Vector             []float32 // need not be pre-normalized; the engine normalizes it
	K                  int
	Filter             Filter
	AllowStale         bool
	UseFallbackOnStale bool
	Deadline           time.Time // zero value: the context's deadline, else EngineConfig.LockTimeout bounds the lock wait
}

// QueryResult is the planner's output: hits plus the execution metadata
// spec §4.5 requires on every response.
type QueryResult struct {
	Hits            []Hit
	StaleIndex      bool
	IndexTypeUsed   IndexType
	ConsideredCount int
}

// BuildParams configures an explicit index build request.
type BuildParams struct {
	IndexType IndexType

	// LshNumTables/LshNumHashFuncs/LshSeed tune the LSH index family; zero
	// table and hash-function counts fall back to the package defaults. LshSeed has no default — callers that request LSH
	// must supply one, per spec §9's determinism rule.
	LshNumTables    int
	LshNumHashFuncs int
	LshSeed         int64
	lshSeedSet      bool
}

// WithLshSeed records that LshSeed was explicitly supplied, distinguishing
// "seed 0" from "no seed given" for BuildParams callers outside this
// package (the struct field alone can't carry that distinction since its
// zero value, 0, is a legal seed).
func (p BuildParams) WithLshSeed(seed int64) BuildParams {
	p.LshSeed = seed
	p.lshSeedSet = true
	return p
}

// LshSeedSet reports whether WithLshSeed was used to populate LshSeed.
func (p BuildParams) LshSeedSet() bool { return p.lshSeedSet }

// Status reports a collection's index health (spec §6).
type Status struct {
	IndexType         IndexType
	Size              int
	DataVersion       uint64
	IndexVersion      uint64
	Stale             bool
	RebuildInProgress bool
	LastRebuildError  string
	RebuildCount      uint64
}

// BuildID identifies an enqueued background rebuild.
type BuildID string

// Engine is the narrow programmatic surface spec §6 describes: collection,
// group, and record CRUD; index build/status; query; and snapshot
// export/import. pkg/core.Engine is the concrete implementation.
type Engine interface {
	CreateCollection(ctx context.Context, name string, dimension int, defaultIndexType IndexType, metadata Metadata) (uuid.UUID, error)
	GetCollection(ctx context.Context, id uuid.UUID) (Collection, error)
	ListCollections(ctx context.Context) ([]Collection, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, name string, metadata Metadata) error
	DeleteCollection(ctx context.Context, id uuid.UUID) error

	CreateGroup(ctx context.Context, collectionID uuid.UUID, title string, metadata Metadata) (uuid.UUID, error)
	GetGroup(ctx context.Context, collectionID, groupID uuid.UUID) (Group, error)
	ListGroups(ctx context.Context, collectionID uuid.UUID) ([]Group, error)
	DeleteGroup(ctx context.Context, collectionID, groupID uuid.UUID) error

	InsertRecord(ctx context.Context, collectionID, groupID uuid.UUID, text string, embedding []float32, author, source string, tags []string, metadata Metadata) (uuid.UUID, error)
	InsertRecordBatch(ctx context.Context, collectionID, groupID uuid.UUID, records []NewRecord) ([]uuid.UUID, error)
	GetRecord(ctx context.Context, collectionID, recordID uuid.UUID) (Record, error)
	ListRecords(ctx context.Context, collectionID uuid.UUID, filter Filter) ([]Record, error)
	UpdateRecord(ctx context.Context, collectionID, recordID uuid.UUID, patch RecordPatch) error
	DeleteRecord(ctx context.Context, collectionID, recordID uuid.UUID) (bool, error)
	DeleteRecordsByFilter(ctx context.Context, collectionID uuid.UUID, filter Filter) (int, error)

	Build(ctx context.Context, collectionID uuid.UUID, params BuildParams) (BuildID, error)
	Status(ctx context.Context, collectionID uuid.UUID) (Status, error)

	Query(ctx context.Context, req QueryRequest) (QueryResult, error)

	ExportSnapshot(ctx context.Context, collectionID uuid.UUID) (Snapshot, error)
	ImportSnapshot(ctx context.Context, snapshot Snapshot) error
}

// NewRecord is one element of an InsertRecordBatch call.
type NewRecord struct {
	Text      string
	Embedding []float32
	Author    string
	Source    string
	Tags      []string
	Metadata  Metadata
}

// RecordPatch carries optional field updates for UpdateRecord. A nil
// pointer/slice means "leave unchanged"; Embedding replacing nil means the
// caller re-supplied the same vector deliberately (re-normalization still
// bumps data_version per spec §3's conservative policy).
type RecordPatch struct {
	Text      *string
	Embedding []float32
	Author    *string
	Source    *string
	Tags      []string
	Metadata  Metadata
}

// Snapshot is the read-only logical state exported for the replication
// collaborator (spec §6) and accepted at import/startup.
type Snapshot struct {
	Collection Collection
	Groups     []Group
	Records    []Record
}
