// Package persistence is the external snapshot-persistence collaborator
// spec §6 describes ("Persistence is external: the core exposes the
// snapshot interface above and accepts a snapshot at startup"). It stores a
// collection's exported Snapshot as rows in SQLite and can restore one at
// startup, grounded in the teacher's database/sql + modernc.org/sqlite setup
// and its index_snapshots table idea — applied here to whole-collection
// state instead of index blobs.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nullvector/vectorcore/internal/encoding"

	vc "github.com/nullvector/vectorcore"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store persists collection snapshots in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and prepares
// its schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("persistence: database path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer: WAL still allows concurrent readers

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		dimension INTEGER NOT NULL,
		default_index_type TEXT,
		metadata TEXT,
		data_version INTEGER NOT NULL DEFAULT 0,
		index_version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		title TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		text TEXT,
		vector BLOB NOT NULL,
		author TEXT,
		tags TEXT,
		source TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_collection_id ON records(collection_id);
	CREATE INDEX IF NOT EXISTS idx_groups_collection_id ON groups(collection_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("persistence: create tables: %w", err)
	}
	return nil
}

// Save replaces the persisted rows for snapshot.Collection.ID with the
// snapshot's current content, inside one transaction.
func (s *Store) Save(ctx context.Context, snapshot vc.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c := snapshot.Collection
	metadataJSON, err := encoding.EncodeMetadata(c.Metadata)
	if err != nil {
		return fmt.Errorf("persistence: encode collection metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (id, name, dimension, default_index_type, metadata, data_version, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, dimension=excluded.dimension, default_index_type=excluded.default_index_type,
			metadata=excluded.metadata, data_version=excluded.data_version, index_version=excluded.index_version,
			updated_at=excluded.updated_at
	`, c.ID.String(), c.Name, c.Dimension, string(c.DefaultIndexType), metadataJSON,
		c.DataVersion, c.IndexVersion, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("persistence: upsert collection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE collection_id = ?`, c.ID.String()); err != nil {
		return fmt.Errorf("persistence: clear groups: %w", err)
	}
	for _, g := range snapshot.Groups {
		gMeta, err := encoding.EncodeMetadata(g.Metadata)
		if err != nil {
			return fmt.Errorf("persistence: encode group metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO groups (id, collection_id, title, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, g.ID.String(), c.ID.String(), g.Title, gMeta, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return fmt.Errorf("persistence: insert group %s: %w", g.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection_id = ?`, c.ID.String()); err != nil {
		return fmt.Errorf("persistence: clear records: %w", err)
	}
	for _, r := range snapshot.Records {
		if err := encoding.ValidateVector(r.Embedding); err != nil {
			return fmt.Errorf("persistence: record %s: %w", r.ID, err)
		}
		vecBytes, err := encoding.EncodeVector(r.Embedding)
		if err != nil {
			return fmt.Errorf("persistence: encode vector for record %s: %w", r.ID, err)
		}
		rMeta, err := encoding.EncodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("persistence: encode record metadata: %w", err)
		}
		tagsJSON, err := encoding.EncodeMetadata(tagsToStringMap(r.Tags))
		if err != nil {
			return fmt.Errorf("persistence: encode record tags: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (id, collection_id, group_id, text, vector, author, tags, source, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID.String(), c.ID.String(), r.GroupID.String(), r.Text, vecBytes, r.Author, tagsJSON, r.Source, rMeta,
			r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("persistence: insert record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads back a previously Saved snapshot for collectionID. Returns
// sql.ErrNoRows if the collection was never persisted.
func (s *Store) Load(ctx context.Context, collectionID uuid.UUID) (vc.Snapshot, error) {
	var (
		name, defaultIndexType, metadataJSON string
		dimension                            int
		dataVersion, indexVersion            uint64
		createdAt, updatedAt                 time.Time
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT name, dimension, default_index_type, metadata, data_version, index_version, created_at, updated_at
		FROM collections WHERE id = ?
	`, collectionID.String())
	if err := row.Scan(&name, &dimension, &defaultIndexType, &metadataJSON, &dataVersion, &indexVersion, &createdAt, &updatedAt); err != nil {
		return vc.Snapshot{}, fmt.Errorf("persistence: load collection %s: %w", collectionID, err)
	}
	metadata, err := encoding.DecodeMetadata(metadataJSON)
	if err != nil {
		return vc.Snapshot{}, fmt.Errorf("persistence: decode collection metadata: %w", err)
	}

	collection := vc.Collection{
		ID:               collectionID,
		Name:             name,
		Dimension:        dimension,
		DefaultIndexType: vc.IndexType(defaultIndexType),
		Metadata:         metadata,
		DataVersion:      dataVersion,
		IndexVersion:     indexVersion,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}

	groups, err := s.loadGroups(ctx, collectionID)
	if err != nil {
		return vc.Snapshot{}, err
	}
	records, err := s.loadRecords(ctx, collectionID)
	if err != nil {
		return vc.Snapshot{}, err
	}

	return vc.Snapshot{Collection: collection, Groups: groups, Records: records}, nil
}

// Delete removes a collection and its groups/records from the store.
func (s *Store) Delete(ctx context.Context, collectionID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, collectionID.String())
	if err != nil {
		return fmt.Errorf("persistence: delete collection %s: %w", collectionID, err)
	}
	return nil
}

// ListCollectionIDs returns the ids of every persisted collection.
func (s *Store) ListCollectionIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("persistence: list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, fmt.Errorf("persistence: scan collection id: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindIDByName resolves a collection name to its id. Returns sql.ErrNoRows
// if no collection with that name has been persisted.
func (s *Store) FindIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	var idStr string
	row := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE name = ?`, name)
	if err := row.Scan(&idStr); err != nil {
		return uuid.Nil, fmt.Errorf("persistence: find collection %q: %w", name, err)
	}
	return uuid.Parse(idStr)
}

func (s *Store) loadGroups(ctx context.Context, collectionID uuid.UUID) ([]vc.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, metadata, created_at, updated_at FROM groups WHERE collection_id = ?
	`, collectionID.String())
	if err != nil {
		return nil, fmt.Errorf("persistence: query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []vc.Group
	for rows.Next() {
		var idStr, title, metadataJSON string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&idStr, &title, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("persistence: scan group: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		metadata, err := encoding.DecodeMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("persistence: decode group metadata: %w", err)
		}
		groups = append(groups, vc.Group{
			ID: id, CollectionID: collectionID, Title: title, Metadata: metadata,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	}
	return groups, rows.Err()
}

func (s *Store) loadRecords(ctx context.Context, collectionID uuid.UUID) ([]vc.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, text, vector, author, tags, source, metadata, created_at, updated_at
		FROM records WHERE collection_id = ?
	`, collectionID.String())
	if err != nil {
		return nil, fmt.Errorf("persistence: query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []vc.Record
	for rows.Next() {
		var idStr, groupIDStr, text, author, tagsJSON, source, metadataJSON string
		var vecBytes []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&idStr, &groupIDStr, &text, &vecBytes, &author, &tagsJSON, &source, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("persistence: scan record: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		groupID, err := uuid.Parse(groupIDStr)
		if err != nil {
			continue
		}
		vector, err := encoding.DecodeVector(vecBytes)
		if err != nil {
			return nil, fmt.Errorf("persistence: decode vector for record %s: %w", id, err)
		}
		metadata, err := encoding.DecodeMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("persistence: decode record metadata: %w", err)
		}
		tagMap, err := encoding.DecodeMetadata(tagsJSON)
		if err != nil {
			return nil, fmt.Errorf("persistence: decode record tags: %w", err)
		}

		records = append(records, vc.Record{
			ID: id, CollectionID: collectionID, GroupID: groupID, Text: text, Embedding: vector,
			Author: author, Tags: vc.TagSet(mapKeys(tagMap)...), Source: source, Metadata: metadata,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	}
	return records, rows.Err()
}

func tagsToStringMap(tags map[string]struct{}) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for t := range tags {
		out[t] = ""
	}
	return out
}

func mapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
