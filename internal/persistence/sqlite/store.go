// Package sqlite persists canonical snapshots to a single SQLite table as
// JSON payloads, one row per business and entity-type bucket.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"retentionos/pkg/cdm"
)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// New opens a snapshot store at path, creating the file and schema if
// needed. An empty path defaults to retentionos.db.
func New(path string) (*Store, error) {
	if path == "" {
		path = "retentionos.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		business TEXT NOT NULL,
		bucket TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (business, bucket)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Save upserts every entity bucket inside one transaction.
func (s *Store) Save(ctx context.Context, business string, entities map[cdm.EntityType][]cdm.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	buckets := make([]cdm.EntityType, 0, len(entities))
	for entity := range entities {
		buckets = append(buckets, entity)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	for _, entity := range buckets {
		payload, err := json.Marshal(entities[entity])
		if err != nil {
			return fmt.Errorf("encode %s: %w", entity, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (business, bucket, payload)
			VALUES (?, ?, ?)
			ON CONFLICT (business, bucket) DO UPDATE SET payload = excluded.payload`,
			business, string(entity), payload); err != nil {
			return fmt.Errorf("upsert %s: %w", entity, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the stored payload per bucket for one business.
func (s *Store) Load(ctx context.Context, business string) (map[cdm.EntityType]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM snapshots WHERE business = ?`, business)
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[cdm.EntityType]json.RawMessage)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[cdm.EntityType(bucket)] = json.RawMessage(payload)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
