// Package postgres persists canonical snapshots to Postgres with the same
// bucket layout as the sqlite store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"retentionos/pkg/cdm"
)

const defaultDSN = "postgres://localhost/retentionos?sslmode=disable"

// Store is a Postgres-backed snapshot store.
type Store struct {
	db *sql.DB
}

// New opens a snapshot store using the provided DSN, falling back to a
// local default.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		business TEXT NOT NULL,
		bucket TEXT NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (business, bucket)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db}, nil
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
			VALUES ($1, $2, $3)
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
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM snapshots WHERE business = $1`, business)
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
