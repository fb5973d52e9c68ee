// Package persistence optionally persists finished canonical snapshots to
// a relational store, one JSON payload per entity-type bucket, keyed by
// business. Runs work without any store configured.
package persistence

import (
	"context"
	"encoding/json"
	"os"

	"retentionos/internal/persistence/postgres"
	"retentionos/internal/persistence/sqlite"
	"retentionos/pkg/cdm"
)

// Store saves and reloads canonical snapshots. Save overwrites the
// business's previous snapshot.
type Store interface {
	Save(ctx context.Context, business string, entities map[cdm.EntityType][]cdm.Record) error
	// Load returns the stored payload per entity-type bucket.
	Load(ctx context.Context, business string) (map[cdm.EntityType]json.RawMessage, error)
	Close() error
}

var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Open selects a snapshot store from environment variables.
//
//	RETENTIONOS_SNAPSHOT_DRIVER: sqlite|postgres (default: no store, nil)
//	RETENTIONOS_SQLITE_PATH: database file when driver=sqlite
//	RETENTIONOS_POSTGRES_DSN: connection string when driver=postgres
func Open(ctx context.Context) (Store, error) {
	switch os.Getenv("RETENTIONOS_SNAPSHOT_DRIVER") {
	case "":
		return nil, nil
	case "sqlite":
		return sqlite.New(os.Getenv("RETENTIONOS_SQLITE_PATH"))
	case "postgres":
		return postgres.New(ctx, os.Getenv("RETENTIONOS_POSTGRES_DSN"))
	default:
		return nil, cdm.Configf("unknown snapshot driver %q", os.Getenv("RETENTIONOS_SNAPSHOT_DRIVER"))
	}
}
