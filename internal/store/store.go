// Package store persists the ledger snapshot. The engine never touches
// storage; a Store hands the orchestrator a read-only snapshot on demand and
// writes back whole snapshots after mutations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanledger/internal/config"
	"loanledger/pkg/constants"
	"loanledger/pkg/loan"
)

// ErrNotFound is returned by Load when no snapshot has been persisted yet.
var ErrNotFound = errors.New("store: no snapshot found")

// Store is the persistence contract for the ledger snapshot and the
// export-timestamp bookkeeping used by the backup workflow.
type Store interface {
	// Load returns the persisted snapshot, migrated to the current schema.
	// Returns ErrNotFound when nothing has been saved yet.
	Load(ctx context.Context) (*loan.Snapshot, error)

	// Save persists the full snapshot, replacing any previous one.
	Save(ctx context.Context, snap *loan.Snapshot) error

	// SaveExportTime records when the user last exported a backup.
	SaveExportTime(ctx context.Context, ts time.Time) error

	// LoadExportTime returns the last export timestamp; ok is false when no
	// backup has ever been exported.
	LoadExportTime(ctx context.Context) (ts time.Time, ok bool, err error)

	// Clear removes the snapshot and export timestamp entirely.
	Clear(ctx context.Context) error

	// Close releases any underlying connections.
	Close() error
}

// Open constructs the Store selected by the storage configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case constants.StorageBackendFile, "":
		path := cfg.File.Path
		if path == "" {
			path = constants.DefaultDataFile
		}
		return NewFileStore(path), nil
	case constants.StorageBackendRedis:
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), nil
	case constants.StorageBackendPostgres:
		return NewPostgresStore(cfg.Postgres.DSN)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Migrate brings a loaded snapshot up to the current schema in place.
// The one legacy rule: loans persisted before the interest model existed
// carry an empty model and default to compound. This runs at load time so
// the calculation layer can assume complete input.
func Migrate(snap *loan.Snapshot) {
	if snap == nil {
		return
	}
	for i := range snap.Loans {
		if !snap.Loans[i].InterestModel.Valid() {
			snap.Loans[i].InterestModel = loan.Compound
		}
	}
	if snap.BorrowerNotes == nil {
		snap.BorrowerNotes = make(map[string]string)
	}
}
