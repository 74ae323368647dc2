package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"loanledger/pkg/loan"
)

// PostgresStore keeps the snapshot as a single JSON document row. The model
// is deliberately a key/value document rather than relational tables: the
// snapshot is small, always read and written whole, and its schema follows
// the export format.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS ledger_snapshot (
		id          INT PRIMARY KEY CHECK (id = 1),
		data        JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS ledger_export_log (
		id           INT PRIMARY KEY CHECK (id = 1),
		exported_at  TIMESTAMPTZ NOT NULL
	)`

// NewPostgresStore connects using the given DSN and ensures the schema
// exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Load reads and migrates the snapshot row.
func (s *PostgresStore) Load(ctx context.Context) (*loan.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM ledger_snapshot WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot row: %w", err)
	}

	var snap loan.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot row: %w", err)
	}
	Migrate(&snap)
	return &snap, nil
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap *loan.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshot (id, data, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = now()`,
		data)
	if err != nil {
		return fmt.Errorf("writing snapshot row: %w", err)
	}
	return nil
}

// SaveExportTime upserts the export timestamp row.
func (s *PostgresStore) SaveExportTime(ctx context.Context, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_export_log (id, exported_at)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET exported_at = $1`,
		ts)
	if err != nil {
		return fmt.Errorf("writing export timestamp: %w", err)
	}
	return nil
}

// LoadExportTime reads the export timestamp if one was ever recorded.
func (s *PostgresStore) LoadExportTime(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT exported_at FROM ledger_export_log WHERE id = 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading export timestamp: %w", err)
	}
	return ts, true, nil
}

// Clear truncates both tables.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`TRUNCATE ledger_snapshot, ledger_export_log`); err != nil {
		return fmt.Errorf("clearing postgres store: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
