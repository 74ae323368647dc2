package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"loanledger/pkg/loan"
)

// FileStore persists the snapshot as a JSON document on disk, with the
// export timestamp in a sidecar file next to it.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to the given path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) tsPath() string {
	return s.path + ".export-timestamp"
}

// Load reads and migrates the snapshot from disk.
func (s *FileStore) Load(_ context.Context) (*loan.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", s.path, err)
	}

	var snap loan.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", s.path, err)
	}
	Migrate(&snap)
	return &snap, nil
}

// Save writes the snapshot atomically via a temporary file rename.
func (s *FileStore) Save(_ context.Context, snap *loan.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// SaveExportTime records the backup timestamp as unix milliseconds.
func (s *FileStore) SaveExportTime(_ context.Context, ts time.Time) error {
	value := strconv.FormatInt(ts.UnixMilli(), 10)
	if err := os.WriteFile(s.tsPath(), []byte(value), 0644); err != nil {
		return fmt.Errorf("writing export timestamp: %w", err)
	}
	return nil
}

// LoadExportTime reads the backup timestamp if one was ever recorded.
func (s *FileStore) LoadExportTime(_ context.Context) (time.Time, bool, error) {
	data, err := os.ReadFile(s.tsPath())
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading export timestamp: %w", err)
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// Clear removes the snapshot and timestamp files.
func (s *FileStore) Clear(_ context.Context) error {
	for _, p := range []string{s.path, s.tsPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
