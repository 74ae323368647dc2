package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"loanledger/pkg/loan"
)

// MemoryStore keeps the snapshot in process memory. Useful for ephemeral
// runs and as the test double for the ledger.
type MemoryStore struct {
	mu       sync.Mutex
	data     []byte
	exported time.Time
	hasTS    bool

	// SaveCount tracks how many times Save was called; tests use it to
	// verify the save-after-mutation contract.
	SaveCount int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*loan.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNotFound
	}
	var snap loan.Snapshot
	if err := json.Unmarshal(s.data, &snap); err != nil {
		return nil, err
	}
	Migrate(&snap)
	return &snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap *loan.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.SaveCount++
	return nil
}

func (s *MemoryStore) SaveExportTime(_ context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported = ts
	s.hasTS = true
	return nil
}

func (s *MemoryStore) LoadExportTime(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exported, s.hasTS, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.exported = time.Time{}
	s.hasTS = false
	return nil
}

func (s *MemoryStore) Close() error { return nil }
