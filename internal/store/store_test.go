package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanledger/internal/config"
	"loanledger/pkg/caldate"
	"loanledger/pkg/engine"
	"loanledger/pkg/loan"
)

func TestMigrate(t *testing.T) {
	snap := &loan.Snapshot{
		Loans: []loan.Loan{
			{ID: "a", InterestModel: ""},
			{ID: "b", InterestModel: loan.Simple},
			{ID: "c", InterestModel: "juros"},
		},
	}
	Migrate(snap)

	assert.Equal(t, loan.Compound, snap.Loans[0].InterestModel)
	assert.Equal(t, loan.Simple, snap.Loans[1].InterestModel)
	assert.Equal(t, loan.Compound, snap.Loans[2].InterestModel, "unknown model normalized to compound")
	assert.NotNil(t, snap.BorrowerNotes)

	Migrate(nil) // must not panic
}

func TestOpenSelectsBackend(t *testing.T) {
	st, err := Open(config.StorageConfig{Backend: "file", File: config.FileStorage{Path: t.TempDir() + "/x.json"}})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)

	st, err = Open(config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	st, err = Open(config.StorageConfig{Backend: "redis", Redis: config.RedisStorage{Addr: "localhost:6379"}})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, st)
	_ = st.Close()

	_, err = Open(config.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)
}

func TestDemoSnapshot(t *testing.T) {
	today := caldate.MustParse("2025-06-01")
	snap := DemoSnapshot(today)

	require.Len(t, snap.Loans, 3)
	require.Len(t, snap.BorrowerNotes, 2)

	var settled, partial, fresh int
	for _, l := range snap.Loans {
		assert.NotEmpty(t, l.ID)
		assert.True(t, l.InterestModel.Valid())
		switch {
		case engine.IsSettled(l):
			settled++
		case len(l.Payments) > 0:
			partial++
		default:
			fresh++
		}
	}
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, partial)
	assert.Equal(t, 1, fresh)

	// The settled demo loan closed on time, so the demo borrower starts at
	// Bom Pagador rather than Atenção.
	for _, l := range snap.Loans {
		if engine.IsSettled(l) {
			assert.False(t, engine.WasPaidLate(l))
		}
	}
}
