package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanledger/pkg/loan"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreFromClient(client)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	_, err := st.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, sampleSnapshot()))
	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Loans, 1)
	assert.Equal(t, "Ana", loaded.Loans[0].BorrowerName)
	assert.Equal(t, loan.Simple, loaded.Loans[0].InterestModel)
}

func TestRedisStoreExportTime(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	_, ok, err := st.LoadExportTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Now()
	require.NoError(t, st.SaveExportTime(ctx, ts))
	loaded, ok, err := st.LoadExportTime(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ts.UnixMilli(), loaded.UnixMilli())
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	require.NoError(t, st.Save(ctx, sampleSnapshot()))
	require.NoError(t, st.SaveExportTime(ctx, time.Now()))
	require.NoError(t, st.Clear(ctx))

	_, err := st.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok, err := st.LoadExportTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
