package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"loanledger/pkg/loan"
)

const (
	redisDataKey   = "loan-manager-data"
	redisExportKey = "loan-manager-export-timestamp"
)

// RedisStore persists the snapshot as a JSON value under a fixed key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given redis address.
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads and migrates the snapshot.
func (s *RedisStore) Load(ctx context.Context) (*loan.Snapshot, error) {
	data, err := s.client.Get(ctx, redisDataKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot from redis: %w", err)
	}

	var snap loan.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot from redis: %w", err)
	}
	Migrate(&snap)
	return &snap, nil
}

// Save writes the snapshot with no expiry.
func (s *RedisStore) Save(ctx context.Context, snap *loan.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.client.Set(ctx, redisDataKey, data, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot to redis: %w", err)
	}
	return nil
}

// SaveExportTime records the backup timestamp as unix milliseconds.
func (s *RedisStore) SaveExportTime(ctx context.Context, ts time.Time) error {
	value := strconv.FormatInt(ts.UnixMilli(), 10)
	if err := s.client.Set(ctx, redisExportKey, value, 0).Err(); err != nil {
		return fmt.Errorf("writing export timestamp to redis: %w", err)
	}
	return nil
}

// LoadExportTime reads the backup timestamp if one was ever recorded.
func (s *RedisStore) LoadExportTime(ctx context.Context) (time.Time, bool, error) {
	value, err := s.client.Get(ctx, redisExportKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading export timestamp from redis: %w", err)
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// Clear removes both keys.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, redisDataKey, redisExportKey).Err(); err != nil {
		return fmt.Errorf("clearing redis store: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
