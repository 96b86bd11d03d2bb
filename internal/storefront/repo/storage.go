package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

type RedisStorage struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStorage stores every key as a plain Redis string. A positive ttl
// is refreshed on every write.
func NewRedisStorage(rdb redis.Cmdable, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, ttl: ttl}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to read key from redis")
		return "", false, errx.WrapRedis(err)
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write key to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// MemoryStorage keeps keys in process memory. It is safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

var (
	_ model.Storage = (*RedisStorage)(nil)
	_ model.Storage = (*MemoryStorage)(nil)
)
