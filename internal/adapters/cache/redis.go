package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/festivo/backstop/internal/logging"
)

const redisScanBatchSize = 100

// RedisStore shares one cache across replicas. Errors talking to redis
// degrade to cache misses: an unreachable cache behaves like a cold one
// and never fails a read path.
type RedisStore struct {
	ctx    context.Context
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an initialized client. All keys are namespaced
// under the given prefix so unrelated users of the same redis don't
// collide. The context carries the store's logger and bounds background
// operations.
func NewRedisStore(ctx context.Context, client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		ctx:    ctx,
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) fullKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(key string) ([]byte, bool) {
	value, err := s.client.Get(s.ctx, s.fullKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(s.ctx).Error("Failed to read from redis", "error", err, "key", key)
		}
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.client.Set(s.ctx, s.fullKey(key), value, ttl).Err(); err != nil {
		logging.FromContext(s.ctx).Error("Failed to write to redis", "error", err, "key", key)
	}
}

func (s *RedisStore) Remove(key string) {
	if err := s.client.Del(s.ctx, s.fullKey(key)).Err(); err != nil {
		logging.FromContext(s.ctx).Error("Failed to delete from redis", "error", err, "key", key)
	}
}

func (s *RedisStore) RemoveMatching(prefix string) int {
	removed := 0

	iter := s.client.Scan(s.ctx, 0, s.fullKey(prefix)+"*", redisScanBatchSize).Iterator()
	for iter.Next(s.ctx) {
		if err := s.client.Del(s.ctx, iter.Val()).Err(); err != nil {
			logging.FromContext(s.ctx).Error("Failed to delete matching key from redis", "error", err, "key", iter.Val())
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		logging.FromContext(s.ctx).Error("Failed to scan redis for matching keys", "error", err, "prefix", prefix)
	}

	return removed
}

func (s *RedisStore) Clear() {
	s.RemoveMatching("")
}
