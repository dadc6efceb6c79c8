package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

const (
	redisKeyPrefix = "pagewarden:session:"

	// Results expire on their own even without an explicit invalidation,
	// so abandoned sessions do not accumulate.
	redisResultTTL = 24 * time.Hour
)

// RedisStore keeps session results in Redis so multiple gateway instances
// share one view of a session.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, result *snapshot.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+sessionID, data, redisResultTTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*snapshot.ScanResult, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result snapshot.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode scan result: %w", err)
	}
	return &result, true, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, redisKeyPrefix+sessionID).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
