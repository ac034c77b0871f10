package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spherical/table-extractor/internal/config"
)

const (
	fieldData      = "data"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps the artifact in a Redis hash so the bytes and their
// timestamp are replaced together.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "latest-workbook"
	}

	return &RedisStore{client: client, key: key, ttl: cfg.TTL}, nil
}

// Put replaces the stored artifact.
func (s *RedisStore) Put(ctx context.Context, data []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key,
			fieldData, data,
			fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Get returns the stored artifact or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context) (*Artifact, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	data, ok := fields[fieldData]
	if !ok {
		return nil, ErrNotFound
	}

	var modTime time.Time
	if v := fields[fieldUpdatedAt]; v != "" {
		modTime, _ = time.Parse(time.RFC3339Nano, v)
	}
	return &Artifact{Data: []byte(data), ModTime: modTime}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
