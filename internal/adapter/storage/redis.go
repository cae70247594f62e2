package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
)

var _ port.KVStorage = (*RedisStorage)(nil)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// A RedisStorage keeps snapshots as plain string keys.
//
// A non-zero TTL lets abandoned carts expire.
type RedisStorage struct {
	rdb    redisClient
	ttl    time.Duration
	closer func() error
}

func NewRedisStorage(ctx context.Context, cfg RedisConfig) (RedisStorage, error) {
	const op = "NewRedisStorage"

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return RedisStorage{}, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op, "addr", cfg.Addr)

	s := NewRedisStorageWithClient(rdb, cfg.TTL)
	s.closer = rdb.Close
	return s, nil
}

func NewRedisStorageWithClient(rdb redisClient, ttl time.Duration) RedisStorage {
	return RedisStorage{rdb: rdb, ttl: ttl}
}

func (s RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "RedisStorage.Get"

	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, port.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	const op = "RedisStorage.Set"

	err := retry.Do(ctx, writeRetryConfig(isNetErr), func() error {
		return s.rdb.Set(ctx, key, value, s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s RedisStorage) Remove(ctx context.Context, key string) error {
	const op = "RedisStorage.Remove"

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s RedisStorage) Close() {
	const op = "RedisStorage.Close"
	log := slog.With("op", op)

	if s.closer == nil {
		return
	}

	log.Info("closing redis client...")
	if err := s.closer(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}

func isNetErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
