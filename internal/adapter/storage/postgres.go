package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.KVStorage = (*PostgresStorage)(nil)

// DBPool matches the methods of *pgxpool.Pool the storage uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// A PostgresStorage keeps snapshots in the cart_snapshots table
// created by the migrator.
type PostgresStorage struct {
	pool DBPool
}

func NewPostgresStorage(ctx context.Context, dsn string) (PostgresStorage, error) {
	const op = "NewPostgresStorage"

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return PostgresStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return PostgresStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	s := NewPostgresStorageWithPool(pool)
	if err := s.ping(ctx); err != nil {
		pool.Close()
		return PostgresStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func NewPostgresStorageWithPool(pool DBPool) PostgresStorage {
	return PostgresStorage{pool}
}

func (s PostgresStorage) ping(ctx context.Context) error {
	const op = "PostgresStorage.ping"
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%s: database unavailable: %w", op, err)
	}
	slog.Info("database is available", "op", op)
	return nil
}

func (s PostgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "PostgresStorage.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT value FROM cart_snapshots WHERE key = $1;`

	var v []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, port.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s PostgresStorage) Set(ctx context.Context, key string, value []byte) error {
	const op = "PostgresStorage.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO cart_snapshots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;`

	err := retry.Do(ctx, writeRetryConfig(pgconn.SafeToRetry), func() error {
		_, err := s.pool.Exec(ctx, query, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s PostgresStorage) Remove(ctx context.Context, key string) error {
	const op = "PostgresStorage.Remove"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM cart_snapshots WHERE key = $1;`
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s PostgresStorage) Close() {
	const op = "PostgresStorage.Close"
	log := slog.With("op", op)

	log.Info("closing postgres pool...")
	s.pool.Close()
	log.Info("postgres pool is closed")
}
