package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/port"
	_ "modernc.org/sqlite"
)

var _ port.KVStorage = (*SQLiteStorage)(nil)

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
	Close() error
}

// A SQLiteStorage keeps snapshots in a local database file.
type SQLiteStorage struct {
	sqldb sqldb
}

func NewSQLiteStorage(ctx context.Context, path string) (SQLiteStorage, error) {
	const op = "NewSQLiteStorage"
	log := slog.With("op", op)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLiteStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	s := SQLiteStorage{db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return SQLiteStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("sqlite storage is available", "path", path)
	return s, nil
}

func (s SQLiteStorage) init(ctx context.Context) error {
	if err := s.sqldb.PingContext(ctx); err != nil {
		return fmt.Errorf("database is unavailable: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS cart_snapshots (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`
	if _, err := s.sqldb.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "SQLiteStorage.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT value FROM cart_snapshots WHERE key = ?;`

	var v []byte
	err := s.sqldb.QueryRowContext(ctx, query, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, port.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	const op = "SQLiteStorage.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO cart_snapshots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at;`

	if _, err := s.sqldb.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s SQLiteStorage) Remove(ctx context.Context, key string) error {
	const op = "SQLiteStorage.Remove"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM cart_snapshots WHERE key = ?;`
	if _, err := s.sqldb.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s SQLiteStorage) Close() {
	const op = "SQLiteStorage.Close"
	log := slog.With("op", op)

	log.Info("closing sqlite storage...")
	if err := s.sqldb.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sqlite storage is closed")
}
