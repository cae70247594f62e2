package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.KVStorage = (*MemoryStorage)(nil)

// A MemoryStorage keeps values for the process lifetime only.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "MemoryStorage.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	return bytes.Clone(v), nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	const op = "MemoryStorage.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = bytes.Clone(value)
	return nil
}

func (s *MemoryStorage) Remove(ctx context.Context, key string) error {
	const op = "MemoryStorage.Remove"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
