package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := fmt.Sprintf(`log_level: error
storage:
  driver: sqlite
  sqlite_path: %q
`, dbPath)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{999, "9.99"},
		{10800, "108.00"},
		{-150, "-1.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCents(tt.cents))
	}
}

func TestQuote(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "cart.db"))

	t.Run("BelowThreshold", func(t *testing.T) {
		out, err := execute(t, "--config", cfgPath, "quote", "5000")
		require.NoError(t, err)
		assert.Contains(t, out, "9.99")
		assert.Contains(t, out, "4.00")
		assert.Contains(t, out, "63.99")
	})

	t.Run("FreeShipping", func(t *testing.T) {
		out, err := execute(t, "--config", cfgPath, "quote", "10000")
		require.NoError(t, err)
		assert.Contains(t, out, "0.00")
		assert.Contains(t, out, "108.00")
	})

	t.Run("InvalidSubtotal", func(t *testing.T) {
		_, err := execute(t, "--config", cfgPath, "quote", "abc")
		assert.Error(t, err)
	})

	t.Run("MissingConfig", func(t *testing.T) {
		_, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "quote", "1")
		assert.Error(t, err)
	})
}

func TestShowAndClear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cart.db")
	cfgPath := writeConfig(t, dbPath)

	s, err := storage.NewSQLiteStorage(t.Context(), dbPath)
	require.NoError(t, err)
	data, err := cart.EncodeSnapshot(domain.CartSnapshot{
		Items: []domain.CartItem{{
			ProductID:  "sku-1001",
			Quantity:   2,
			PriceCents: 2500,
			Product:    domain.ProductSnapshot{Title: "Mug"},
		}},
	})
	require.NoError(t, err)
	key := cart.SnapshotKey(cart.DefaultNamespace, "s1")
	require.NoError(t, s.Set(t.Context(), key, data))
	s.Close()

	out, err := execute(t, "--config", cfgPath, "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "sku-1001")
	assert.Contains(t, out, "Mug")
	assert.Contains(t, out, "50.00")
	assert.Contains(t, out, "63.99")

	out, err = execute(t, "--config", cfgPath, "clear", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, key)

	out, err = execute(t, "--config", cfgPath, "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, `no cart for "s1"`)
}
