// Package storage holds the key-value storages cart snapshots are persisted in.
package storage

import (
	"time"

	"github.com/niksmo/storefront/pkg/retry"
)

const (
	writeAttempts = 3
	writeDelay    = 25 * time.Millisecond
	writeMaxDelay = 200 * time.Millisecond
)

func writeRetryConfig(shouldRetry retry.ShouldRetry) retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: writeAttempts,
		Backoff:     retry.CappedBackoff(retry.ExponentialBackoff(writeDelay), writeMaxDelay),
		ShouldRetry: shouldRetry,
	}
}
