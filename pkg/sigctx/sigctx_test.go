package sigctx_test

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithParent(t *testing.T) {
	t.Run("Cancel", func(t *testing.T) {
		ctx, cancel := sigctx.WithParent(t.Context())
		cancel()

		<-ctx.Done()
		assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	})

	t.Run("ParentDone", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(t.Context())
		ctx, cancel := sigctx.WithParent(parent)
		defer cancel()

		cancelParent()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("Signal", func(t *testing.T) {
		ctx, cancel := sigctx.WithParent(t.Context())
		defer cancel()

		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("context is not done after signal")
		}

		var sigErr sigctx.SignalError
		require.True(t, errors.As(context.Cause(ctx), &sigErr))
		assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
	})
}
