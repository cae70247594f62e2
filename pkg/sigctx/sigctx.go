// Package sigctx ties a context lifetime to the termination signals.
package sigctx

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var signals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

func NotifyContext() (context.Context, context.CancelFunc) {
	return WithParent(context.Background())
}

// WithParent returns a copy of parent that is done on the first
// termination signal. The signal is logged and is available through
// [context.Cause] as a [SignalError].
func WithParent(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			slog.Info("signal received", "signal", sig.String())
			cancel(SignalError{sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

type SignalError struct {
	Signal os.Signal
}

func (e SignalError) Error() string {
	return "received signal " + e.Signal.String()
}
