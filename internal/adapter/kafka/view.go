package kafka

import (
	"context"
	"log/slog"
	"sync"
)

type gokaView interface {
	Get(key string) (any, error)
	Run(ctx context.Context) error
}

// A view is used for composition.
//
// Running the underlying [goka.View] until the context is done.
type view struct {
	opPrefix string
	gv       gokaView
}

func (v view) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(v.opPrefix, op))

	defer wg.Done()

	log.Info("running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("unexpected fail on run", "err", err)
		stopFn()
		return
	}
	log.Info("stopped")
}

func (v view) get(key string) (any, error) {
	const op = "get"
	val, err := v.gv.Get(key)
	if err != nil {
		return nil, opErr(err, v.opPrefix, op)
	}
	return val, nil
}
