package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultReadyTimeout = time.Minute

type gokaProcessor interface {
	Run(ctx context.Context) error
	WaitForReadyContext(ctx context.Context) error
	Stop()
}

// A processor is used for composition.
//
// It runs the underlying goka processor in the background and reports
// readiness once the group table is recovered.
type processor struct {
	opPrefix     string
	gp           gokaProcessor
	readyTimeout time.Duration
	ready        *atomic.Bool
}

func newProcessor(opPrefix string, gp gokaProcessor) processor {
	return processor{
		opPrefix:     opPrefix,
		gp:           gp,
		readyTimeout: defaultReadyTimeout,
		ready:        new(atomic.Bool),
	}
}

// run marks wg done once the processor is ready or has failed to become
// ready. A failed start calls stopFn.
func (p processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("recovering table...")
	if err := p.waitForReady(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("fall down while recovering", "err", err)
			stopFn()
		}
		return
	}
	p.ready.Store(true)
	log.Info("running")
}

func (p processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()
	defer p.ready.Store(false)

	if err := p.gp.Run(ctx); err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p processor) waitForReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.readyTimeout)
	defer cancel()
	return p.gp.WaitForReadyContext(ctx)
}

func (p processor) isReady() bool {
	return p.ready.Load()
}

func (p processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}
