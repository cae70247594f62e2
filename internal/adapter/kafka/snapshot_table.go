package kafka

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.BackgroundKVStorage = (*SnapshotTable)(nil)

// A SnapshotTableConfig used for setup [SnapshotTable].
type SnapshotTableConfig struct {
	SeedBrokers []string
	Stream      string
	Group       string
	Security    Security
}

// A SnapshotTable keeps cart snapshots in a goka group table.
//
// Writes are emitted to the stream, the processor folds them into the
// compacted group table and reads are served by a view of that table,
// so a written value becomes readable with a small delay.
// An empty value is a tombstone.
type SnapshotTable struct {
	opPrefix string
	emitter  emitter
	proc     processor
	view     view
	viewWg   sync.WaitGroup
}

func NewSnapshotTable(cfg SnapshotTableConfig) (*SnapshotTable, error) {
	const op = "NewSnapshotTable"

	applySASLTLS(cfg.Security)

	t := &SnapshotTable{opPrefix: "SnapshotTable"}

	ge, err := goka.NewEmitter(
		cfg.SeedBrokers, goka.Stream(cfg.Stream), new(codec.Bytes),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	gg := goka.DefineGroup(goka.Group(cfg.Group),
		goka.Input(goka.Stream(cfg.Stream), new(codec.Bytes), t.processFn),
		goka.Persist(new(codec.Bytes)),
	)

	gp, err := goka.NewProcessor(cfg.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	gv, err := goka.NewView(
		cfg.SeedBrokers, goka.GroupTable(goka.Group(cfg.Group)), new(codec.Bytes),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	t.emitter = emitter{opPrefix: t.opPrefix, ge: ge}
	t.proc = newProcessor(t.opPrefix, gp)
	t.view = view{opPrefix: t.opPrefix, gv: gv}
	return t, nil
}

// Run starts the processor and the view. wg is done when the processor
// is ready, the view keeps running until ctx is done.
func (t *SnapshotTable) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	t.viewWg.Add(1)
	go t.view.run(ctx, stopFn, &t.viewWg)
	t.proc.run(ctx, stopFn, wg)
}

// Close stops the emitter and the processor. The view is stopped by
// the context passed to Run.
func (t *SnapshotTable) Close() {
	t.emitter.close()
	t.proc.close()
}

// Ready reports whether the group table is recovered and the processor
// is consuming writes.
func (t *SnapshotTable) Ready() bool {
	return t.proc.isReady()
}

func (t *SnapshotTable) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "Get"

	if err := ctx.Err(); err != nil {
		return nil, opErr(err, t.opPrefix, op)
	}

	v, err := t.view.get(key)
	if err != nil {
		return nil, opErr(err, t.opPrefix, op)
	}
	if v == nil {
		return nil, opErr(port.ErrNotFound, t.opPrefix, op)
	}

	b, ok := v.([]byte)
	if !ok {
		err := fmt.Errorf("%w: %T", ErrInvalidValueType, v)
		return nil, opErr(err, t.opPrefix, op)
	}
	if len(b) == 0 {
		return nil, opErr(port.ErrNotFound, t.opPrefix, op)
	}
	return bytes.Clone(b), nil
}

func (t *SnapshotTable) Set(ctx context.Context, key string, value []byte) error {
	const op = "Set"

	if err := ctx.Err(); err != nil {
		return opErr(err, t.opPrefix, op)
	}

	if err := t.emitter.emit(key, value); err != nil {
		return opErr(err, t.opPrefix, op)
	}
	return nil
}

func (t *SnapshotTable) Remove(ctx context.Context, key string) error {
	const op = "Remove"

	if err := ctx.Err(); err != nil {
		return opErr(err, t.opPrefix, op)
	}

	if err := t.emitter.emit(key, nil); err != nil {
		return opErr(err, t.opPrefix, op)
	}
	return nil
}

type tableContext interface {
	Key() string
	SetValue(value any, options ...goka.ContextOption)
	Delete(options ...goka.ContextOption)
}

func (t *SnapshotTable) processFn(ctx goka.Context, msg any) {
	t.apply(ctx, msg)
}

func (t *SnapshotTable) apply(ctx tableContext, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(t.opPrefix, op), "key", ctx.Key())

	b, _ := msg.([]byte)
	if len(b) == 0 {
		ctx.Delete()
		log.Debug("snapshot is deleted")
		return
	}
	ctx.SetValue(b)
	log.Debug("snapshot is stored", "size", len(b))
}
