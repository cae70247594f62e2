package kafka

import "log/slog"

type gokaEmitter interface {
	EmitSync(key string, msg any) error
	Finish() error
}

// An emitter is used for composition.
//
// Emitting messages with the underlying [goka.Emitter] and finishing it.
type emitter struct {
	opPrefix string
	ge       gokaEmitter
}

func (e emitter) emit(key string, msg any) error {
	const op = "emit"
	if err := e.ge.EmitSync(key, msg); err != nil {
		return opErr(err, e.opPrefix, op)
	}
	return nil
}

func (e emitter) close() {
	const op = "close"
	log := slog.With("op", makeOp(e.opPrefix, op))

	log.Info("closing emitter...")
	if err := e.ge.Finish(); err != nil {
		log.Error("failed to finish gracefully", "err", err)
		return
	}
	log.Info("emitter is closed")
}
