package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CartEventsProducer = (*CartEventsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CartEventsProducer used for produce [domain.CartEvent].
//
// Records are keyed by session id so one session's events keep their order.
type CartEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCartEventsProducer(
	opts ...ProducerOpt,
) (CartEventsProducer, error) {
	const op = "NewCartEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CartEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CartEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CartEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CartEventsProducer) Close() {
	p.producer.close()
}

func (p CartEventsProducer) ProduceCartEvent(
	ctx context.Context, e domain.CartEvent,
) error {
	const op = "ProduceCartEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(e)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p CartEventsProducer) createRecord(
	e domain.CartEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	b, err := p.encoder.Encode(cartEventToSchemaV1(e))
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(e.SessionID), Value: b}, nil
}
