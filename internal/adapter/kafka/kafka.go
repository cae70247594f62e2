package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

// A Security holds the optional TLS and SASL/PLAIN settings of the brokers.
//
// The zero value means plaintext without authentication.
type Security struct {
	TLSConfig *tls.Config
	User      string
	Pass      string
}

func (s Security) kgoOpts() []kgo.Opt {
	var opts []kgo.Opt
	if s.TLSConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(s.TLSConfig))
	}
	if s.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: s.User,
			Pass: s.Pass,
		}.AsMechanism()))
	}
	return opts
}

// applySASLTLS sets the security of goka global config,
// used by every emitter, processor and view created afterwards.
func applySASLTLS(s Security) {
	if s.TLSConfig == nil && s.User == "" {
		return
	}

	cfg := goka.DefaultConfig()
	if s.TLSConfig != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = s.TLSConfig
	}
	if s.User != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.User = s.User
		cfg.Net.SASL.Password = s.Pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, sec Security,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kgoOpts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}, sec.kgoOpts()...)

		cl, err := kgo.NewClient(kgoOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func cartEventToSchemaV1(v domain.CartEvent) (s schema.CartEventV1) {
	s.SessionID = v.SessionID
	s.Type = string(v.Type)
	s.ProductID = v.ProductID
	s.ItemCount = v.ItemCount
	s.SubtotalCents = v.SubtotalCents
	s.TotalCents = v.TotalCents
	s.OccurredAt = v.OccurredAt
	return
}
