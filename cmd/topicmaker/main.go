package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

const (
	partitions        = 3
	replicationFactor = 3
	delete            = "delete"
	compact           = "compact"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg)
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	topics := cfg.Broker.Topics

	// regular topics
	err := makeTopics(
		sigCtx, cl, delete,
		nonEmpty(topics.CartEvents, topics.CartSnapshots)...,
	)
	if err != nil {
		printFail(err)
		return
	}

	// group table topics
	group := cfg.Broker.Consumers.SnapshotGroup
	if group == "" {
		return
	}
	err = makeTopics(sigCtx, cl, compact, toGroupTable(group))
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) *kadm.Client {
	sec := cfg.Broker.Security

	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}
	if sec.CAFile != "" {
		tlsCfg, err := adapter.MakeTLSConfig(sec.CAFile, sec.CertFile, sec.KeyFile)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if sec.User != "" {
		opts = append(opts, kgo.SASL(
			plain.Auth{User: sec.User, Pass: sec.Pass}.AsMechanism(),
		))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	if len(topics) == 0 {
		return nil
	}

	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func nonEmpty(topics ...string) []string {
	out := topics[:0]
	for _, t := range topics {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- cart events: %q
	- cart snapshots: %q
	- snapshot group table: %q

`,
		cfg.Broker.Topics.CartEvents,
		cfg.Broker.Topics.CartSnapshots,
		cfg.Broker.Consumers.SnapshotGroup,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
