package app

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/port"
)

// OpenStorage opens the snapshot storage selected by storage.driver.
//
// A returned storage with a Close method must be closed by the caller.
// The kafka storage is a [port.BackgroundKVStorage] and must be run first.
func OpenStorage(ctx context.Context, cfg config.Config) (port.KVStorage, error) {
	const op = "app.OpenStorage"

	switch driver := cfg.Storage.Driver; driver {
	case config.DriverMemory, "":
		return storage.NewMemoryStorage(), nil

	case config.DriverSQLite:
		s, err := storage.NewSQLiteStorage(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil

	case config.DriverPostgres:
		s, err := storage.NewPostgresStorage(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil

	case config.DriverRedis:
		s, err := storage.NewRedisStorage(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil

	case config.DriverKafka:
		sec, err := brokerSecurity(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s, err := kafka.NewSnapshotTable(kafka.SnapshotTableConfig{
			SeedBrokers: cfg.Broker.SeedBrokers,
			Stream:      cfg.Broker.Topics.CartSnapshots,
			Group:       cfg.Broker.Consumers.SnapshotGroup,
			Security:    sec,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, driver)
	}
}

func brokerSecurity(cfg config.Config) (kafka.Security, error) {
	s := cfg.Broker.Security
	sec := kafka.Security{User: s.User, Pass: s.Pass}
	if s.CAFile == "" {
		return sec, nil
	}

	tlsCfg, err := adapter.MakeTLSConfig(s.CAFile, s.CertFile, s.KeyFile)
	if err != nil {
		return kafka.Security{}, err
	}
	sec.TLSConfig = tlsCfg
	return sec, nil
}
