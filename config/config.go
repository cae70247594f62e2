package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/pricing"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverKafka    = "kafka"
)

type consumers struct {
	SnapshotGroup string `mapstructure:"snapshot_group"`
}

type topics struct {
	CartEvents    string `mapstructure:"cart_events"`
	CartSnapshots string `mapstructure:"cart_snapshots"`
}

type security struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	Security           security  `mapstructure:"security"`
}

type cartConfig struct {
	Namespace      string        `mapstructure:"namespace"`
	MaxSessions    int           `mapstructure:"max_sessions"`
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`
}

type storageConfig struct {
	Driver       string              `mapstructure:"driver"`
	WriteTimeout time.Duration       `mapstructure:"write_timeout"`
	SQLitePath   string              `mapstructure:"sqlite_path"`
	PostgresDSN  string              `mapstructure:"postgres_dsn"`
	Redis        storage.RedisConfig `mapstructure:"redis"`
}

type Config struct {
	LogLevel       slog.Level     `mapstructure:"log_level"`
	HTTPServerAddr string         `mapstructure:"http_server_addr"`
	HTTPTimeout    time.Duration  `mapstructure:"http_request_timeout"`
	CatalogFile    string         `mapstructure:"catalog_file"`
	Cart           cartConfig     `mapstructure:"cart"`
	Pricing        pricing.Config `mapstructure:"pricing"`
	Storage        storageConfig  `mapstructure:"storage"`
	Broker         broker         `mapstructure:"broker"`

	v *viper.Viper
}

// EventsEnabled reports whether cart events are produced to the broker.
func (c Config) EventsEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0 && c.Broker.Topics.CartEvents != ""
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the config at path. Any key can be overridden by
// the environment, e.g. STOREFRONT_STORAGE_DRIVER for storage.driver.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return Config{}, err
	}
	cfg.v = v
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaultPricing := pricing.DefaultConfig()

	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("http_request_timeout", "5s")
	v.SetDefault("catalog_file", "config/catalog.yaml")
	v.SetDefault("cart.namespace", cart.DefaultNamespace)
	v.SetDefault("cart.max_sessions", 10_000)
	v.SetDefault("cart.session_idle_ttl", "30m")
	v.SetDefault("pricing.free_shipping_threshold_cents", defaultPricing.FreeShippingThresholdCents)
	v.SetDefault("pricing.flat_shipping_cents", defaultPricing.FlatShippingCents)
	v.SetDefault("pricing.tax_rate_bps", defaultPricing.TaxRateBasisPoints)
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.write_timeout", "2s")
	v.SetDefault("storage.sqlite_path", "storefront.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.ttl", "0s")
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.cart_events", "")
	v.SetDefault("broker.topics.cart_snapshots", "")
	v.SetDefault("broker.consumers.snapshot_group", "")
	v.SetDefault("broker.security.ca_file", "")
	v.SetDefault("broker.security.cert_file", "")
	v.SetDefault("broker.security.key_file", "")
	v.SetDefault("broker.security.user", "")
	v.SetDefault("broker.security.pass", "")
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WatchLogLevel keeps level in sync with log_level while the config
// file changes on disk.
func (c Config) WatchLogLevel(level *slog.LevelVar) {
	const op = "Config.WatchLogLevel"

	if c.v == nil {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		log := slog.With("op", op, "file", e.Name)

		cfg, err := unmarshal(c.v)
		if err != nil {
			log.Warn("failed to reload config", "err", err)
			return
		}
		if level.Level() == cfg.LogLevel {
			return
		}
		level.Set(cfg.LogLevel)
		log.Info("log level is changed", "level", cfg.LogLevel)
	})
	c.v.WatchConfig()
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "./config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPRequestTimeout=%s
	CatalogFile=%q
	CartNamespace=%q
	CartMaxSessions=%d
	CartSessionIdleTTL=%s

	Pricing:
	FreeShippingThresholdCents=%d
	FlatShippingCents=%d
	TaxRateBasisPoints=%d

	Storage:
	Driver=%q
	WriteTimeout=%s
	SQLitePath=%q
	RedisAddr=%q
	RedisTTL=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	SASLUser=%q
	Topics:
		CartEvents=%q
		CartSnapshots=%q
	Consumers:
		SnapshotGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPTimeout,
		c.CatalogFile,
		c.Cart.Namespace,
		c.Cart.MaxSessions,
		c.Cart.SessionIdleTTL,
		c.Pricing.FreeShippingThresholdCents,
		c.Pricing.FlatShippingCents,
		c.Pricing.TaxRateBasisPoints,
		c.Storage.Driver,
		c.Storage.WriteTimeout,
		c.Storage.SQLitePath,
		c.Storage.Redis.Addr,
		c.Storage.Redis.TTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Security.CAFile != "",
		c.Broker.Security.User,
		c.Broker.Topics.CartEvents,
		c.Broker.Topics.CartSnapshots,
		c.Broker.Consumers.SnapshotGroup,
	)
}
