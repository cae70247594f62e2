package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/niksmo/storefront/config"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	configFlag        = "config"
	downFlag          = "down"
)

type flags struct {
	storagePath    string
	migrationsPath string
	configPath     string
	down           bool
}

func main() {
	f := getFlagsValues()
	if f.storagePath == "" && f.configPath != "" {
		f.storagePath = storagePathFromConfig(f.configPath)
	}
	validateFlags(f)
	makeMigrations(f)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default().With("op", "migrator"),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() flags {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres address without scheme, user:pass@host:5432/db")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "./migrations", "migrations directory")
	configPath := pflag.StringP(configFlag, "c", "", "read storage.postgres_dsn from the config file")
	down := pflag.Bool(downFlag, false, "roll back all migrations")
	pflag.Parse()
	return flags{
		storagePath:    *storagePath,
		migrationsPath: *migrationsPath,
		configPath:     *configPath,
		down:           *down,
	}
}

// storagePathFromConfig strips the scheme of storage.postgres_dsn,
// the pgx5 driver is selected by its own scheme.
func storagePathFromConfig(path string) string {
	cfg, err := config.LoadFile(path)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		fallDown()
	}
	dsn := cfg.Storage.PostgresDSN
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		dsn = strings.TrimPrefix(dsn, scheme)
	}
	return dsn
}

func validateFlags(f flags) {
	var errs []error

	if f.storagePath == "" {
		errs = append(errs, fmt.Errorf("--%s or --%s flag: required", storagePathFlag, configFlag))
	}

	if f.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

func makeMigrations(f flags) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", f.migrationsPath),
		fmt.Sprintf("pgx5://%s", f.storagePath),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = NewMigrationLogger()

	apply := m.Up
	if f.down {
		apply = m.Down
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}
