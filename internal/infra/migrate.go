package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus is the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// RunMigrations applies all pending database migrations.
func RunMigrations(dsn string, logger *slog.Logger) (MigrationStatus, error) {
	return migrateSchema(dsn, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(dsn string, steps int, logger *slog.Logger) (MigrationStatus, error) {
	if steps < 1 {
		return MigrationStatus{}, fmt.Errorf("steps must be positive")
	}
	return migrateSchema(dsn, logger, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func migrateSchema(dsn string, logger *slog.Logger, apply func(*migrate.Migrate) error) (MigrationStatus, error) {
	m, err := migrate.New("file://"+findMigrationDir(), dsn)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := apply(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("migrate: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("read version: %w", err)
	}
	logger.Info("migrations applied", "version", version, "dirty", dirty)
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// findMigrationDir walks up from cwd looking for db/migrations. MIGRATIONS_DIR wins if set.
func findMigrationDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	dir, err := os.Getwd()
	if err != nil {
		return "db/migrations"
	}
	for {
		candidate := filepath.Join(dir, "db", "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "db/migrations"
		}
		dir = parent
	}
}
