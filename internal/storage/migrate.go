package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/WagnerMushayija/momo-summative/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema for driver. It uses its own connection,
// closed before returning.
func Migrate(driver, dsn string) error {
	var (
		sqlDriver string
		dir       string
	)
	switch driver {
	case config.DriverSQLite:
		sqlDriver, dir = "sqlite", "migrations/sqlite"
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	case config.DriverPostgres:
		sqlDriver, dir = "pgx", "migrations/postgres"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	migrateDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}

	var instance database.Driver
	if driver == config.DriverSQLite {
		instance, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	} else {
		instance, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	}
	if err != nil {
		migrateDB.Close()
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		instance.Close()
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		instance.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
