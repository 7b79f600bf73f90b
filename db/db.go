// Package db opens the datastore and keeps its schema up to date.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLiteURL = "./chirp.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

// Open connects to the datastore. Supported drivers are sqlite and postgres.
func Open(driverName, dataSourceName string) (*sql.DB, error) {
	switch driverName {
	case "", DriverSQLite:
		if dataSourceName == "" {
			dataSourceName = DefaultSQLiteURL
		}
		db, err := sql.Open("sqlite", dataSourceName)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return db, nil
	case DriverPostgres:
		if dataSourceName == "" {
			return nil, errors.New("postgres requires a database url")
		}
		db, err := sql.Open("pgx", dataSourceName)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want sqlite or postgres)", driverName)
	}
}

// Migrate runs every pending up migration. It returns migrate.ErrNoChange
// when the schema is already at the latest version.
func Migrate(db *sql.DB, driverName string) error {
	var driver database.Driver
	var err error
	switch driverName {
	case "", DriverSQLite:
		driverName = DriverSQLite
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DriverPostgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}

	return m.Up()
}

// Setup opens the datastore and migrates it. An up to date schema is not an error.
func Setup(driverName, dataSourceName string) (*sql.DB, error) {
	db, err := Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, driverName); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
