package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

func (s *Store) migrationProvider() (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch s.driver {
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite3"
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		return nil, fmt.Errorf("no migrations for driver %q", s.driver)
	}

	fsys, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	return goose.NewProvider(dialect, s.db, fsys)
}

// Migrate applies every pending schema migration
func (s *Store) Migrate(ctx context.Context) error {
	provider, err := s.migrationProvider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		s.logger.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"duration": r.Duration,
		}).Info("applied migration")
	}
	return nil
}

// SchemaVersion returns the current migration version of the database
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := s.migrationProvider()
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
