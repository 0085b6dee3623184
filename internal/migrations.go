package internal

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bharosa/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending migrations and returns the resulting
// schema version.
func RunMigrations(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations.MigrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	return version, nil
}
