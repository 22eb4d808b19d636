package store

//nolint:revive
import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"otasync/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStepUp = "step-up"
	MigrateDrop   = "drop"
)

// MigrateActions lists the actions Migrate accepts.
var MigrateActions = []string{MigrateUp, MigrateDown, MigrateStepUp, MigrateDrop}

func getMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded migrations: %w", err)
	}

	dsn := DSN(cfg) + "&x-migrations-table=" + url.QueryEscape(cfg.DB.Postgres.MigrationTable)

	mig, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

// Migrate runs one of MigrateActions against the configured database.
func Migrate(cfg *config.Config, action string) error {
	mig, err := getMigrator(cfg)
	if err != nil {
		return err
	}

	defer mig.Close()

	switch action {
	case MigrateUp:
		if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error running migrations: %w", err)
		}

		log.Info().Msg("Database migrations completed successfully")
	case MigrateDown:
		if err := mig.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error rolling back migrations: %w", err)
		}

		log.Info().Msg("Database migrations rolled back successfully")
	case MigrateStepUp:
		if err := mig.Steps(1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error running migrations: %w", err)
		}

		log.Info().Msg("Database migrations completed successfully")
	case MigrateDrop:
		if err := mig.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error rolling back migrations: %w", err)
		}

		log.Info().Msg("Database migrations rolled back successfully")
	default:
		return fmt.Errorf("invalid migration action %q, use one of %v", action, MigrateActions)
	}

	return nil
}
