package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/repositories"
	"github.com/desertthunder/notenexus/internal/shared"
)

// Setup writes config.toml from the embedded template when missing and initializes storage:
// the JSON document is created, or SQLite migrations are applied.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		shared.ApplyEnv(config)
		r.config = config
		r.writePlain("✓ Created %s\n", configPath)
	}

	config := r.Config()
	if err := config.Validate(); err != nil {
		return err
	}

	switch config.Storage.Driver {
	case repositories.DriverSQLite:
		return r.setupSQLite(config.Storage, cmd.Bool("rollback"))
	default:
		if cmd.Bool("rollback") {
			return fmt.Errorf("%w: --rollback requires the sqlite storage driver", shared.ErrInvalidArgument)
		}
		return r.setupJSON(config.Storage)
	}
}

func (r *Runner) setupJSON(cfg shared.StorageConfig) error {
	r.logger.Info("initializing JSON document", "path", cfg.Path)

	repo, err := repositories.Open(cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer repo.Close()

	users, err := repo.List(nil)
	if err != nil {
		return err
	}

	r.writePlain("✓ JSON storage ready at %s (%d users)\n", cfg.Path, len(users))
	return nil
}

func (r *Runner) setupSQLite(cfg shared.StorageConfig, rollback bool) error {
	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if rollback {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		if err := r.writeMigrationStatus(db); err != nil {
			return err
		}
		r.writePlainln("✓ Rolled back the latest migration of %s", cfg.Path)
		return nil
	}

	r.logger.Info("running database migrations")
	applied, err := shared.ApplyMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := r.writeMigrationStatus(db); err != nil {
		return err
	}
	r.writePlainln("✓ SQLite storage ready at %s (%d migrations applied now)", cfg.Path, len(applied))
	return nil
}

func (r *Runner) writeMigrationStatus(db *sql.DB) error {
	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, s := range states {
		mark := " "
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %04d %s\n", mark, s.Version, s.Name)
	}
	return nil
}
