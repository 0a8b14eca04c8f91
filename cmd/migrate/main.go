package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"inventory/internal/config"
	"inventory/internal/infra/db"
	"inventory/internal/logger"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

func main() {
	logg := logger.New(logger.Options{
		ServiceName: "inventory-migrate",
		Level:       logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format:      "console",
	})

	app := &cli.App{
		Name:  "migrate",
		Usage: "apply goose migrations to the postgres database",
		Commands: []*cli.Command{
			gooseCommand("up", "apply all pending migrations", logg),
			gooseCommand("down", "roll back the latest migration", logg),
			gooseCommand("status", "print migration status", logg),
			gooseCommand("redo", "roll back and re-apply the latest migration", logg),
			gooseCommand("reset", "roll back all migrations", logg),
			{
				Name:      "to",
				Usage:     "migrate up or down to the given version",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("missing <version>", 2)
					}
					return withDB(c.Context, logg, func(ctx context.Context, sqlDB *sql.DB) error {
						return db.MigrateToVersion(ctx, sqlDB, c.Args().First())
					})
				},
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		logg.Error(context.Background(), "migrate failed", err)
		os.Exit(1)
	}
}

func gooseCommand(name, usage string, logg *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return withDB(c.Context, logg, func(ctx context.Context, sqlDB *sql.DB) error {
				return db.RunMigrations(ctx, sqlDB, name)
			})
		},
	}
}

func withDB(ctx context.Context, logg *logger.Logger, fn func(ctx context.Context, sqlDB *sql.DB) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return fmt.Errorf("goose migrations are postgres only (DB_DRIVER=%s uses auto-migrate)", cfg.DB.Driver)
	}

	gormDB, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close(gormDB)) }()

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(logg.WithField(ctx, "db", cfg.DB.Name), "migrate ready")
	return fn(ctx, sqlDB)
}
