// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/database"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/server"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// withDB opens the configured database, which applies pending migrations,
// and closes it after fn returns.
func withDB(cmd *cli.Command, fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	return fn(cfg, db)
}

func migrateAction(run func(db *sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
			return run(db.DB)
		})
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction(database.MigrateReset),
			},
			{
				Name:   "status",
				Usage:  "Show the status of all migrations",
				Action: migrateAction(database.MigrationStatus),
			},
			{
				Name:  "version",
				Usage: "Print the current schema version",
				Action: migrateAction(func(db *sql.DB) error {
					version, err := database.MigrationVersion(db)
					if err != nil {
						return err
					}
					fmt.Println(version)
					return nil
				}),
			},
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an admin account or promote an existing user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name of the admin",
				Value: "Admin",
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Email address of the admin",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Password for a new admin (ignored when promoting)",
				Sources:  cli.EnvVars("ADMIN_PASSWORD"),
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
				svc := auth.NewService(repository.New(db), &cfg.Auth, nil)

				user, created, err := svc.CreateAdmin(ctx, cmd.String("name"), cmd.String("email"), cmd.String("password"))
				if err != nil {
					return err
				}

				if created {
					fmt.Printf("Created admin %s (id %d)\n", user.Email, user.ID)
				} else {
					fmt.Printf("Promoted %s (id %d) to admin\n", user.Email, user.ID)
				}
				return nil
			})
		},
	}
}
