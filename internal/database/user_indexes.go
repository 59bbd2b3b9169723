// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pressly/goose/v3"
)

// Index names on the users table. createdAtLegacyIndex is accepted when it
// already exists so databases created by older tooling are left alone.
const (
	emailIndex           = "email_1"
	roleIndex            = "role_1"
	createdAtIndex       = "created_at_desc"
	createdAtLegacyIndex = "created_at_-1"
)

func init() {
	goose.AddNamedMigrationContext(migrationsDir+"/00002_create_user_indexes.go", upUserIndexes, downUserIndexes)
}

func upUserIndexes(ctx context.Context, tx *sql.Tx) error {
	names, err := indexNames(ctx, tx, "users")
	if err != nil {
		return err
	}

	// Any index covering email counts, whatever its name.
	hasEmail, err := hasIndexOnColumn(ctx, tx, "users", "email")
	if err != nil {
		return err
	}
	if !hasEmail {
		if _, err := tx.ExecContext(ctx, `CREATE UNIQUE INDEX email_1 ON users (email)`); err != nil {
			return fmt.Errorf("creating %s: %w", emailIndex, err)
		}
		slog.Info("index_created", "table", "users", "index", emailIndex)
	} else {
		slog.Info("index_exists", "table", "users", "column", "email")
	}

	if !slices.Contains(names, roleIndex) {
		if _, err := tx.ExecContext(ctx, `CREATE INDEX role_1 ON users (role)`); err != nil {
			return fmt.Errorf("creating %s: %w", roleIndex, err)
		}
		slog.Info("index_created", "table", "users", "index", roleIndex)
	} else {
		slog.Info("index_exists", "table", "users", "index", roleIndex)
	}

	if !slices.Contains(names, createdAtIndex) && !slices.Contains(names, createdAtLegacyIndex) {
		if _, err := tx.ExecContext(ctx, `CREATE INDEX created_at_desc ON users (created_at DESC)`); err != nil {
			return fmt.Errorf("creating %s: %w", createdAtIndex, err)
		}
		slog.Info("index_created", "table", "users", "index", createdAtIndex)
	} else {
		slog.Info("index_exists", "table", "users", "column", "created_at")
	}

	return nil
}

func downUserIndexes(ctx context.Context, tx *sql.Tx) error {
	names, err := indexNames(ctx, tx, "users")
	if err != nil {
		return err
	}

	drop := []string{emailIndex, roleIndex}
	if slices.Contains(names, createdAtIndex) {
		drop = append(drop, createdAtIndex)
	} else {
		drop = append(drop, createdAtLegacyIndex)
	}

	for _, name := range drop {
		if !slices.Contains(names, name) {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP INDEX %q`, name)); err != nil {
			return fmt.Errorf("dropping %s: %w", name, err)
		}
		slog.Info("index_dropped", "table", "users", "index", name)
	}

	return nil
}

func indexNames(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_index_list(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("listing indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func hasIndexOnColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii WHERE ii.name = ?`,
		table, column).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("inspecting indexes of %s: %w", table, err)
	}
	return count > 0, nil
}
