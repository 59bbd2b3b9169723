// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"path/filepath"
	"testing"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/database"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	return newCommand().Run(context.Background(), append([]string{"app"}, args...))
}

func TestCreateAdmin(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "app.db")

	err := runApp(t, "--database-dsn", dsn, "--bcrypt-cost", "4",
		"create-admin", "--name", "Root", "--email", "root@example.com", "--password", "long-enough-secret")
	require.NoError(t, err)

	db, err := database.Open(dsn)
	require.NoError(t, err)
	defer db.Close()

	user, err := repository.New(db).GetUserByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Root", user.Name)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestCreateAdmin_WeakPassword(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "app.db")

	err := runApp(t, "--database-dsn", dsn,
		"create-admin", "--email", "root@example.com", "--password", "short")

	require.Error(t, err)
}

func TestMigrateVersion(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "app.db")

	require.NoError(t, runApp(t, "--database-dsn", dsn, "migrate", "version"))
	require.NoError(t, runApp(t, "--database-dsn", dsn, "migrate", "status"))
}
