// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdmin_New(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	user, created, err := svc.CreateAdmin(context.Background(), "Root", "root@example.com", testutil.TestPassword)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestCreateAdmin_PromotesExisting(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	existing := testutil.NewTestUser(t, repo, "jane@example.com", models.RoleUser)
	ctx := context.Background()

	user, created, err := svc.CreateAdmin(ctx, "Jane", "jane@example.com", "ignored-password")

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)

	stored, err := repo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)

	// Password is untouched.
	_, err = svc.Login(ctx, "jane@example.com", testutil.TestPassword)
	assert.NoError(t, err)
}

func TestSetRole(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	user := testutil.NewTestUser(t, repo, "user@example.com", models.RoleUser)

	updated, err := svc.SetRole(context.Background(), admin.ID, user.ID, models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

func TestSetRole_Failures(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	ctx := context.Background()

	_, err := svc.SetRole(ctx, admin.ID, admin.ID, models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrSelfAction)

	_, err = svc.SetRole(ctx, admin.ID, 999, models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = svc.SetRole(ctx, admin.ID, 999, "root")
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}

func TestSetRole_LastAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)

	// actor 0 is the command line, which has no account
	_, err := svc.SetRole(context.Background(), 0, admin.ID, models.RoleUser)

	assert.ErrorIs(t, err, auth.ErrLastAdmin)
}

func TestDeleteUser(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	user := testutil.NewTestUser(t, repo, "user@example.com", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, admin.ID, user.ID))

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, user.ID), auth.ErrUserNotFound)
}

func TestDeleteUser_Self(t *testing.T) {
	svc, repo, _ := newTestService(t, false)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)

	err := svc.DeleteUser(context.Background(), admin.ID, admin.ID)

	assert.ErrorIs(t, err, auth.ErrSelfAction)
}
