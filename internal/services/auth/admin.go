// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
)

// CreateAdmin creates an admin account. If a user with the email already
// exists it is promoted to admin and its password is left unchanged.
// The returned bool reports whether a new account was created.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			if err := s.repo.SetUserRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = models.RoleAdmin
			slog.Info("admin_promoted", "user_id", existing.ID, "email", existing.Email)
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	user, err := s.Register(ctx, RegisterParams{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// SetRole changes the role of a user. Admins cannot change their own role and
// the last admin cannot be demoted.
func (s *Service) SetRole(ctx context.Context, actorID, userID int64, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actorID == userID {
		return nil, ErrSelfAction
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role == role {
		return user, nil
	}

	if user.IsAdmin() {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetUserRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	user.Role = role

	slog.Info("role_changed", "user_id", userID, "role", role, "by", actorID)
	return user, nil
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return ErrSelfAction
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsAdmin() {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user_deleted", "user_id", userID, "by", actorID)
	return nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context) error {
	admins, err := s.repo.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
