// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package api registers the application's procedures on an rpc.Router.
package api

import (
	"errors"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/rpc"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
)

// API holds the dependencies of the procedures.
type API struct {
	repo *repository.Repository
	auth *auth.Service
}

// Register adds the user and auth procedures to r.
func Register(r *rpc.Router, repo *repository.Repository, authSvc *auth.Service) *API {
	a := &API{repo: repo, auth: authSvc}
	a.registerUser(r)
	a.registerAuth(r)
	return a
}

// Result is returned by procedures that only report success.
type Result struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// serviceError maps service and repository errors to procedure errors.
func serviceError(err error) error {
	var pwErr *auth.PasswordValidationError
	switch {
	case errors.As(err, &pwErr):
		return rpc.NewError(rpc.CodeBadRequest, pwErr.Error())
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, repository.ErrNotFound):
		return rpc.NewError(rpc.CodeNotFound, "User not found")
	case errors.Is(err, auth.ErrInvalidResetToken):
		return rpc.NewError(rpc.CodeNotFound, "Invalid or expired reset token")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return rpc.NewError(rpc.CodeBadRequest, "Current password is incorrect")
	case errors.Is(err, auth.ErrUserExists), errors.Is(err, repository.ErrDuplicate):
		return rpc.NewError(rpc.CodeConflict, "A user with this email already exists")
	case errors.Is(err, auth.ErrInvalidEmail):
		return rpc.NewError(rpc.CodeBadRequest, "Invalid email address")
	case errors.Is(err, auth.ErrInvalidRole):
		return rpc.NewError(rpc.CodeBadRequest, "Invalid role")
	case errors.Is(err, auth.ErrLastAdmin):
		return rpc.NewError(rpc.CodeBadRequest, "Cannot remove the last admin")
	case errors.Is(err, auth.ErrSelfAction):
		return rpc.NewError(rpc.CodeForbidden, "You cannot perform this action on your own account")
	default:
		return err
	}
}
