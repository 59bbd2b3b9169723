// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/htmx"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/session"
	"github.com/labstack/echo/v4"
)

// UserLoader loads the account behind a session.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware loads the signed-in user from the session cookie. The user
// is read from the database on every request so role changes and deletions
// take effect immediately; a session for a vanished account is cleared.
func AuthMiddleware(sessions *session.Manager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data, err := sessions.Parse(c.Request())
			if err != nil || data == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, data.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					c.SetCookie(sessions.Clear())
				} else {
					slog.ErrorContext(ctx, "session_user_load_failed", "user_id", data.UserID, "error", err)
				}
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(appcontext.WithUser(ctx, user)))
			if cc, ok := c.(*appcontext.Context); ok {
				cc.User = user
			}
			return next(c)
		}
	}
}

// RequireAuth redirects unauthenticated users to the login page.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if appcontext.CurrentUser(c) == nil {
				htmx.Redirect(c.Response(), c.Request(), "/auth/login")
				return nil
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects signed-in users without the admin role. It must run
// after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := appcontext.CurrentUser(c)
			if user == nil || !user.IsAdmin() {
				return echo.ErrForbidden
			}
			return next(c)
		}
	}
}
