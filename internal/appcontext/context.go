// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context and context keys.
package appcontext

import (
	"context"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/htmx"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"github.com/labstack/echo/v4"
)

// Context keys for storing values in context.Context.
type (
	// CSRFToken is the context key for the CSRF token.
	CSRFToken struct{}
	// CSSPath is the context key for the stylesheet path.
	CSSPath struct{}
	// User is the context key for the authenticated user.
	User struct{}
)

// Context is a custom Echo context with typed fields for htmx and the signed-in user.
type Context struct {
	echo.Context
	Htmx *htmx.Request
	User *models.User // nil if not authenticated
}

// GetUser returns the authenticated user, or nil if not authenticated.
func (c *Context) GetUser() *models.User {
	return c.User
}

// IsAuthenticated returns true if the user is authenticated.
func (c *Context) IsAuthenticated() bool {
	return c.User != nil
}

// IsAdmin returns true if the user is authenticated and has the admin role.
func (c *Context) IsAdmin() bool {
	return c.User != nil && c.User.IsAdmin()
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, User{}, user)
}

// UserFrom returns the authenticated user stored in ctx, or nil.
func UserFrom(ctx context.Context) *models.User {
	if user, ok := ctx.Value(User{}).(*models.User); ok {
		return user
	}
	return nil
}

// HtmxFrom returns the htmx details of an Echo request, parsing the headers
// when c is not the custom context.
func HtmxFrom(c echo.Context) *htmx.Request {
	if cc, ok := c.(*Context); ok && cc.Htmx != nil {
		return cc.Htmx
	}
	return htmx.ParseRequest(c.Request())
}

// CurrentUser returns the authenticated user of an Echo request, looking at
// the custom context first and the request context second.
func CurrentUser(c echo.Context) *models.User {
	if cc, ok := c.(*Context); ok && cc.User != nil {
		return cc.User
	}
	return UserFrom(c.Request().Context())
}
