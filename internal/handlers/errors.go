// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/htmx"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/templates"
	"github.com/labstack/echo/v4"
)

// NotFound renders the 404 error page.
func NotFound(c echo.Context) error {
	ctx := c.Request().Context()
	return RenderError(c, http.StatusNotFound,
		templates.T(ctx, "error_not_found_title"), templates.T(ctx, "error_not_found_message"))
}

// Forbidden renders the 403 error page.
func Forbidden(c echo.Context) error {
	ctx := c.Request().Context()
	return RenderError(c, http.StatusForbidden,
		templates.T(ctx, "error_forbidden_title"), templates.T(ctx, "error_forbidden_message"))
}

// BadRequest renders a 400 error page.
func BadRequest(c echo.Context, message string) error {
	ctx := c.Request().Context()
	if message == "" {
		message = templates.T(ctx, "error_bad_request_message")
	}
	return RenderError(c, http.StatusBadRequest, templates.T(ctx, "error_bad_request_title"), message)
}

// InternalServerError renders a 500 error page.
func InternalServerError(c echo.Context) error {
	ctx := c.Request().Context()
	return RenderError(c, http.StatusInternalServerError,
		templates.T(ctx, "error_internal_title"), templates.T(ctx, "error_internal_message"))
}

// RenderError renders an error page with the given status code. htmx
// requests only receive the message so it can be swapped into the page,
// except for boosted navigation which expects a full document.
func RenderError(c echo.Context, code int, title, message string) error {
	c.Response().Header().Add(echo.HeaderVary, htmx.HeaderRequest)
	if hx := appcontext.HtmxFrom(c); hx.IsHtmx && !hx.IsBoosted {
		return Render(c, code, templates.ErrorFragment(message))
	}
	return Render(c, code, templates.ErrorPage(code, title, message))
}

// ErrorHandler is the echo.HTTPErrorHandler for the application. API routes
// get JSON, everything else gets an HTML error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request_failed", "path", c.Request().URL.Path, "error", err)
	}

	var renderErr error
	switch {
	case strings.HasPrefix(c.Request().URL.Path, "/api/"):
		renderErr = c.JSON(code, map[string]string{"error": http.StatusText(code)})
	case c.Request().Method == http.MethodHead:
		renderErr = c.NoContent(code)
	case code == http.StatusNotFound:
		renderErr = NotFound(c)
	case code == http.StatusForbidden:
		renderErr = Forbidden(c)
	case code == http.StatusBadRequest:
		renderErr = BadRequest(c, "")
	case code >= http.StatusInternalServerError:
		renderErr = InternalServerError(c)
	default:
		title := http.StatusText(code)
		if title == "" {
			title = "Error"
		}
		renderErr = RenderError(c, code, title, title)
	}

	if renderErr != nil {
		slog.ErrorContext(c.Request().Context(), "error_page_failed", "error", renderErr)
	}
}
