// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/templates"
	"github.com/labstack/echo/v4"
)

// ProcedureCounter reports how many RPC procedures are registered.
type ProcedureCounter interface {
	Len() int
}

// Handlers contains the page handlers that are not part of the auth flow.
type Handlers struct {
	repo       *repository.Repository
	procedures ProcedureCounter
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, procedures ProcedureCounter) *Handlers {
	return &Handlers{repo: repo, procedures: procedures}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Dashboard renders the landing page. Admins also get the stat grid; a
// failing user count is shown as 0.
func (h *Handlers) Dashboard(c echo.Context) error {
	user := appcontext.CurrentUser(c)
	if user == nil {
		return echo.ErrUnauthorized
	}

	data := templates.DashboardData{
		Name: user.Name,
		Role: user.Role,
	}

	if user.IsAdmin() {
		ctx := c.Request().Context()
		total, err := h.repo.CountUsers(ctx)
		if err != nil {
			slog.WarnContext(ctx, "dashboard_user_count_failed", "error", err)
			total = 0
		}
		data.TotalUsers = total
		if h.procedures != nil {
			data.ProcedureCount = h.procedures.Len()
		}
	}

	return Render(c, http.StatusOK, templates.Dashboard(data))
}

// UsersPerPage is the page size of the user list.
const UsersPerPage = 25

// Users renders the paginated user list, newest first.
func (h *Handlers) Users(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	total, err := h.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	users, err := h.repo.ListUsers(ctx, UsersPerPage, (page-1)*UsersPerPage)
	if err != nil {
		return err
	}

	return Render(c, http.StatusOK, templates.Users(templates.UsersData{
		Users:   users,
		Total:   total,
		Page:    page,
		PerPage: UsersPerPage,
	}))
}
