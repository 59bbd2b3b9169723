// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"net/url"
	"strconv"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"github.com/a-h/templ"
)

// DashboardData holds the values shown on the admin dashboard.
type DashboardData struct {
	Name           string
	Role           models.Role
	TotalUsers     int64
	ProcedureCount int
}

// Dashboard renders the landing page. The stat grid and the API shortcut are
// only shown to admins.
func Dashboard(d DashboardData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx
		isAdmin := d.Role == models.RoleAdmin
		roleLabel := T(ctx, "role_"+string(d.Role))
		name := d.Name
		if name == "" {
			name = T(ctx, "dashboard_default_name")
		}

		stats := StatCardGrid(3,
			StatCard(StatCardProps{
				Title: T(ctx, "dashboard_total_users"),
				Value: strconv.FormatInt(d.TotalUsers, 10),
				Icon:  IconUsers,
				Color: StatBlue,
			}),
			StatCard(StatCardProps{
				Title: T(ctx, "dashboard_your_role"),
				Value: roleLabel,
				Icon:  IconShieldCheck,
				Color: StatTeal,
			}),
			StatCard(StatCardProps{
				Title: T(ctx, "dashboard_api_endpoints"),
				Value: strconv.Itoa(d.ProcedureCount),
				Icon:  IconKey,
				Color: StatIndigo,
			}),
		)

		features := component(func(w *writer) {
			w.raw(`<ul class="feature-list">`)
			for _, key := range []string{
				"dashboard_feature_auth",
				"dashboard_feature_rpc",
				"dashboard_feature_reset",
				"dashboard_feature_i18n",
			} {
				w.raw(`<li>`)
				w.text(T(ctx, key))
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		})

		gettingStarted := component(func(w *writer) {
			w.raw(`<div class="quick-actions">`)
			w.render(QuickActionCard(QuickActionCardProps{
				Href:        "/account/password",
				Title:       T(ctx, "nav_change_password"),
				Description: T(ctx, "dashboard_action_password"),
				Icon:        IconLock,
				IconColor:   "text-teal",
				IconBgColor: "bg-teal",
			}))
			if isAdmin {
				w.render(QuickActionCard(QuickActionCardProps{
					Href:        "/users",
					Title:       T(ctx, "nav_users"),
					Description: T(ctx, "dashboard_action_users"),
					Icon:        IconUsers,
					IconColor:   "text-blue",
					IconBgColor: "bg-blue",
				}))
				w.render(QuickActionCard(QuickActionCardProps{
					Href:        "/api/trpc/user.count",
					Title:       T(ctx, "dashboard_action_api"),
					Description: T(ctx, "dashboard_action_api_description"),
					Icon:        IconRocket,
					IconColor:   "text-indigo",
					IconBgColor: "bg-indigo",
				}))
			}
			w.raw(`</div>`)
		})

		w.render(Base(T(ctx, "dashboard_title"), Group(
			PageHeader(
				TData(ctx, "dashboard_welcome", map[string]any{"Name": name}),
				T(ctx, "dashboard_description"),
			),
			component(func(w *writer) {
				if isAdmin {
					w.render(stats)
				}
			}),
			component(func(w *writer) {
				w.raw(`<div class="section-grid">`)
				w.render(SectionCard(T(ctx, "dashboard_features"), T(ctx, "dashboard_features_description"), IconShieldCheck, features))
				w.render(SectionCard(T(ctx, "dashboard_getting_started"), T(ctx, "dashboard_getting_started_description"), IconRocket, gettingStarted))
				w.raw(`</div>`)
			}),
		)))
	})
}

// UsersData holds one page of the user list.
type UsersData struct {
	Users   []models.User
	Total   int64
	Page    int
	PerPage int
}

// Users renders the admin user list with previous and next links.
func Users(d UsersData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx

		table := component(func(w *writer) {
			if len(d.Users) == 0 {
				w.raw(`<p class="empty-state">`)
				w.text(T(ctx, "users_empty"))
				w.raw(`</p>`)
				return
			}
			w.raw(`<table class="table"><thead><tr><th>`)
			w.text(T(ctx, "field_name"))
			w.raw(`</th><th>`)
			w.text(T(ctx, "field_email"))
			w.raw(`</th><th>`)
			w.text(T(ctx, "users_role"))
			w.raw(`</th><th>`)
			w.text(T(ctx, "users_created"))
			w.raw(`</th></tr></thead><tbody>`)
			for i := range d.Users {
				u := &d.Users[i]
				color := BadgeColorDefault
				if u.IsAdmin() {
					color = BadgeColorBlue
				}
				w.raw(`<tr><td>`)
				w.text(u.DisplayName())
				w.raw(`</td><td>`)
				w.text(u.Email)
				w.raw(`</td><td>`)
				w.render(Badge(BadgeStatus, color, T(ctx, "role_"+string(u.Role))))
				w.raw(`</td><td>`)
				w.text(u.CreatedAt.Format("2006-01-02"))
				w.raw(`</td></tr>`)
			}
			w.raw(`</tbody></table>`)

			hasPrev := d.Page > 1
			hasNext := int64(d.Page*d.PerPage) < d.Total
			if hasPrev || hasNext {
				w.raw(`<nav class="pagination">`)
				if hasPrev {
					w.raw(`<a class="button"`)
					w.href("/users?page=" + strconv.Itoa(d.Page-1))
					w.raw(`>`)
					w.text(T(ctx, "pagination_previous"))
					w.raw(`</a>`)
				}
				if hasNext {
					w.raw(`<a class="button"`)
					w.href("/users?page=" + strconv.Itoa(d.Page+1))
					w.raw(`>`)
					w.text(T(ctx, "pagination_next"))
					w.raw(`</a>`)
				}
				w.raw(`</nav>`)
			}
		})

		w.render(Base(T(ctx, "users_title"), Group(
			PageHeader(T(ctx, "users_title"), TPlural(ctx, "users_count", int(d.Total))),
			SectionCard(T(ctx, "users_title"), "", IconUsers, table),
		)))
	})
}

// LoginData holds the state of the login form.
type LoginData struct {
	Email   string
	Error   string
	Message string
}

// Login renders the sign-in page.
func Login(d LoginData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx
		form := component(func(w *writer) {
			w.render(AuthAlert(AlertError, d.Error))
			w.render(AuthAlert(AlertSuccess, d.Message))
			w.raw(`<form method="post" action="/auth/login" class="auth-form">`)
			w.render(CSRFField())
			w.render(Input(FieldProps{
				Name: "email", Label: T(ctx, "field_email"), Type: "email",
				Value: d.Email, Autocomplete: "email", Required: true,
			}))
			w.render(Input(FieldProps{
				Name: "password", Label: T(ctx, "field_password"), Type: "password",
				Autocomplete: "current-password", Required: true,
			}))
			w.render(SubmitButton(T(ctx, "login_submit")))
			w.raw(`</form><p class="auth-footer"><a`)
			w.href("/auth/forgot-password")
			w.raw(`>`)
			w.text(T(ctx, "login_forgot_password"))
			w.raw(`</a></p>`)
		})
		w.render(AuthLayout(T(ctx, "login_title"), T(ctx, "login_subtitle"), form))
	})
}

// ForgotPasswordData holds the state of the forgot password form.
type ForgotPasswordData struct {
	Email   string
	Error   string
	Message string
	Token   string
}

// ForgotPassword renders the reset request page. When Token is set the reset
// link is shown directly.
func ForgotPassword(d ForgotPasswordData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx
		form := component(func(w *writer) {
			w.render(AuthAlert(AlertError, d.Error))
			w.render(AuthAlert(AlertSuccess, d.Message))
			if d.Token != "" {
				w.raw(`<div class="alert alert--warning" role="status"><span>`)
				w.text(T(ctx, "forgot_password_dev_link"))
				w.raw(` <a`)
				w.href("/auth/reset-password?token=" + url.QueryEscape(d.Token))
				w.raw(`>`)
				w.text(T(ctx, "forgot_password_open_link"))
				w.raw(`</a></span></div>`)
			}
			w.raw(`<form method="post" action="/auth/forgot-password" class="auth-form">`)
			w.render(CSRFField())
			w.render(Input(FieldProps{
				Name: "email", Label: T(ctx, "field_email"), Type: "email",
				Value: d.Email, Autocomplete: "email", Required: true,
			}))
			w.render(SubmitButton(T(ctx, "forgot_password_submit")))
			w.raw(`</form><p class="auth-footer"><a`)
			w.href("/auth/login")
			w.raw(`>`)
			w.text(T(ctx, "back_to_login"))
			w.raw(`</a></p>`)
		})
		w.render(AuthLayout(T(ctx, "forgot_password_title"), T(ctx, "forgot_password_subtitle"), form))
	})
}

// ResetPasswordData holds the state of the reset password form.
type ResetPasswordData struct {
	Token   string
	Error   string
	Invalid bool
}

// ResetPassword renders the page for choosing a new password. An invalid
// token replaces the form with a link to request a new one.
func ResetPassword(d ResetPasswordData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx
		body := component(func(w *writer) {
			if d.Invalid {
				w.render(AuthAlert(AlertError, T(ctx, "reset_password_invalid")))
				w.raw(`<p class="auth-footer"><a`)
				w.href("/auth/forgot-password")
				w.raw(`>`)
				w.text(T(ctx, "reset_password_request_new"))
				w.raw(`</a></p>`)
				return
			}
			w.render(AuthAlert(AlertError, d.Error))
			w.raw(`<form method="post" action="/auth/reset-password" class="auth-form">`)
			w.render(CSRFField())
			w.raw(`<input type="hidden" name="token"`)
			w.attr("value", d.Token)
			w.raw(`>`)
			w.render(Input(FieldProps{
				Name: "password", Label: T(ctx, "field_new_password"), Type: "password",
				Autocomplete: "new-password", Required: true,
			}))
			w.render(Input(FieldProps{
				Name: "confirm_password", Label: T(ctx, "field_confirm_password"), Type: "password",
				Autocomplete: "new-password", Required: true,
			}))
			w.render(SubmitButton(T(ctx, "reset_password_submit")))
			w.raw(`</form>`)
		})
		w.render(AuthLayout(T(ctx, "reset_password_title"), T(ctx, "reset_password_subtitle"), body))
	})
}

// ChangePasswordData holds the state of the change password form.
type ChangePasswordData struct {
	Error   string
	Message string
}

// ChangePassword renders the account password form.
func ChangePassword(d ChangePasswordData) templ.Component {
	return component(func(w *writer) {
		ctx := w.ctx
		form := component(func(w *writer) {
			w.render(AuthAlert(AlertError, d.Error))
			w.render(AuthAlert(AlertSuccess, d.Message))
			w.raw(`<form method="post" action="/account/password" class="stack-form">`)
			w.render(CSRFField())
			w.render(Input(FieldProps{
				Name: "current_password", Label: T(ctx, "field_current_password"), Type: "password",
				Autocomplete: "current-password", Required: true,
			}))
			w.render(Input(FieldProps{
				Name: "new_password", Label: T(ctx, "field_new_password"), Type: "password",
				Autocomplete: "new-password", Required: true,
			}))
			w.render(Input(FieldProps{
				Name: "confirm_password", Label: T(ctx, "field_confirm_password"), Type: "password",
				Autocomplete: "new-password", Required: true,
			}))
			w.render(SubmitButton(T(ctx, "change_password_submit")))
			w.raw(`</form>`)
		})
		w.render(Base(T(ctx, "change_password_title"), Group(
			PageHeader(T(ctx, "change_password_title"), T(ctx, "change_password_description")),
			SectionCard(T(ctx, "change_password_title"), "", IconLock, form),
		)))
	})
}
