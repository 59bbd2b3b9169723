// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/htmx"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/session"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/templates"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for sign-in and password management.
type AuthHandlers struct {
	auth     *auth.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(authSvc *auth.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		auth:     authSvc,
		sessions: sessions,
	}
}

// LoginPage renders the sign-in form. Signed-in users go straight to the dashboard.
func (h *AuthHandlers) LoginPage(c echo.Context) error {
	if user := appcontext.CurrentUser(c); user != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return Render(c, http.StatusOK, templates.Login(templates.LoginData{}))
}

// Login checks the submitted credentials and starts a session.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if email == "" || password == "" {
		return Render(c, http.StatusBadRequest, templates.Login(templates.LoginData{
			Email: email,
			Error: templates.T(ctx, "login_required_fields"),
		}))
	}

	user, err := h.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return Render(c, http.StatusUnauthorized, templates.Login(templates.LoginData{
				Email: email,
				Error: templates.T(ctx, "login_invalid"),
			}))
		}
		return err
	}

	cookie, err := h.sessions.Create(user.ID, user.Email, user.Role)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	htmx.Redirect(c.Response(), c.Request(), "/")
	return nil
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	htmx.Redirect(c.Response(), c.Request(), "/auth/login")
	return nil
}

// ForgotPasswordPage renders the reset request form.
func (h *AuthHandlers) ForgotPasswordPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.ForgotPassword(templates.ForgotPasswordData{}))
}

// ForgotPassword issues a reset token. The page looks the same whether or
// not the email belongs to an account.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	email := strings.TrimSpace(c.FormValue("email"))

	if email == "" || !strings.Contains(email, "@") {
		return Render(c, http.StatusBadRequest, templates.ForgotPassword(templates.ForgotPasswordData{
			Email: email,
			Error: templates.T(ctx, "forgot_password_invalid_email"),
		}))
	}

	result, err := h.auth.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}

	return Render(c, http.StatusOK, templates.ForgotPassword(templates.ForgotPasswordData{
		Message: templates.T(ctx, "forgot_password_sent"),
		Token:   result.Token,
	}))
}

// ResetPasswordPage renders the new password form for the token in the query string.
func (h *AuthHandlers) ResetPasswordPage(c echo.Context) error {
	token := c.QueryParam("token")

	if err := h.auth.VerifyResetToken(c.Request().Context(), token); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			return Render(c, http.StatusOK, templates.ResetPassword(templates.ResetPasswordData{Invalid: true}))
		}
		return err
	}

	return Render(c, http.StatusOK, templates.ResetPassword(templates.ResetPasswordData{Token: token}))
}

// ResetPassword sets a new password and consumes the token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	token := c.FormValue("token")
	password := c.FormValue("password")

	if password != c.FormValue("confirm_password") {
		return Render(c, http.StatusBadRequest, templates.ResetPassword(templates.ResetPasswordData{
			Token: token,
			Error: templates.T(ctx, "password_mismatch"),
		}))
	}

	err := h.auth.ResetPassword(ctx, token, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			return Render(c, http.StatusBadRequest, templates.ResetPassword(templates.ResetPasswordData{Invalid: true}))
		}
		var policyErr *auth.PasswordValidationError
		if errors.As(err, &policyErr) {
			return Render(c, http.StatusBadRequest, templates.ResetPassword(templates.ResetPasswordData{
				Token: token,
				Error: policyErr.Error(),
			}))
		}
		return err
	}

	return Render(c, http.StatusOK, templates.Login(templates.LoginData{
		Message: templates.T(ctx, "reset_password_done"),
	}))
}

// ChangePasswordPage renders the account password form.
func (h *AuthHandlers) ChangePasswordPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.ChangePassword(templates.ChangePasswordData{}))
}

// ChangePassword updates the password of the signed-in user.
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	user := appcontext.CurrentUser(c)
	if user == nil {
		return echo.ErrUnauthorized
	}

	newPassword := c.FormValue("new_password")
	if newPassword != c.FormValue("confirm_password") {
		return Render(c, http.StatusBadRequest, templates.ChangePassword(templates.ChangePasswordData{
			Error: templates.T(ctx, "password_mismatch"),
		}))
	}

	err := h.auth.ChangePassword(ctx, user.ID, c.FormValue("current_password"), newPassword)
	if err != nil {
		var policyErr *auth.PasswordValidationError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return Render(c, http.StatusBadRequest, templates.ChangePassword(templates.ChangePasswordData{
				Error: templates.T(ctx, "change_password_wrong_current"),
			}))
		case errors.As(err, &policyErr):
			return Render(c, http.StatusBadRequest, templates.ChangePassword(templates.ChangePasswordData{
				Error: policyErr.Error(),
			}))
		}
		return err
	}

	return Render(c, http.StatusOK, templates.ChangePassword(templates.ChangePasswordData{
		Message: templates.T(ctx, "change_password_done"),
	}))
}
