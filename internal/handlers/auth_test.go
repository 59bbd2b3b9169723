// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/handlers"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/session"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type authEnv struct {
	e        *echo.Echo
	repo     *repository.Repository
	auth     *auth.Service
	sessions *session.Manager
	h        *handlers.AuthHandlers
	admin    *models.User
	user     *models.User
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	authSvc := auth.NewService(repo, &config.AuthConfig{
		BcryptCost:       bcrypt.MinCost,
		ResetTokenTTL:    time.Hour,
		ExposeResetToken: true,
	}, nil)

	sessions, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
		HashKey:    testHashKey,
	}, false)
	require.NoError(t, err)

	return &authEnv{
		e:        echo.New(),
		repo:     repo,
		auth:     authSvc,
		sessions: sessions,
		h:        handlers.NewAuth(authSvc, sessions),
		admin:    testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin),
		user:     testutil.NewTestUser(t, repo, "user@example.com", models.RoleUser),
	}
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_session" {
			return c
		}
	}
	return nil
}

func (env *authEnv) requestToken(t *testing.T) string {
	t.Helper()
	result, err := env.auth.RequestPasswordReset(context.Background(), env.admin.Email)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestLoginPage(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, httptest.NewRequest(http.MethodGet, "/auth/login", nil), nil)

	require.NoError(t, env.h.LoginPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/auth/login"`)
}

func TestLoginPage_AlreadySignedIn(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, httptest.NewRequest(http.MethodGet, "/auth/login", nil), env.admin)

	require.NoError(t, env.h.LoginPage(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_Success(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/login", url.Values{
		"email":    {"ADMIN@example.com"},
		"password": {testutil.TestPassword},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(cookie)
	data, err := env.sessions.Parse(check)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, env.admin.ID, data.UserID)
	assert.True(t, data.IsAdmin())
}

func TestLogin_HtmxRedirect(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/login", url.Values{
		"email":    {env.admin.Email},
		"password": {testutil.TestPassword},
	})
	req.Header.Set("HX-Request", "true")
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
}

func TestLogin_InvalidPassword(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/login", url.Values{
		"email":    {env.admin.Email},
		"password": {"wrong-password"},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Nil(t, sessionCookie(rec))
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/login", url.Values{
		"email":    {"nobody@example.com"},
		"password": {testutil.TestPassword},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestLogin_MissingFields(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, formRequest("/auth/login", url.Values{}), nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required")
}

func TestLogin_RegularUser(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/login", url.Values{
		"email":    {env.user.Email},
		"password": {testutil.TestPassword},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(cookie)
	data, err := env.sessions.Parse(check)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, data.UserID)
	assert.False(t, data.IsAdmin())
}

func TestLoginPage_RegularUserSignedIn(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, httptest.NewRequest(http.MethodGet, "/auth/login", nil), env.user)

	require.NoError(t, env.h.LoginPage(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, formRequest("/auth/logout", url.Values{}), env.admin)

	require.NoError(t, env.h.Logout(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestForgotPasswordPage(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, httptest.NewRequest(http.MethodGet, "/auth/forgot-password", nil), nil)

	require.NoError(t, env.h.ForgotPasswordPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/auth/forgot-password"`)
}

func TestForgotPassword_KnownEmail(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, formRequest("/auth/forgot-password", url.Values{"email": {env.admin.Email}}), nil)

	require.NoError(t, env.h.ForgotPassword(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "If an account exists with this email")
	assert.Contains(t, body, "/auth/reset-password?token=")

	count, err := env.repo.CountPasswordResetTokens(context.Background(), env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, formRequest("/auth/forgot-password", url.Values{"email": {"nobody@example.com"}}), nil)

	require.NoError(t, env.h.ForgotPassword(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "If an account exists with this email")
	assert.NotContains(t, body, "/auth/reset-password?token=")
}

func TestForgotPassword_InvalidEmail(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, formRequest("/auth/forgot-password", url.Values{"email": {"not-an-email"}}), nil)

	require.NoError(t, env.h.ForgotPassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid email address")
}

func TestResetPasswordPage_ValidToken(t *testing.T) {
	env := newAuthEnv(t)
	token := env.requestToken(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/reset-password?token="+url.QueryEscape(token), nil)
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPasswordPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="token" value="`+token+`"`)
}

func TestResetPasswordPage_InvalidToken(t *testing.T) {
	env := newAuthEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/reset-password?token=bogus", nil)
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPasswordPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired reset token")
	assert.NotContains(t, rec.Body.String(), `name="token"`)
}

func TestResetPassword_Success(t *testing.T) {
	env := newAuthEnv(t)
	token := env.requestToken(t)
	req := formRequest("/auth/reset-password", url.Values{
		"token":            {token},
		"password":         {"brand-new-secret-42"},
		"confirm_password": {"brand-new-secret-42"},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPassword(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password has been reset successfully")

	_, err := env.auth.Login(context.Background(), env.admin.Email, "brand-new-secret-42")
	require.NoError(t, err)

	// The token is single use.
	assert.ErrorIs(t, env.auth.VerifyResetToken(context.Background(), token), auth.ErrInvalidResetToken)
}

func TestResetPassword_Mismatch(t *testing.T) {
	env := newAuthEnv(t)
	token := env.requestToken(t)
	req := formRequest("/auth/reset-password", url.Values{
		"token":            {token},
		"password":         {"brand-new-secret-42"},
		"confirm_password": {"something-else-42"},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")
	require.NoError(t, env.auth.VerifyResetToken(context.Background(), token))
}

func TestResetPassword_WeakPassword(t *testing.T) {
	env := newAuthEnv(t)
	token := env.requestToken(t)
	req := formRequest("/auth/reset-password", url.Values{
		"token":            {token},
		"password":         {"short"},
		"confirm_password": {"short"},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least")
	require.NoError(t, env.auth.VerifyResetToken(context.Background(), token))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/auth/reset-password", url.Values{
		"token":            {"bogus"},
		"password":         {"brand-new-secret-42"},
		"confirm_password": {"brand-new-secret-42"},
	})
	c, rec := newContext(env.e, req, nil)

	require.NoError(t, env.h.ResetPassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired reset token")
}

func TestChangePasswordPage(t *testing.T) {
	env := newAuthEnv(t)
	c, rec := newContext(env.e, httptest.NewRequest(http.MethodGet, "/account/password", nil), env.admin)

	require.NoError(t, env.h.ChangePasswordPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="current_password"`)
}

func TestChangePassword_Success(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/account/password", url.Values{
		"current_password": {testutil.TestPassword},
		"new_password":     {"another-secret-77"},
		"confirm_password": {"another-secret-77"},
	})
	c, rec := newContext(env.e, req, env.admin)

	require.NoError(t, env.h.ChangePassword(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password changed successfully")

	_, err := env.auth.Login(context.Background(), env.admin.Email, "another-secret-77")
	require.NoError(t, err)
}

func TestChangePassword_RegularUser(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/account/password", url.Values{
		"current_password": {testutil.TestPassword},
		"new_password":     {"another-secret-77"},
		"confirm_password": {"another-secret-77"},
	})
	c, rec := newContext(env.e, req, env.user)

	require.NoError(t, env.h.ChangePassword(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := env.auth.Login(context.Background(), env.user.Email, "another-secret-77")
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/account/password", url.Values{
		"current_password": {"not-my-password"},
		"new_password":     {"another-secret-77"},
		"confirm_password": {"another-secret-77"},
	})
	c, rec := newContext(env.e, req, env.admin)

	require.NoError(t, env.h.ChangePassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Current password is incorrect")
}

func TestChangePassword_Mismatch(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/account/password", url.Values{
		"current_password": {testutil.TestPassword},
		"new_password":     {"another-secret-77"},
		"confirm_password": {"different-secret-77"},
	})
	c, rec := newContext(env.e, req, env.admin)

	require.NoError(t, env.h.ChangePassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")
}

func TestChangePassword_WeakPassword(t *testing.T) {
	env := newAuthEnv(t)
	req := formRequest("/account/password", url.Values{
		"current_password": {testutil.TestPassword},
		"new_password":     {"12345678901"},
		"confirm_password": {"12345678901"},
	})
	c, rec := newContext(env.e, req, env.admin)

	require.NoError(t, env.h.ChangePassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "numeric")
}

func TestChangePassword_NoUser(t *testing.T) {
	env := newAuthEnv(t)
	c, _ := newContext(env.e, formRequest("/account/password", url.Values{}), nil)

	err := env.h.ChangePassword(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
