// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/i18n"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/session"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	sessMgr, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
		HashKey:    testHashKey,
	}, false)
	require.NoError(t, err)
	return sessMgr
}

// withCustomContext wraps requests in appcontext.Context, optionally with a user.
func withCustomContext(user *models.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&appcontext.Context{Context: c, User: user})
		}
	}
}

func TestIsHashedAsset(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/static/css/styles.abc12345.css", true},
		{"/static/css/styles.d073ff63.css", true},
		{"/static/css/styles.css", false},
		{"/static/css/styles.ABCDEFGH.css", false}, // uppercase not allowed
		{"/static/css/styles.abcd123.css", false},  // wrong length
		{"/static/css/styles.abcd12345.css", false}, // wrong length
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHashedAsset(tt.path))
		})
	}
}

func TestStaticCacheHeaders(t *testing.T) {
	e := echo.New()
	e.Use(staticCacheHeaders())
	e.GET("/static/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	t.Run("hashed asset gets immutable cache", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/static/css/styles.abc12345.css", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	})

	t.Run("regular asset gets no cache header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/static/css/styles.css", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Cache-Control"))
	})
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.Use(i18nMiddleware())

	var locale string
	e.GET("/", func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	t.Run("English header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "en"), "expected locale to start with 'en', got %s", locale)
	})

	t.Run("German header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "de-DE")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "de"), "expected locale to start with 'de', got %s", locale)
	})
}

func TestCustomContext(t *testing.T) {
	e := echo.New()
	e.Use(customContext("/static/css/styles.12345678.css"))

	var (
		cssPath string
		isHtmx  bool
	)
	e.GET("/", func(c echo.Context) error {
		cc, ok := c.(*appcontext.Context)
		require.True(t, ok)
		isHtmx = cc.Htmx.IsHtmx
		cssPath, _ = c.Request().Context().Value(appcontext.CSSPath{}).(string)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "/static/css/styles.12345678.css", cssPath)
	assert.True(t, isHtmx)
}

func runAuthMiddleware(t *testing.T, sessMgr *session.Manager, users UserLoader, cookie *http.Cookie) (*models.User, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Use(withCustomContext(nil))
	e.Use(AuthMiddleware(sessMgr, users))

	var contextUser *models.User
	e.GET("/", func(c echo.Context) error {
		if cc, ok := c.(*appcontext.Context); ok {
			contextUser = cc.User
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return contextUser, rec
}

func TestAuthMiddleware_NoSession(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	user, _ := runAuthMiddleware(t, newTestSessions(t), repo, nil)

	assert.Nil(t, user)
}

func TestAuthMiddleware_WithSession(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	sessMgr := newTestSessions(t)

	cookie, err := sessMgr.Create(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)

	user, _ := runAuthMiddleware(t, sessMgr, repo, cookie)

	require.NotNil(t, user)
	assert.Equal(t, admin.ID, user.ID)
	assert.True(t, user.IsAdmin())
}

func TestAuthMiddleware_RoleComesFromDatabase(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	sessMgr := newTestSessions(t)

	cookie, err := sessMgr.Create(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)
	require.NoError(t, repo.SetUserRole(t.Context(), admin.ID, models.RoleUser))

	user, _ := runAuthMiddleware(t, sessMgr, repo, cookie)

	require.NotNil(t, user)
	assert.False(t, user.IsAdmin())
}

func TestAuthMiddleware_InvalidSession(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	user, _ := runAuthMiddleware(t, newTestSessions(t), repo, &http.Cookie{
		Name:  "_session",
		Value: "invalid-cookie-data",
	})

	assert.Nil(t, user)
}

func TestAuthMiddleware_UserNotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sessMgr := newTestSessions(t)

	// Create a valid session cookie for a non-existent user
	cookie, err := sessMgr.Create(99999, "ghost@example.com", models.RoleAdmin)
	require.NoError(t, err)

	user, rec := runAuthMiddleware(t, sessMgr, repo, cookie)

	assert.Nil(t, user)
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "stale session cookie should be cleared")
}

func TestAuthMiddleware_NotCustomContext(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	admin := testutil.NewTestUser(t, repo, "admin@example.com", models.RoleAdmin)
	sessMgr := newTestSessions(t)

	cookie, err := sessMgr.Create(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)

	e := echo.New()
	e.Use(AuthMiddleware(sessMgr, repo))

	var contextUser *models.User
	e.GET("/", func(c echo.Context) error {
		contextUser = appcontext.CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, contextUser)
	assert.Equal(t, admin.ID, contextUser.ID)
}

func TestRequireAuth_NotAuthenticated(t *testing.T) {
	e := echo.New()
	e.Use(withCustomContext(nil))
	e.Use(RequireAuth())

	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestRequireAuth_HtmxRequest(t *testing.T) {
	e := echo.New()
	e.Use(withCustomContext(nil))
	e.Use(RequireAuth())

	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("HX-Redirect"))
}

func TestRequireAuth_Authenticated(t *testing.T) {
	e := echo.New()
	e.Use(withCustomContext(&models.User{ID: 1, Email: "test@example.com", Role: models.RoleUser}))
	e.Use(RequireAuth())

	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, "protected content")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		code int
	}{
		{"admin", &models.User{ID: 1, Role: models.RoleAdmin}, http.StatusOK},
		{"user", &models.User{ID: 2, Role: models.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(withCustomContext(tt.user))
			e.Use(RequireAdmin())
			e.GET("/admin", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCsrfMiddleware(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			BaseURL: "http://localhost:8080",
		},
	}

	e := echo.New()
	e.Use(csrfMiddleware(cfg))
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.POST("/api/trpc/:procedure", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("form post without token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rpc post is skipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/trpc/user.create", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCsrfToContext(t *testing.T) {
	e := echo.New()
	e.Use(csrfToContext())

	var csrfToken string
	e.GET("/", func(c echo.Context) error {
		if token := c.Request().Context().Value(appcontext.CSRFToken{}); token != nil {
			csrfToken = token.(string)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// No token without the CSRF middleware
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, csrfToken)
}

func TestCsrfToContext_WithToken(t *testing.T) {
	e := echo.New()

	// Middleware that sets a fake CSRF token
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("csrf", "test-token")
			return next(c)
		}
	})
	e.Use(csrfToContext())

	var csrfToken string
	e.GET("/", func(c echo.Context) error {
		if token := c.Request().Context().Value(appcontext.CSRFToken{}); token != nil {
			csrfToken = token.(string)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-token", csrfToken)
}
