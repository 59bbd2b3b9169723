// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/api"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/assets"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/database"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/handlers"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/i18n"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/rpc"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/email"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// tokenCleanupInterval is how often expired reset tokens are purged.
const tokenCleanupInterval = time.Hour

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	e, authSvc, err := newApp(cfg, db, prometheus.DefaultRegisterer, promhttp.Handler())
	if err != nil {
		return err
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go purgeExpiredTokens(cleanupCtx, repository.New(db), tokenCleanupInterval)

	return startWithGracefulShutdown(e, cfg, authSvc.Wait)
}

// New builds the Echo instance with all services, middleware and routes.
// metricsHandler may be nil to leave /metrics unrouted.
func New(cfg *config.Config, db *sqlx.DB, reg prometheus.Registerer, metricsHandler http.Handler) (*echo.Echo, error) {
	e, _, err := newApp(cfg, db, reg, metricsHandler)
	return e, err
}

func newApp(cfg *config.Config, db *sqlx.DB, reg prometheus.Registerer, metricsHandler http.Handler) (*echo.Echo, *auth.Service, error) {
	if err := i18n.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to init i18n: %w", err)
	}

	repo := repository.New(db)

	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, nil, err
	}
	authSvc := auth.NewService(repo, &cfg.Auth, mailer)

	sessions, err := session.NewManager(&cfg.Session, cfg.IsSecure())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	router := rpc.NewRouter(rpc.NewMetrics(reg))
	api.Register(router, repo, authSvc)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg, sessions, repo)
	setupRoutes(e, repo, authSvc, sessions, router, metricsHandler)

	return e, authSvc, nil
}

// newMailer sends reset mails over SMTP when configured and logs the links otherwise.
func newMailer(cfg *config.Config) (auth.Mailer, error) {
	if !cfg.SMTP.Enabled() {
		slog.Warn("SMTP not configured, password reset links will be logged")
		return email.LogMailer{BaseURL: cfg.Server.BaseURL}, nil
	}
	svc, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}
	return svc, nil
}

func setupRoutes(
	e *echo.Echo,
	repo *repository.Repository,
	authSvc *auth.Service,
	sessions *session.Manager,
	router *rpc.Router,
	metricsHandler http.Handler,
) {
	h := handlers.New(repo, router)
	ah := handlers.NewAuth(authSvc, sessions)

	// Static files
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static", assets.FileServer())))

	// Machine endpoints
	e.GET("/health", h.Health)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}
	e.Any("/api/trpc/:procedure", router.Handler())

	// Public auth pages
	a := e.Group("/auth")
	a.GET("/login", ah.LoginPage)
	a.POST("/login", ah.Login)
	a.POST("/logout", ah.Logout)
	a.GET("/forgot-password", ah.ForgotPasswordPage)
	a.POST("/forgot-password", ah.ForgotPassword)
	a.GET("/reset-password", ah.ResetPasswordPage)
	a.POST("/reset-password", ah.ResetPassword)

	// Pages for any signed-in account
	app := e.Group("", RequireAuth())
	app.GET("/", h.Dashboard)
	app.GET("/account/password", ah.ChangePasswordPage)
	app.POST("/account/password", ah.ChangePassword)

	// Admin pages
	admin := app.Group("", RequireAdmin())
	admin.GET("/users", h.Users)
}

// waitDrained runs fns and reports whether they all returned before ctx ended.
func waitDrained(ctx context.Context, fns ...func()) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, fn := range fns {
			fn()
		}
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// purgeExpiredTokens deletes expired password reset tokens until ctx is done.
func purgeExpiredTokens(ctx context.Context, repo *repository.Repository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpiredPasswordResetTokens(ctx)
			if err != nil {
				slog.Error("failed to purge expired reset tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired reset tokens", "count", n)
			}
		}
	}
}

// startWithGracefulShutdown serves until SIGINT or SIGTERM. The drain
// functions run after the server has stopped, bounded by the shutdown timeout.
func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config, drain ...func()) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if !waitDrained(shutdownCtx, drain...) {
		slog.Warn("background work still pending at shutdown")
	}

	slog.Info("server stopped")
	return nil
}
