// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
	ErrSelfAction         = errors.New("cannot perform this action on your own account")
)

const (
	// DefaultBcryptCost is used when the configured cost is out of range.
	DefaultBcryptCost = 12
	// DefaultResetTokenTTL is used when no token lifetime is configured.
	DefaultResetTokenTTL = time.Hour

	// ResetRequestedMessage is returned for every reset request, whether or
	// not the email belongs to an account.
	ResetRequestedMessage = "If an account exists with this email, a reset link has been generated."
	ResetCompletedMessage = "Password has been reset successfully"
	PasswordChangedMessage = "Password changed successfully"

	// resetMailTimeout bounds a single reset mail delivery.
	resetMailTimeout = 30 * time.Second
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

type Service struct {
	repo              *repository.Repository
	config            *config.AuthConfig
	mailer            Mailer
	passwordValidator *PasswordValidator
	now               func() time.Time

	// dummy is compared against on unknown emails so that a failed login
	// costs the same whether or not the account exists.
	dummyOnce sync.Once
	dummy     []byte

	mailWG sync.WaitGroup
}

func NewService(repo *repository.Repository, cfg *config.AuthConfig, mailer Mailer) *Service {
	return &Service{
		repo:              repo,
		config:            cfg,
		mailer:            mailer,
		passwordValidator: DefaultPasswordValidator(),
		now:               time.Now,
	}
}

// WithClock replaces the time source. Used by tests to move past token expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// ValidatePassword validates a password and returns the validation result
func (s *Service) ValidatePassword(password string, userAttributes ...string) ValidationResult {
	return s.passwordValidator.Validate(password, userAttributes...)
}

func (s *Service) bcryptCost() int {
	cost := s.config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return DefaultBcryptCost
	}
	return cost
}

func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.bcryptCost())
	})
	return s.dummy
}

func (s *Service) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL <= 0 {
		return DefaultResetTokenTTL
	}
	return s.config.ResetTokenTTL
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	// Validate email format
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if params.Role == "" {
		params.Role = models.RoleUser
	}
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	// Validate password
	validation := s.passwordValidator.Validate(params.Password, email, params.Name)
	if !validation.Valid {
		return nil, &PasswordValidationError{Errors: validation.Errors}
	}

	passwordHash, err := s.hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(params.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         params.Role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", email, "role", user.Role)

	return user, nil
}

// Login authenticates a user and returns the user if successful
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// CurrentAdmin is the public view of the signed-in account.
type CurrentAdmin struct {
	CreatedAt time.Time   `json:"createdAt"`
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

// GetCurrentAdmin returns the account with the given ID
func (s *Service) GetCurrentAdmin(ctx context.Context, userID int64) (*CurrentAdmin, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &CurrentAdmin{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

// ResetRequest is the outcome of a password reset request. Token is only
// set when the configuration exposes tokens for development.
type ResetRequest struct {
	Message string
	Token   string
}

// RequestPasswordReset issues a reset token for the account with the given
// email. The result is the same whether or not the account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	result := &ResetRequest{Message: ResetRequestedMessage}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("password_reset_requested", "email", email, "account", false)
			return result, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, hash, err := GenerateResetToken()
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.resetTokenTTL())
	if _, err := s.repo.ReplacePasswordResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	slog.Info("password_reset_requested", "email", user.Email, "account", true, "expires_at", expiresAt)

	// Delivery runs in the background. Neither its duration nor its outcome
	// may show in the response, or it would reveal that the account exists.
	if s.mailer != nil {
		s.mailWG.Add(1)
		go s.sendResetMail(context.WithoutCancel(ctx), user.ID, user.Email, plaintext)
	}

	if s.config.ExposeResetToken {
		result.Token = plaintext
	}

	return result, nil
}

func (s *Service) sendResetMail(ctx context.Context, userID int64, to, token string) {
	defer s.mailWG.Done()

	ctx, cancel := context.WithTimeout(ctx, resetMailTimeout)
	defer cancel()

	if err := s.mailer.SendPasswordReset(ctx, to, token); err != nil {
		slog.Error("password_reset_mail_failed", "user_id", userID, "error", err)
		return
	}
	slog.Info("password_reset_mail_sent", "user_id", userID)
}

// Wait blocks until all pending reset mails have been delivered or failed.
func (s *Service) Wait() {
	s.mailWG.Wait()
}

// lookupResetToken returns the stored token if it exists and has not expired.
func (s *Service) lookupResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	stored, err := s.repo.GetPasswordResetToken(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	if stored.Expired(s.now()) {
		return nil, ErrInvalidResetToken
	}

	return stored, nil
}

// VerifyResetToken checks that a reset token exists and has not expired
func (s *Service) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.lookupResetToken(ctx, token)
	return err
}

// ResetPassword sets a new password using a reset token. The token is
// consumed and cannot be used again.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	stored, err := s.lookupResetToken(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	validation := s.passwordValidator.Validate(newPassword, user.Email, user.Name)
	if !validation.Valid {
		return &PasswordValidationError{Errors: validation.Errors}
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.ConsumePasswordResetToken(ctx, stored, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password_reset_completed", "user_id", user.ID)

	return nil
}

// ChangePassword changes a user's password (when they know their current password)
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	// Verify current password
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	// Validate new password
	validation := s.passwordValidator.Validate(newPassword, user.Email, user.Name)
	if !validation.Valid {
		return &PasswordValidationError{Errors: validation.Errors}
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "user_id", userID)

	return nil
}
