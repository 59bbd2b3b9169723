// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
)

// ReplacePasswordResetToken deletes all reset tokens of the user and stores a
// new one, so a user has at most one live token.
func (r *Repository) ReplacePasswordResetToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("deleting previous tokens: %w", err)
	}

	token := &models.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	if token.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return token, nil
}

// GetPasswordResetToken retrieves a reset token by hash. Expiry is not
// checked here.
func (r *Repository) GetPasswordResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT id, user_id, token_hash, expires_at, created_at FROM password_reset_tokens WHERE token_hash = ?`,
		tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// CountPasswordResetTokens returns the number of stored tokens for a user.
func (r *Repository) CountPasswordResetTokens(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM password_reset_tokens WHERE user_id = ?`, userID)
	return count, err
}

// ConsumePasswordResetToken deletes the token and sets the owner's password
// hash in one transaction. ErrNotFound means the token was already consumed.
func (r *Repository) ConsumePasswordResetToken(ctx context.Context, token *models.PasswordResetToken, passwordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = ?`, token.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	res, err = tx.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), token.UserID)
	if err != nil {
		return err
	}
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// DeletePasswordResetToken deletes a token by ID.
func (r *Repository) DeletePasswordResetToken(ctx context.Context, tokenID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = ?`, tokenID)
	return err
}

// DeleteExpiredPasswordResetTokens deletes expired tokens and returns how many were removed.
func (r *Repository) DeleteExpiredPasswordResetTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
