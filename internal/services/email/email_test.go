// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/config"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Test App",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := NewService(validSMTPConfig(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", svc.baseURL)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := NewService(cfg, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := NewService(cfg, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestResetURL(t *testing.T) {
	assert.Equal(t, "https://example.com/auth/reset-password?token=abc123",
		ResetURL("https://example.com/", "abc123"))
	assert.Equal(t, "http://localhost:8080/auth/reset-password?token=a%2Bb",
		ResetURL("http://localhost:8080", "a+b"))
}

func TestNewResetMessage(t *testing.T) {
	require.NoError(t, i18n.Init())
	svc, err := NewService(validSMTPConfig(), "https://example.com")
	require.NoError(t, err)

	ctx := i18n.WithLocale(context.Background(), language.English)
	msg, err := svc.newResetMessage(ctx, "admin@example.com", "abc123")

	require.NoError(t, err)
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "admin@example.com")
	from := msg.GetFromString()
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "Test App")

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.NotEqual(t, "email_password_reset_subject", subject[0])
}

func TestNewResetMessage_InvalidRecipient(t *testing.T) {
	require.NoError(t, i18n.Init())
	svc, err := NewService(validSMTPConfig(), "https://example.com")
	require.NoError(t, err)

	_, err = svc.newResetMessage(context.Background(), "not an address", "abc123")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting to address")
}

func TestClientOptions(t *testing.T) {
	cfg := validSMTPConfig()
	svc, err := NewService(cfg, "https://example.com")
	require.NoError(t, err)

	// port, TLS policy, auth type, username, password
	assert.Len(t, svc.clientOptions(), 5)

	cfg.Port = 465
	// implicit TLS adds WithSSL
	assert.Len(t, svc.clientOptions(), 6)

	cfg.TLS = false
	cfg.Username = ""
	assert.Len(t, svc.clientOptions(), 2)
}

func TestLogMailer(t *testing.T) {
	m := LogMailer{BaseURL: "http://localhost:8080"}

	assert.NoError(t, m.SendPasswordReset(context.Background(), "admin@example.com", "abc123"))
}
