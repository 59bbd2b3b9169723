// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"encoding/hex"
	"testing"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	plaintext, hash, err := auth.GenerateResetToken()

	require.NoError(t, err)
	assert.Len(t, plaintext, 64)
	assert.Len(t, hash, 64)
	assert.Equal(t, auth.HashToken(plaintext), hash)

	_, err = hex.DecodeString(plaintext)
	assert.NoError(t, err)
}

func TestGenerateResetToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		plaintext, _, err := auth.GenerateResetToken()
		require.NoError(t, err)
		assert.False(t, seen[plaintext])
		seen[plaintext] = true
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, auth.HashToken("abc"), auth.HashToken("abc"))
	assert.NotEqual(t, auth.HashToken("abc"), auth.HashToken("abd"))
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", auth.HashToken("abc"))
}
