package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-do-not-use",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(42, "user@example.com", "student")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager(JWTConfig{Secret: "different-secret", Expiry: time.Hour})

	token, err := m.GenerateAccessToken(1, "user@example.com", "student")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s", Expiry: -time.Minute})

	token, err := m.GenerateAccessToken(1, "user@example.com", "student")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	m := newTestManager()

	refresh, err := m.GenerateRefreshToken(7, "user@example.com", "admin")
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(refresh)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m := newTestManager()

	access, err := m.GenerateAccessToken(7, "user@example.com", "admin")
	require.NoError(t, err)

	_, err = m.RefreshAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
