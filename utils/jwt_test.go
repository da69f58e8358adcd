package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseTokens(t *testing.T) {
	m := NewJWTManager("test-secret")
	userID := uuid.New()

	access, refresh, err := m.GenerateTokens(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := m.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	claims, err = m.ParseToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret")
	other := NewJWTManager("different-secret")

	access, _, err := m.GenerateTokens(uuid.New())
	require.NoError(t, err)

	_, err = other.ParseToken(access)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	m := NewJWTManager("test-secret")

	_, err := m.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestRefreshTokens(t *testing.T) {
	m := NewJWTManager("test-secret")
	userID := uuid.New()

	_, refresh, err := m.GenerateTokens(userID)
	require.NoError(t, err)

	access2, refresh2, err := m.RefreshTokens(refresh)
	require.NoError(t, err)

	claims, err := m.ParseToken(access2)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	claims, err = m.ParseToken(refresh2)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestRefreshTokensInvalid(t *testing.T) {
	m := NewJWTManager("test-secret")

	_, _, err := m.RefreshTokens("bogus")
	assert.Error(t, err)
}
