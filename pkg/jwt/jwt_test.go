package jwt

import (
	"testing"
	"time"

	"dmbox/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)

	user := entity.User{
		Id:       "user-1",
		Email:    "alice@example.com",
		Username: "alice",
	}

	token, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserId)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateAccessTokenRejections(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	user := entity.User{Id: "user-1"}

	_, err := manager.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with a different key.
	other := NewManager("other-secret", 15*time.Minute, 24*time.Hour)
	token, err := other.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Already expired at issue time.
	expired := NewManager("test-secret", -time.Minute, 24*time.Hour)
	token, err = expired.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestGenerateRefreshTokenUnique(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)

	first, err := manager.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := manager.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
