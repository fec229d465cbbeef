package jwt

import (
	"testing"
	"time"

	"clinic-appointment-service/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := testService()
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "doc@clinic.test", 2)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "doc@clinic.test", claims.Email)
	require.Equal(t, 2, claims.RoleID)
	require.Equal(t, AccessToken, claims.TokenType)
	require.Equal(t, tokenID, claims.TokenID)
}

func TestRefreshTokenType(t *testing.T) {
	svc := testService()

	token, _, err := svc.GenerateRefreshToken(uuid.New(), "pat@clinic.test", 3)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := testService().GenerateAccessToken(uuid.New(), "doc@clinic.test", 2)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:       "different-secret",
		AccessExpiry: 15 * time.Minute,
	})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := testService().ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: -time.Minute,
	})
	token, _, err := svc.GenerateAccessToken(uuid.New(), "doc@clinic.test", 2)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
