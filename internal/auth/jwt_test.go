package auth

import (
	"testing"
	"time"

	"hvac-backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(secret string) *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Audience = "authenticated"
	return NewJWTManager(cfg)
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager("test-secret")
	token, err := m.GenerateToken("5b1e5f0a-7d0c-4f7e-9a65-1c2d3e4f5a6b", "tech@example.be", time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "5b1e5f0a-7d0c-4f7e-9a65-1c2d3e4f5a6b", claims.Subject)
	assert.Equal(t, "tech@example.be", claims.Email)
}

func TestValidate_Expired(t *testing.T) {
	m := newManager("test-secret")
	token, err := m.GenerateToken("u1", "a@b.c", -time.Minute)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := newManager("one").GenerateToken("u1", "a@b.c", time.Hour)
	require.NoError(t, err)

	_, err = newManager("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidate_WrongAudience(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "s"
	cfg.JWT.Audience = "service_role"
	token, err := NewJWTManager(cfg).GenerateToken("u1", "a@b.c", time.Hour)
	require.NoError(t, err)

	_, err = newManager("s").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(), "aud": "authenticated"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newManager("s").ValidateToken(token)
	assert.Error(t, err)
}
