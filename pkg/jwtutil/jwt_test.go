package jwtutil

import (
	"testing"

	"licity-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := GenerateToken("user@licity.dev", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@licity.dev", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestValidateToken_WrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-a", ExpirationHours: 1})
	token, err := GenerateToken("user@licity.dev", 1)
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-b", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: -1})
	token, err := GenerateToken("user@licity.dev", 1)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestUninitialized(t *testing.T) {
	Initialize(nil)
	defer Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	_, err := GenerateToken("user@licity.dev", 1)
	assert.Error(t, err)
	_, err = ValidateToken("whatever")
	assert.Error(t, err)
}
