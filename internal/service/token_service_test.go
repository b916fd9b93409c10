package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "silverhand")
	merchantID := uuid.New()

	token, expiresAt, err := svc.Generate(merchantID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, merchantID, claims.MerchantID)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "silverhand")
	other := NewJWTTokenService("secret-b", time.Hour, "silverhand")

	token, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, "silverhand")

	token, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "silverhand")

	for _, token := range []string{"", "not.a.token", "a.b"} {
		_, err := svc.Validate(token)
		assert.Error(t, err, "token %q", token)
	}
}
