package service

import (
	"testing"
	"time"

	"ridewallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "ridewallet")
	ownerID := uuid.New()

	token, expiresAt, err := svc.Generate(ownerID, domain.OwnerTypeDriver)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, claims.OwnerID)
	assert.Equal(t, domain.OwnerTypeDriver, claims.OwnerType)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "ridewallet")
	other := NewJWTTokenService("secret-b", time.Hour, "ridewallet")

	token, _, err := svc.Generate(uuid.New(), domain.OwnerTypeCustomer)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsExpired(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "ridewallet")

	token, _, err := svc.Generate(uuid.New(), domain.OwnerTypeCustomer)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "ridewallet")

	_, err := svc.Validate("not.a.jwt")
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsUnknownRole(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "ridewallet")

	token, _, err := svc.Generate(uuid.New(), domain.OwnerType("admin"))
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}
