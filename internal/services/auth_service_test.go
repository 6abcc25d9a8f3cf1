package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kabeba2027/donations-backend/internal/config"
	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/utils"
)

func authTestConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("campaign-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-jwt-secret", ExpiresIn: 3600},
		Admin: config.AdminConfig{
			Email:        "admin@kabeba2027.ke",
			PasswordHash: string(hash),
		},
	}
}

func TestLoginSuccess(t *testing.T) {
	cfg := authTestConfig(t)
	svc := NewAuthService(cfg)

	token, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@kabeba2027.ke",
		Password: "campaign-secret",
	})
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "admin@kabeba2027.ke", claims["email"])
	assert.Equal(t, "admin", claims["role"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(authTestConfig(t))

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@kabeba2027.ke",
		Password: "wrong",
	})
	assert.Error(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(authTestConfig(t))

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "someone@example.com",
		Password: "campaign-secret",
	})
	assert.Error(t, err)
}

func TestLoginUnconfiguredAdmin(t *testing.T) {
	svc := NewAuthService(&config.Config{})

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@kabeba2027.ke",
		Password: "campaign-secret",
	})
	assert.Error(t, err)
}
