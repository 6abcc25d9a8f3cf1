package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/kabeba2027/donations-backend/internal/config"
	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/utils"
)

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl authenticates the campaign's single configured admin
// account. Credentials come from the environment; there is no user
// table to manage for a one-operator site.
type AuthServiceImpl struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(cfg *config.Config) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg}
}

// Login verifies the admin credentials against the configured bcrypt
// hash and returns a signed JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.PasswordHash == "" {
		return "", errors.New("admin account is not configured")
	}
	if req.Email != s.cfg.Admin.Email {
		return "", errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(req.Password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token, err := utils.GenerateJWT(req.Email, "admin", s.cfg)
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return token, nil
}
