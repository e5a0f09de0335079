package services

import (
	"context"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/auth"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
)

// AuthService issues session tokens for directory users
type AuthService struct {
	directory ports.Directory
}

// NewAuthService creates a new AuthService
func NewAuthService(directory ports.Directory) *AuthService {
	return &AuthService{directory: directory}
}

// Login verifies credentials and returns a signed session token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return "", nil, appErrors.NewUnauthorizedError("invalid email or password")
	}

	if !user.IsActive {
		return "", nil, appErrors.NewUnauthorizedError("account is deactivated")
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", nil, appErrors.NewUnauthorizedError("invalid email or password")
	}

	token, err := auth.GenerateToken(auth.UserSession{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		RoleID: user.RoleID,
	})
	if err != nil {
		return "", nil, appErrors.NewInternalError("failed to generate token", err)
	}

	return token, user, nil
}
