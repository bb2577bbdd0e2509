package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"choiros-backend/internal/auth"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthService struct {
	Users UserFinder
	JWT   *auth.JWTManager
}

func NewAuthService(users UserFinder, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{Users: users, JWT: jwtManager}
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Printf("[Auth] Failed login for user %d", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.JWT.GenerateToken(user.ID, user.Email, user.IsSuperadmin)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
