package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"minipos/internal/core/apperror"
	"minipos/pkg/logger"
)

// Service handles cashier login.
type Service struct {
	users Repository
	jwt   *JWTService
}

// NewService creates the auth service.
func NewService(users Repository, jwt *JWTService) *Service {
	return &Service{users: users, jwt: jwt}
}

// Login verifies credentials and returns a signed token with the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	if username == "" || password == "" {
		return "", nil, apperror.NewValidation("username and password are required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same message as a wrong password so usernames cannot be probed.
			return "", nil, apperror.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.jwt.GenerateToken(u)
	if err != nil {
		return "", nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "cashier logged in", "username", u.Username)
	return token, u, nil
}

// HashPassword creates a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
