package auth

import (
	"context"
)

// Repository provides user persistence.
type Repository interface {
	// GetByUsername returns a user or apperror.NewNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create inserts a new user.
	Create(ctx context.Context, u *User) error
}
