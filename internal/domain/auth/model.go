// Package auth provides cashier authentication.
package auth

import (
	"time"

	"minipos/internal/core/id"
)

// User roles.
const (
	RoleCashier = "cashier"
	RoleAdmin   = "admin"
)

// User is a system account able to process returns.
type User struct {
	ID           id.ID     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
