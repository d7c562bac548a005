// Package customer defines the customer catalog.
package customer

import (
	"time"

	"minipos/internal/core/id"
)

// Customer is a buyer identified at the counter by phone number.
type Customer struct {
	ID        id.ID     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
