package customer

import (
	"context"

	"minipos/internal/core/id"
)

// Repository provides customer persistence.
type Repository interface {
	// GetByID returns a customer or apperror.NewNotFound.
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)

	// GetByPhone returns the customer with the exact phone number,
	// or apperror.NewNotFound.
	GetByPhone(ctx context.Context, phone string) (*Customer, error)

	// Create inserts a new customer.
	Create(ctx context.Context, c *Customer) error
}
