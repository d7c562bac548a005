package product

import (
	"context"

	"minipos/internal/core/id"
)

// Repository provides product persistence.
type Repository interface {
	// GetByID returns a product or apperror.NewNotFound.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// Exists reports whether the product is present in the catalog.
	Exists(ctx context.Context, productID id.ID) (bool, error)

	// IncrementStock adds delta to the aggregate stock counter.
	// Delta may be negative for issues.
	IncrementStock(ctx context.Context, productID id.ID, delta int) error

	// List returns products ordered by name.
	List(ctx context.Context, limit, offset int) ([]Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, p *Product) error
}
