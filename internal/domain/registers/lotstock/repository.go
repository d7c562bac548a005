package lotstock

import (
	"context"

	"minipos/internal/core/id"
)

// Repository provides lot stock persistence.
type Repository interface {
	// Get returns a lot or apperror.NewNotFound.
	Get(ctx context.Context, lotID id.ID) (*LotStock, error)

	// Restock adds quantity back to the lot and resets its status to
	// active. Returns the number of rows affected; zero means the lot
	// row does not exist and the caller decides how to degrade.
	Restock(ctx context.Context, lotID id.ID, quantity int) (int64, error)

	// Create inserts a new lot.
	Create(ctx context.Context, l *LotStock) error
}
