// Package product defines the product catalog.
package product

import (
	"time"

	"minipos/internal/core/id"
	"minipos/internal/core/types"
)

// Product is a sellable catalog item with an aggregate stock counter.
// Per-lot quantities live in the lot stock register; StockQuantity is
// the denormalized total kept in sync by sales and returns.
type Product struct {
	ID            id.ID       `json:"id" db:"id"`
	SKU           string      `json:"sku" db:"sku"`
	Name          string      `json:"name" db:"name"`
	UnitPrice     types.Money `json:"unit_price" db:"unit_price"`
	StockQuantity int         `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
