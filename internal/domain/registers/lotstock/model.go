// Package lotstock tracks per-lot inventory quantities.
package lotstock

import (
	"time"

	"minipos/internal/core/id"
)

// Lot inventory status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

// LotStock is the quantity of a product remaining in one delivery lot.
// ExpiresAt is nil for lots without an expiry date.
type LotStock struct {
	ID              id.ID      `json:"id" db:"id"`
	ProductID       id.ID      `json:"product_id" db:"product_id"`
	LotNumber       string     `json:"lot_number" db:"lot_number"`
	CurrentQuantity int        `json:"current_quantity" db:"current_quantity"`
	InventoryStatus string     `json:"inventory_status" db:"inventory_status"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
