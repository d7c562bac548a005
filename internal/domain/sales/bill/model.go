// Package bill defines the sales bill read side used by return processing.
// Bills are created at the counter by the sales flow; this package never
// mutates them.
package bill

import (
	"time"

	"minipos/internal/core/id"
	"minipos/internal/core/types"
)

// Bill is a finalized sale document.
type Bill struct {
	ID          id.ID       `json:"id" db:"id"`
	Number      string      `json:"number" db:"number"`
	CustomerID  *id.ID      `json:"customer_id,omitempty" db:"customer_id"`
	TotalAmount types.Money `json:"total_amount" db:"total_amount"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	Lines []Line `json:"lines,omitempty" db:"-"`
}

// Line is one sold position on a bill. A product sold from several
// lots appears as several lines, one per lot, in counter entry order.
type Line struct {
	ID          id.ID       `json:"id" db:"id"`
	BillID      id.ID       `json:"bill_id" db:"bill_id"`
	LineNo      int         `json:"line_no" db:"line_no"`
	ProductID   id.ID       `json:"product_id" db:"product_id"`
	LotID       *id.ID      `json:"lot_id,omitempty" db:"lot_id"`
	ProductName string      `json:"product_name" db:"product_name"`
	Quantity    int         `json:"quantity" db:"quantity"`
	UnitPrice   types.Money `json:"unit_price" db:"unit_price"`
}
