// Package salereturn implements the cashier return workflow:
// eligibility checking, quantity apportionment across bill lines,
// return bill assembly and stock reversal, all in one transaction.
package salereturn

import (
	"strings"
	"time"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/core/types"
)

// ReturnWindow is how long after the sale a return may be initiated.
// The boundary is inclusive: a bill exactly 24 hours old is still eligible.
const ReturnWindow = 24 * time.Hour

// MaxReasonLength bounds the free-text reason field.
const MaxReasonLength = 255

// ReturnBill is the return document created for a bill.
// At most one ReturnBill may exist per bill.
type ReturnBill struct {
	ID                  id.ID       `json:"id" db:"id"`
	Number              string      `json:"number" db:"number"`
	BillID              id.ID       `json:"bill_id" db:"bill_id"`
	CustomerID          *id.ID      `json:"customer_id,omitempty" db:"customer_id"`
	CashierID           id.ID       `json:"cashier_id" db:"cashier_id"`
	TotalAmountReturned types.Money `json:"total_amount_returned" db:"total_amount_returned"`
	Reason              string      `json:"reason,omitempty" db:"reason"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`

	// CashierName is joined into listings for display; it is not a
	// column of the return bill itself.
	CashierName string `json:"cashier_name,omitempty" db:"-"`

	Lines []ReturnLine `json:"lines,omitempty" db:"-"`
}

// ReturnLine is one returned position. Product name and unit price are
// snapshots taken from the bill line at processing time.
type ReturnLine struct {
	ID           id.ID       `json:"id" db:"id"`
	ReturnBillID id.ID       `json:"return_bill_id" db:"return_bill_id"`
	ProductID    id.ID       `json:"product_id" db:"product_id"`
	LotID        *id.ID      `json:"lot_id,omitempty" db:"lot_id"`
	ProductName  string      `json:"product_name" db:"product_name"`
	Quantity     int         `json:"quantity" db:"quantity"`
	UnitPrice    types.Money `json:"unit_price" db:"unit_price"`
	Subtotal     types.Money `json:"subtotal" db:"subtotal"`
}

// ReturnItem is one requested {product, quantity} pair.
type ReturnItem struct {
	ProductID id.ID `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ProcessRequest is the input of the return workflow.
type ProcessRequest struct {
	BillID id.ID        `json:"bill_id"`
	Items  []ReturnItem `json:"items"`
	Reason string       `json:"reason,omitempty"`
}

// Validate checks the request shape. Runs before any transaction is opened.
func (r *ProcessRequest) Validate() error {
	if id.IsNil(r.BillID) {
		return apperror.NewValidation("bill_id is required")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required")
	}
	for i, it := range r.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product_id is required").
				WithDetail("item", i)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("quantity must be a positive integer").
				WithDetail("item", i)
		}
	}
	if len(strings.TrimSpace(r.Reason)) != len(r.Reason) {
		r.Reason = strings.TrimSpace(r.Reason)
	}
	if len(r.Reason) > MaxReasonLength {
		return apperror.NewValidation("reason is too long").
			WithDetail("max_length", MaxReasonLength)
	}
	return nil
}

// ReturnStatus describes why a bill can or cannot be returned.
type ReturnStatus struct {
	HasBeenReturned bool `json:"has_been_returned"`
	IsExpired       bool `json:"is_expired"`
}

// CanBeReturned reports overall eligibility.
func (s ReturnStatus) CanBeReturned() bool {
	return !s.HasBeenReturned && !s.IsExpired
}

// EligibilityOf computes the return status for a bill created at
// billCreatedAt with existingReturns prior return bills, as of now.
func EligibilityOf(billCreatedAt time.Time, existingReturns int, now time.Time) ReturnStatus {
	return ReturnStatus{
		HasBeenReturned: existingReturns > 0,
		IsExpired:       now.Sub(billCreatedAt) > ReturnWindow,
	}
}
