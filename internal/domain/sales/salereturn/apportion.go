package salereturn

import (
	"errors"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/sales/bill"
)

// ErrProductNotOnBill signals that the requested product has no line on
// the bill. The caller records the anomaly and skips the item; the
// overall operation is not failed.
var ErrProductNotOnBill = errors.New("product has no line on the bill")

// Allocation is the amount taken from one bill line by apportionment.
type Allocation struct {
	Line     bill.Line
	Quantity int
}

// Apportion distributes the requested return quantity of one product
// across the bill's lines for that product, greedy first-fit in stored
// line order. No line contributes more than its own purchased quantity
// and the allocations sum to exactly the requested quantity.
//
// Returns ErrProductNotOnBill when no line matches, and an over-return
// business error when requested exceeds the total purchased quantity.
func Apportion(lines []bill.Line, productID id.ID, requested int) ([]Allocation, error) {
	var matching []bill.Line
	totalPurchased := 0
	for _, l := range lines {
		if l.ProductID == productID {
			matching = append(matching, l)
			totalPurchased += l.Quantity
		}
	}

	if len(matching) == 0 {
		return nil, ErrProductNotOnBill
	}

	if requested > totalPurchased {
		return nil, apperror.NewOverReturn(matching[0].ProductName, requested, totalPurchased)
	}

	allocations := make([]Allocation, 0, len(matching))
	remaining := requested
	for _, l := range matching {
		if remaining == 0 {
			break
		}
		take := remaining
		if l.Quantity < take {
			take = l.Quantity
		}
		allocations = append(allocations, Allocation{Line: l, Quantity: take})
		remaining -= take
	}

	return allocations, nil
}
