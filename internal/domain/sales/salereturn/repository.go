package salereturn

import (
	"context"
	"time"

	"minipos/internal/core/id"
	"minipos/internal/core/types"
)

// ListFilter narrows the return bill listing.
type ListFilter struct {
	// Query matches the return number or bill number, substring match.
	Query string
	// Date limits results to return bills created on that calendar day.
	Date *time.Time

	Limit  int
	Offset int
}

// Repository provides return bill persistence.
type Repository interface {
	// Create inserts the return bill header.
	Create(ctx context.Context, rb *ReturnBill) error

	// CreateLines inserts all return lines in one batch.
	CreateLines(ctx context.Context, lines []ReturnLine) error

	// UpdateTotal writes the final total amount onto the header.
	UpdateTotal(ctx context.Context, returnBillID id.ID, total types.Money) error

	// CountByBill returns how many return bills exist for the bill.
	// Called inside the processing transaction, after the bill row is locked.
	CountByBill(ctx context.Context, billID id.ID) (int, error)

	// ListByBill returns the bill's return bill headers, newest first.
	ListByBill(ctx context.Context, billID id.ID) ([]ReturnBill, error)

	// GetByID returns a header without lines, or apperror.NewNotFound.
	GetByID(ctx context.Context, returnBillID id.ID) (*ReturnBill, error)

	// GetLines returns the lines of a return bill.
	GetLines(ctx context.Context, returnBillID id.ID) ([]ReturnLine, error)

	// List returns headers matching the filter, newest first, plus the
	// total count for pagination.
	List(ctx context.Context, filter ListFilter) ([]ReturnBill, int, error)
}
