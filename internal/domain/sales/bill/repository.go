package bill

import (
	"context"

	"minipos/internal/core/id"
)

// Repository provides bill read access for return processing. The
// return workflow never writes to bills or bill lines.
type Repository interface {
	// GetByID returns a bill without lines, or apperror.NewNotFound.
	GetByID(ctx context.Context, billID id.ID) (*Bill, error)

	// GetForUpdate returns a bill without lines, locking its row
	// with SELECT ... FOR UPDATE. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, billID id.ID) (*Bill, error)

	// FindByNumberOrPhone matches bills by exact bill number or by the
	// customer's phone number, newest first.
	FindByNumberOrPhone(ctx context.Context, query string, limit int) ([]Bill, error)

	// GetLines returns all lines of a bill ordered by line_no ascending.
	GetLines(ctx context.Context, billID id.ID) ([]Line, error)
}
