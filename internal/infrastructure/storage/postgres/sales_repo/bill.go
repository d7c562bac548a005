// Package sales_repo contains PostgreSQL repositories for sales documents.
package sales_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/sales/bill"
	"minipos/internal/infrastructure/storage/postgres"
)

const (
	billTable     = "doc_bills"
	billLineTable = "doc_bill_lines"
	customerTable = "cat_customers"
)

// BillRepo implements bill.Repository.
type BillRepo struct {
	txm         *postgres.TxManager
	columns     []string
	lineColumns []string
	builder     squirrel.StatementBuilderType
}

var _ bill.Repository = (*BillRepo)(nil)

// NewBillRepo creates a bill repository.
func NewBillRepo(txm *postgres.TxManager) *BillRepo {
	return &BillRepo{
		txm:         txm,
		columns:     postgres.ExtractDBColumns[bill.Bill](),
		lineColumns: postgres.ExtractDBColumns[bill.Line](),
		builder:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a bill header by ID.
func (r *BillRepo) GetByID(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	return r.get(ctx, billID, false)
}

// GetForUpdate retrieves a bill header and locks its row for the
// duration of the current transaction. This serializes concurrent
// return attempts for the same bill.
func (r *BillRepo) GetForUpdate(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	return r.get(ctx, billID, true)
}

func (r *BillRepo) get(ctx context.Context, billID id.ID, forUpdate bool) (*bill.Bill, error) {
	q := r.builder.
		Select(r.columns...).
		From(billTable).
		Where(squirrel.Eq{"id": billID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b bill.Bill
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bill", billID)
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return &b, nil
}

// FindByNumberOrPhone matches bills by exact number or by the
// customer's phone number, newest first.
func (r *BillRepo) FindByNumberOrPhone(ctx context.Context, query string, limit int) ([]bill.Bill, error) {
	cols := make([]string, len(r.columns))
	for i, c := range r.columns {
		cols[i] = "b." + c
	}

	sql, args, err := r.builder.
		Select(cols...).
		From(billTable+" b").
		LeftJoin(customerTable+" c ON c.id = b.customer_id").
		Where(squirrel.Or{
			squirrel.Eq{"b.number": query},
			squirrel.Eq{"c.phone": query},
		}).
		OrderBy("b.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var bills []bill.Bill
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &bills, sql, args...); err != nil {
		return nil, fmt.Errorf("find bills: %w", err)
	}
	return bills, nil
}

// GetLines returns the bill's lines in stored line order. Apportionment
// depends on this ordering, so it is fixed here and nowhere else.
func (r *BillRepo) GetLines(ctx context.Context, billID id.ID) ([]bill.Line, error) {
	sql, args, err := r.builder.
		Select(r.lineColumns...).
		From(billLineTable).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []bill.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get bill lines: %w", err)
	}
	return lines, nil
}
