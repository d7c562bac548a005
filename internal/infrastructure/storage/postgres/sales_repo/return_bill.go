package sales_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/core/types"
	"minipos/internal/domain/sales/salereturn"
	"minipos/internal/infrastructure/storage/postgres"
)

const (
	returnBillTable = "doc_return_bills"
	returnLineTable = "doc_return_bill_lines"
	userTable       = "sys_users"
)

const uniqueViolationCode = "23505"

// ReturnBillRepo implements salereturn.Repository.
type ReturnBillRepo struct {
	txm         *postgres.TxManager
	columns     []string
	lineColumns []string
	builder     squirrel.StatementBuilderType
}

var _ salereturn.Repository = (*ReturnBillRepo)(nil)

// NewReturnBillRepo creates a return bill repository.
func NewReturnBillRepo(txm *postgres.TxManager) *ReturnBillRepo {
	return &ReturnBillRepo{
		txm:         txm,
		columns:     postgres.ExtractDBColumns[salereturn.ReturnBill](),
		lineColumns: postgres.ExtractDBColumns[salereturn.ReturnLine](),
		builder:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the return bill header. A unique index on the number
// column backs up the sequence generator; a violation surfaces as a
// duplicate error instead of a silent overwrite.
func (r *ReturnBillRepo) Create(ctx context.Context, rb *salereturn.ReturnBill) error {
	sql, args, err := r.builder.
		Insert(returnBillTable).
		SetMap(postgres.StructToMap(rb)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperror.NewDuplicate("return bill", "number", rb.Number)
		}
		return fmt.Errorf("create return bill: %w", err)
	}
	return nil
}

// CreateLines inserts all return lines in one statement.
func (r *ReturnBillRepo) CreateLines(ctx context.Context, lines []salereturn.ReturnLine) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.builder.
		Insert(returnLineTable).
		Columns(r.lineColumns...)
	for _, l := range lines {
		m := postgres.StructToMap(l)
		vals := make([]any, len(r.lineColumns))
		for i, col := range r.lineColumns {
			vals[i] = m[col]
		}
		q = q.Values(vals...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create return lines: %w", err)
	}
	return nil
}

// UpdateTotal writes the final total amount onto the header.
func (r *ReturnBillRepo) UpdateTotal(ctx context.Context, returnBillID id.ID, total types.Money) error {
	sql, args, err := r.builder.
		Update(returnBillTable).
		Set("total_amount_returned", total).
		Where(squirrel.Eq{"id": returnBillID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("return bill", returnBillID)
	}
	return nil
}

// CountByBill returns how many return bills exist for the bill.
func (r *ReturnBillRepo) CountByBill(ctx context.Context, billID id.ID) (int, error) {
	var count int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM "+returnBillTable+" WHERE bill_id = $1",
		billID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count returns: %w", err)
	}
	return count, nil
}

// ListByBill returns the bill's return bill headers, newest first.
func (r *ReturnBillRepo) ListByBill(ctx context.Context, billID id.ID) ([]salereturn.ReturnBill, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(returnBillTable).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var bills []salereturn.ReturnBill
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &bills, sql, args...); err != nil {
		return nil, fmt.Errorf("list returns for bill: %w", err)
	}
	return bills, nil
}

// GetByID retrieves a return bill header by ID.
func (r *ReturnBillRepo) GetByID(ctx context.Context, returnBillID id.ID) (*salereturn.ReturnBill, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(returnBillTable).
		Where(squirrel.Eq{"id": returnBillID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rb salereturn.ReturnBill
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rb, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return bill", returnBillID)
		}
		return nil, fmt.Errorf("get return bill: %w", err)
	}
	return &rb, nil
}

// GetLines returns the lines of a return bill.
func (r *ReturnBillRepo) GetLines(ctx context.Context, returnBillID id.ID) ([]salereturn.ReturnLine, error) {
	sql, args, err := r.builder.
		Select(r.lineColumns...).
		From(returnLineTable).
		Where(squirrel.Eq{"return_bill_id": returnBillID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []salereturn.ReturnLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get return lines: %w", err)
	}
	return lines, nil
}

// listRow carries the cashier name joined alongside the header columns.
type listRow struct {
	salereturn.ReturnBill
	JoinedCashierName *string `db:"cashier_name"`
}

func (row listRow) header() salereturn.ReturnBill {
	rb := row.ReturnBill
	if row.JoinedCashierName != nil {
		rb.CashierName = *row.JoinedCashierName
	}
	return rb
}

// List returns headers matching the filter, newest first, with the
// cashier name joined in for display.
func (r *ReturnBillRepo) List(ctx context.Context, filter salereturn.ListFilter) ([]salereturn.ReturnBill, int, error) {
	cols := make([]string, len(r.columns), len(r.columns)+1)
	for i, c := range r.columns {
		cols[i] = "rb." + c
	}
	cols = append(cols, "u.name AS cashier_name")

	base := r.builder.
		Select().
		From(returnBillTable + " rb").
		LeftJoin(billTable + " b ON b.id = rb.bill_id").
		LeftJoin(userTable + " u ON u.id = rb.cashier_id")

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		base = base.Where(squirrel.Or{
			squirrel.ILike{"rb.number": pattern},
			squirrel.ILike{"b.number": pattern},
		})
	}
	if filter.Date != nil {
		base = base.Where("rb.created_at::date = ?::date", *filter.Date)
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count return bills: %w", err)
	}

	listSQL, listArgs, err := base.
		Columns(cols...).
		OrderBy("rb.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var rows []listRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, listSQL, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list return bills: %w", err)
	}

	bills := make([]salereturn.ReturnBill, len(rows))
	for i, row := range rows {
		bills[i] = row.header()
	}
	return bills, total, nil
}
