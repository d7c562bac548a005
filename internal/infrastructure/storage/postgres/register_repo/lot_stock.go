// Package register_repo contains PostgreSQL repositories for
// accumulation registers.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/registers/lotstock"
	"minipos/internal/infrastructure/storage/postgres"
)

const lotStockTable = "reg_lot_stock"

// LotStockRepo implements lotstock.Repository.
type LotStockRepo struct {
	txm     *postgres.TxManager
	columns []string
	builder squirrel.StatementBuilderType
}

var _ lotstock.Repository = (*LotStockRepo)(nil)

// NewLotStockRepo creates a lot stock repository.
func NewLotStockRepo(txm *postgres.TxManager) *LotStockRepo {
	return &LotStockRepo{
		txm:     txm,
		columns: postgres.ExtractDBColumns[lotstock.LotStock](),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get retrieves a lot by ID.
func (r *LotStockRepo) Get(ctx context.Context, lotID id.ID) (*lotstock.LotStock, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(lotStockTable).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l lotstock.LotStock
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &l, nil
}

// Restock adds quantity back to the lot and reactivates it. The status
// reset is part of the same UPDATE, so a missing lot row is never
// touched; callers see zero rows affected and decide how to degrade.
func (r *LotStockRepo) Restock(ctx context.Context, lotID id.ID, quantity int) (int64, error) {
	sql, args, err := r.builder.
		Update(lotStockTable).
		Set("current_quantity", squirrel.Expr("current_quantity + ?", quantity)).
		Set("inventory_status", lotstock.StatusActive).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("restock lot: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Create inserts a new lot.
func (r *LotStockRepo) Create(ctx context.Context, l *lotstock.LotStock) error {
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	sql, args, err := r.builder.
		Insert(lotStockTable).
		SetMap(postgres.StructToMap(l)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}
