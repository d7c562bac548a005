// Package catalog_repo contains PostgreSQL repositories for catalogs.
package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/catalogs/product"
	"minipos/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	columns []string
	builder squirrel.StatementBuilderType
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		columns: postgres.ExtractDBColumns[product.Product](),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Exists reports whether the product is present in the catalog.
func (r *ProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	var exists bool
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+productTable+" WHERE id = $1)",
		productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// IncrementStock adds delta to the aggregate stock counter.
func (r *ProductRepo) IncrementStock(ctx context.Context, productID id.ID, delta int) error {
	sql, args, err := r.builder.
		Update(productTable).
		Set("stock_quantity", squirrel.Expr("stock_quantity + ?", delta)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// List returns products ordered by name.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]product.Product, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(productTable).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	sql, args, err := r.builder.
		Insert(productTable).
		SetMap(postgres.StructToMap(p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}
