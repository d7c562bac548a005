// Package auth_repo contains the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"minipos/internal/core/apperror"
	"minipos/internal/domain/auth"
	"minipos/internal/infrastructure/storage/postgres"
)

const userTable = "sys_users"

const uniqueViolationCode = "23505"

// UserRepo implements auth.Repository.
type UserRepo struct {
	txm     *postgres.TxManager
	columns []string
	builder squirrel.StatementBuilderType
}

var _ auth.Repository = (*UserRepo)(nil)

// NewUserRepo creates a user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txm:     txm,
		columns: postgres.ExtractDBColumns[auth.User](),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	sql, args, err := r.builder.
		Select(r.columns...).
		From(userTable).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", username)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	sql, args, err := r.builder.
		Insert(userTable).
		SetMap(postgres.StructToMap(u)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
