package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastline/backoffice/internal/domain/report"
)

const (
	countUsersBeforeSQL  = `SELECT COUNT(*) FROM users WHERE create_time <= $1`
	countUsersBetweenSQL = `SELECT COUNT(*) FROM users WHERE create_time BETWEEN $1 AND $2`
)

var _ report.UserCounter = (*UserRepository)(nil)

// UserRepository implements report.UserCounter backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CountCreatedBefore counts users registered at or before t.
func (r *UserRepository) CountCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countUsersBeforeSQL, t).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// CountCreatedBetween counts users registered within [begin, end].
func (r *UserRepository) CountCreatedBetween(ctx context.Context, begin, end time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countUsersBetweenSQL, begin, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting new users: %w", err)
	}
	return n, nil
}
