package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/feastline/backoffice/internal/domain/order"
)

const (
	sumAmountSQL = `SELECT SUM(amount) FROM orders
		WHERE order_time BETWEEN $1 AND $2 AND status = $3`

	countOrdersSQL = `SELECT COUNT(*) FROM orders
		WHERE order_time BETWEEN $1 AND $2`

	countOrdersByStatusSQL = countOrdersSQL + ` AND status = $3`

	topSalesSQL = `SELECT od.name, CAST(SUM(od.number) AS BIGINT) AS total
		FROM order_detail od
		JOIN orders o ON o.id = od.order_id
		WHERE o.order_time BETWEEN $1 AND $2 AND o.status = $3
		GROUP BY od.name
		ORDER BY total DESC, od.name ASC
		LIMIT $4`
)

var _ order.Stats = (*OrderRepository)(nil)

// OrderRepository implements order.Stats backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// SumAmount returns the total amount of orders with the given status placed
// inside the range. The sum is null when no orders match.
func (r *OrderRepository) SumAmount(ctx context.Context, tr order.TimeRange, status order.Status) (decimal.NullDecimal, error) {
	var sum decimal.NullDecimal
	err := r.pool.QueryRow(ctx, sumAmountSQL, tr.Begin, tr.End, int(status)).Scan(&sum)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("summing order amounts: %w", err)
	}
	return sum, nil
}

// Count returns the number of orders placed inside the range, filtered by
// status when one is given.
func (r *OrderRepository) Count(ctx context.Context, tr order.TimeRange, status *order.Status) (int, error) {
	var (
		n   int
		err error
	)
	if status == nil {
		err = r.pool.QueryRow(ctx, countOrdersSQL, tr.Begin, tr.End).Scan(&n)
	} else {
		err = r.pool.QueryRow(ctx, countOrdersByStatusSQL, tr.Begin, tr.End, int(*status)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// TopSales returns the best selling item names of completed orders inside the
// range, by total quantity sold, capped at limit.
func (r *OrderRepository) TopSales(ctx context.Context, tr order.TimeRange, limit int) ([]order.SalesRank, error) {
	rows, err := r.pool.Query(ctx, topSalesSQL, tr.Begin, tr.End, int(order.StatusCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("querying top sales: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[order.SalesRank])
}
