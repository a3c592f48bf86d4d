package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastline/backoffice/internal/domain/cart"
)

const (
	cartColumns = `id, user_id, dish_id, combo_id, name, image, flavor, number, amount, create_time`

	findCartLinesSQL = `SELECT ` + cartColumns + ` FROM shopping_cart
		WHERE user_id = $1
		  AND dish_id IS NOT DISTINCT FROM $2
		  AND combo_id IS NOT DISTINCT FROM $3
		  AND flavor = $4`

	listCartByUserSQL = `SELECT ` + cartColumns + ` FROM shopping_cart
		WHERE user_id = $1 ORDER BY create_time`

	// Concurrent adds of the same item race between find and insert. The
	// unique index on (user_id, item, flavor) turns the losing insert into
	// an increment, so the invariant of one line per distinct item holds.
	insertCartLineSQL = `INSERT INTO shopping_cart
		(user_id, dish_id, combo_id, name, image, flavor, number, amount, create_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, COALESCE(dish_id, 0), COALESCE(combo_id, 0), flavor)
		DO UPDATE SET number = shopping_cart.number + 1
		RETURNING id`

	updateCartQuantitySQL = `UPDATE shopping_cart SET number = $2 WHERE id = $1`

	deleteCartLineSQL   = `DELETE FROM shopping_cart WHERE id = $1`
	deleteCartByUserSQL = `DELETE FROM shopping_cart WHERE user_id = $1`
)

var _ cart.Store = (*CartRepository)(nil)

// CartRepository implements cart.Store backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// FindLines returns the lines of a user matching the item reference.
func (r *CartRepository) FindLines(ctx context.Context, userID int64, ref cart.ItemRef) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, findCartLinesSQL, userID, ref.DishID, ref.ComboID, ref.Flavor)
	if err != nil {
		return nil, fmt.Errorf("finding cart lines for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// ListByUser returns all cart lines of a user ordered by creation time.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// InsertLine inserts a new cart line. If a line for the same user, item and
// flavor already exists its quantity is incremented instead.
func (r *CartRepository) InsertLine(ctx context.Context, line *cart.Line) error {
	err := r.pool.QueryRow(ctx, insertCartLineSQL,
		line.UserID, line.DishID, line.ComboID, line.Name, line.Image,
		line.Flavor, line.Number, line.Amount, line.CreateTime,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("inserting cart line for user %d: %w", line.UserID, err)
	}
	return nil
}

// UpdateQuantity sets the quantity of a cart line.
func (r *CartRepository) UpdateQuantity(ctx context.Context, id int64, number int) error {
	if _, err := r.pool.Exec(ctx, updateCartQuantitySQL, id, number); err != nil {
		return fmt.Errorf("updating cart line %d: %w", id, err)
	}
	return nil
}

// DeleteLine removes a single cart line.
func (r *CartRepository) DeleteLine(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, deleteCartLineSQL, id); err != nil {
		return fmt.Errorf("deleting cart line %d: %w", id, err)
	}
	return nil
}

// DeleteByUser removes every cart line of a user.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, deleteCartByUserSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %d: %w", userID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(
		&l.ID, &l.UserID, &l.DishID, &l.ComboID, &l.Name, &l.Image,
		&l.Flavor, &l.Number, &l.Amount, &l.CreateTime,
	)
	return l, err
}
