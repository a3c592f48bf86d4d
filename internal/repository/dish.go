package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

const (
	dishColumns = `id, name, category_id, price, image, description, status,
		create_time, create_user, update_time, update_user`

	getDishSQL   = `SELECT ` + dishColumns + ` FROM dish WHERE id = $1`
	getDishesSQL = `SELECT ` + dishColumns + ` FROM dish WHERE id = ANY($1)`

	listDishesSQL = `SELECT ` + dishColumns + ` FROM dish
		WHERE category_id = $1 AND status = $2 ORDER BY create_time DESC, id`

	flavorsSQL = `SELECT id, dish_id, name, value FROM dish_flavor WHERE dish_id = $1 ORDER BY id`

	insertDishSQL = `INSERT INTO dish
		(name, category_id, price, image, description, status,
		 create_time, create_user, update_time, update_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	insertFlavorSQL = `INSERT INTO dish_flavor (dish_id, name, value) VALUES ($1, $2, $3)`

	updateDishSQL = `UPDATE dish SET
		name = $2, category_id = $3, price = $4, image = $5, description = $6,
		status = $7, update_time = $8, update_user = $9
		WHERE id = $1`

	setDishStatusSQL = `UPDATE dish SET status = $2, update_time = $3, update_user = $4 WHERE id = $1`

	lockDishesSQL = `SELECT id, status FROM dish WHERE id = ANY($1) FOR UPDATE`

	countMembershipsSQL = `SELECT count(*) FROM combo_dish WHERE dish_id = ANY($1)`

	deleteDishesSQL  = `DELETE FROM dish WHERE id = ANY($1)`
	deleteFlavorsSQL = `DELETE FROM dish_flavor WHERE dish_id = ANY($1)`
)

var _ catalog.DishStore = (*DishRepository)(nil)

// DishRepository implements catalog.DishStore backed by PostgreSQL.
type DishRepository struct {
	pool *pgxpool.Pool
}

// NewDishRepository returns a DishRepository that uses the given pool.
func NewDishRepository(pool *pgxpool.Pool) *DishRepository {
	return &DishRepository{pool: pool}
}

// GetDish returns a single dish by id.
func (r *DishRepository) GetDish(ctx context.Context, id int64) (*catalog.Dish, error) {
	rows, err := r.pool.Query(ctx, getDishSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting dish %d: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDish)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrDishNotFound
		}
		return nil, fmt.Errorf("getting dish %d: %w", id, err)
	}
	return &d, nil
}

// GetDishes returns the dishes matching any of the given ids.
func (r *DishRepository) GetDishes(ctx context.Context, ids []int64) ([]catalog.Dish, error) {
	rows, err := r.pool.Query(ctx, getDishesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting dishes: %w", err)
	}
	return pgx.CollectRows(rows, scanDish)
}

// ListDishes returns the dishes of a category with the given status.
func (r *DishRepository) ListDishes(ctx context.Context, categoryID int64, status catalog.Status) ([]catalog.Dish, error) {
	rows, err := r.pool.Query(ctx, listDishesSQL, categoryID, int(status))
	if err != nil {
		return nil, fmt.Errorf("listing dishes: %w", err)
	}
	return pgx.CollectRows(rows, scanDish)
}

// Flavors returns all flavor rows of a dish.
func (r *DishRepository) Flavors(ctx context.Context, dishID int64) ([]catalog.DishFlavor, error) {
	rows, err := r.pool.Query(ctx, flavorsSQL, dishID)
	if err != nil {
		return nil, fmt.Errorf("getting flavors for dish %d: %w", dishID, err)
	}
	return pgx.CollectRows(rows, scanFlavor)
}

// InsertDishWithFlavors inserts the dish, stamps the generated id onto every
// flavor, and batch-inserts them. Dish and flavors persist atomically.
func (r *DishRepository) InsertDishWithFlavors(ctx context.Context, d *catalog.Dish, flavors []catalog.DishFlavor) (int64, error) {
	stampInsert(ctx, &d.Audit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertDishSQL,
		d.Name, d.CategoryID, d.Price, d.Image, d.Description, int(d.Status),
		d.CreateTime, d.CreateUser, d.UpdateTime, d.UpdateUser,
	).Scan(&d.ID)
	if err != nil {
		return 0, fmt.Errorf("inserting dish %q: %w", d.Name, err)
	}

	if err := insertFlavors(ctx, tx, d.ID, flavors); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing dish insert: %w", err)
	}
	return d.ID, nil
}

// UpdateDishReplaceFlavors updates the dish row and replaces its flavor set:
// all prior rows are deleted before the new set is inserted, in one
// transaction. An empty set leaves the dish with zero flavors.
func (r *DishRepository) UpdateDishReplaceFlavors(ctx context.Context, d *catalog.Dish, flavors []catalog.DishFlavor) error {
	stampUpdate(ctx, &d.Audit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateDishSQL,
		d.ID, d.Name, d.CategoryID, d.Price, d.Image, d.Description,
		int(d.Status), d.UpdateTime, d.UpdateUser,
	)
	if err != nil {
		return fmt.Errorf("updating dish %d: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrDishNotFound
	}

	if _, err := tx.Exec(ctx, deleteFlavorsSQL, []int64{d.ID}); err != nil {
		return fmt.Errorf("deleting flavors for dish %d: %w", d.ID, err)
	}
	if err := insertFlavors(ctx, tx, d.ID, flavors); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing dish update: %w", err)
	}
	return nil
}

// DeleteDishesWithFlavors deletes the dish rows and their flavor rows in one
// transaction. The deletion guards are re-validated under row locks, so the
// check-then-delete gap of the service layer cannot be exploited by a
// concurrent enable or combo edit.
func (r *DishRepository) DeleteDishesWithFlavors(ctx context.Context, ids []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockDishesSQL, ids)
	if err != nil {
		return fmt.Errorf("locking dishes: %w", err)
	}
	type dishStatus struct {
		ID     int64
		Status int
	}
	locked, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dishStatus])
	if err != nil {
		return fmt.Errorf("locking dishes: %w", err)
	}
	if len(locked) != len(ids) {
		return catalog.ErrDishNotFound
	}
	for _, d := range locked {
		if catalog.Status(d.Status) == catalog.StatusEnabled {
			return catalog.ErrDishOnSale
		}
	}

	var memberships int
	if err := tx.QueryRow(ctx, countMembershipsSQL, ids).Scan(&memberships); err != nil {
		return fmt.Errorf("counting combo memberships: %w", err)
	}
	if memberships > 0 {
		return catalog.ErrDishInCombo
	}

	if _, err := tx.Exec(ctx, deleteDishesSQL, ids); err != nil {
		return fmt.Errorf("deleting dishes: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteFlavorsSQL, ids); err != nil {
		return fmt.Errorf("deleting flavors: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing dish delete: %w", err)
	}
	return nil
}

// SetDishStatus enables or disables a dish.
func (r *DishRepository) SetDishStatus(ctx context.Context, id int64, status catalog.Status) error {
	var a catalog.Audit
	stampUpdate(ctx, &a)

	tag, err := r.pool.Exec(ctx, setDishStatusSQL, id, int(status), a.UpdateTime, a.UpdateUser)
	if err != nil {
		return fmt.Errorf("setting dish %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrDishNotFound
	}
	return nil
}

func insertFlavors(ctx context.Context, tx pgx.Tx, dishID int64, flavors []catalog.DishFlavor) error {
	for i := range flavors {
		flavors[i].DishID = dishID
		if _, err := tx.Exec(ctx, insertFlavorSQL, dishID, flavors[i].Name, flavors[i].Value); err != nil {
			return fmt.Errorf("inserting flavor %q: %w", flavors[i].Name, err)
		}
	}
	return nil
}

func scanDish(row pgx.CollectableRow) (catalog.Dish, error) {
	var (
		d      catalog.Dish
		status int
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.CategoryID, &d.Price, &d.Image, &d.Description, &status,
		&d.CreateTime, &d.CreateUser, &d.UpdateTime, &d.UpdateUser,
	)
	d.Status = catalog.Status(status)
	return d, err
}

func scanFlavor(row pgx.CollectableRow) (catalog.DishFlavor, error) {
	var f catalog.DishFlavor
	err := row.Scan(&f.ID, &f.DishID, &f.Name, &f.Value)
	return f, err
}
