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
	comboColumns = `id, name, category_id, price, image, description, status,
		create_time, create_user, update_time, update_user`

	getComboSQL   = `SELECT ` + comboColumns + ` FROM combo WHERE id = $1`
	getCombosSQL  = `SELECT ` + comboColumns + ` FROM combo WHERE id = ANY($1)`
	comboDishsSQL = `SELECT id, combo_id, dish_id, name, price, copies FROM combo_dish
		WHERE combo_id = $1 ORDER BY id`

	comboIDsForDishesSQL = `SELECT DISTINCT combo_id FROM combo_dish WHERE dish_id = ANY($1)`

	insertComboSQL = `INSERT INTO combo
		(name, category_id, price, image, description, status,
		 create_time, create_user, update_time, update_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	insertComboDishSQL = `INSERT INTO combo_dish (combo_id, dish_id, name, price, copies)
		VALUES ($1, $2, $3, $4, $5)`

	updateComboSQL = `UPDATE combo SET
		name = $2, category_id = $3, price = $4, image = $5, description = $6,
		status = $7, update_time = $8, update_user = $9
		WHERE id = $1`

	setComboStatusSQL = `UPDATE combo SET status = $2, update_time = $3, update_user = $4 WHERE id = $1`

	lockCombosSQL = `SELECT id, status FROM combo WHERE id = ANY($1) FOR UPDATE`

	deleteCombosSQL     = `DELETE FROM combo WHERE id = ANY($1)`
	deleteComboDishsSQL = `DELETE FROM combo_dish WHERE combo_id = ANY($1)`
)

var _ catalog.ComboStore = (*ComboRepository)(nil)

// ComboRepository implements catalog.ComboStore backed by PostgreSQL.
type ComboRepository struct {
	pool *pgxpool.Pool
}

// NewComboRepository returns a ComboRepository that uses the given pool.
func NewComboRepository(pool *pgxpool.Pool) *ComboRepository {
	return &ComboRepository{pool: pool}
}

// GetCombo returns a single combo by id.
func (r *ComboRepository) GetCombo(ctx context.Context, id int64) (*catalog.Combo, error) {
	rows, err := r.pool.Query(ctx, getComboSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting combo %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCombo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrComboNotFound
		}
		return nil, fmt.Errorf("getting combo %d: %w", id, err)
	}
	return &c, nil
}

// GetCombos returns the combos matching any of the given ids.
func (r *ComboRepository) GetCombos(ctx context.Context, ids []int64) ([]catalog.Combo, error) {
	rows, err := r.pool.Query(ctx, getCombosSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting combos: %w", err)
	}
	return pgx.CollectRows(rows, scanCombo)
}

// ComboDishes returns the membership rows of a combo.
func (r *ComboRepository) ComboDishes(ctx context.Context, comboID int64) ([]catalog.ComboDish, error) {
	rows, err := r.pool.Query(ctx, comboDishsSQL, comboID)
	if err != nil {
		return nil, fmt.Errorf("getting dishes for combo %d: %w", comboID, err)
	}
	return pgx.CollectRows(rows, scanComboDish)
}

// ComboIDsForDishes returns the ids of combos referencing any of the dishes.
func (r *ComboRepository) ComboIDsForDishes(ctx context.Context, dishIDs []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, comboIDsForDishesSQL, dishIDs)
	if err != nil {
		return nil, fmt.Errorf("querying combo memberships: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// InsertComboWithDishes inserts the combo, stamps the generated id onto every
// membership row, and batch-inserts them atomically.
func (r *ComboRepository) InsertComboWithDishes(ctx context.Context, c *catalog.Combo, dishes []catalog.ComboDish) (int64, error) {
	stampInsert(ctx, &c.Audit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertComboSQL,
		c.Name, c.CategoryID, c.Price, c.Image, c.Description, int(c.Status),
		c.CreateTime, c.CreateUser, c.UpdateTime, c.UpdateUser,
	).Scan(&c.ID)
	if err != nil {
		return 0, fmt.Errorf("inserting combo %q: %w", c.Name, err)
	}

	if err := insertComboDishes(ctx, tx, c.ID, dishes); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing combo insert: %w", err)
	}
	return c.ID, nil
}

// UpdateComboReplaceDishes updates the combo row and replaces its membership
// rows as a batch, in one transaction.
func (r *ComboRepository) UpdateComboReplaceDishes(ctx context.Context, c *catalog.Combo, dishes []catalog.ComboDish) error {
	stampUpdate(ctx, &c.Audit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateComboSQL,
		c.ID, c.Name, c.CategoryID, c.Price, c.Image, c.Description,
		int(c.Status), c.UpdateTime, c.UpdateUser,
	)
	if err != nil {
		return fmt.Errorf("updating combo %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrComboNotFound
	}

	if _, err := tx.Exec(ctx, deleteComboDishsSQL, []int64{c.ID}); err != nil {
		return fmt.Errorf("deleting dishes for combo %d: %w", c.ID, err)
	}
	if err := insertComboDishes(ctx, tx, c.ID, dishes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing combo update: %w", err)
	}
	return nil
}

// DeleteCombosWithDishes deletes the combo rows and their membership rows in
// one transaction, re-validating the on-sale guard under row locks.
func (r *ComboRepository) DeleteCombosWithDishes(ctx context.Context, ids []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockCombosSQL, ids)
	if err != nil {
		return fmt.Errorf("locking combos: %w", err)
	}
	type comboStatus struct {
		ID     int64
		Status int
	}
	locked, err := pgx.CollectRows(rows, pgx.RowToStructByPos[comboStatus])
	if err != nil {
		return fmt.Errorf("locking combos: %w", err)
	}
	if len(locked) != len(ids) {
		return catalog.ErrComboNotFound
	}
	for _, c := range locked {
		if catalog.Status(c.Status) == catalog.StatusEnabled {
			return catalog.ErrComboOnSale
		}
	}

	if _, err := tx.Exec(ctx, deleteCombosSQL, ids); err != nil {
		return fmt.Errorf("deleting combos: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteComboDishsSQL, ids); err != nil {
		return fmt.Errorf("deleting combo dishes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing combo delete: %w", err)
	}
	return nil
}

// SetComboStatus enables or disables a combo.
func (r *ComboRepository) SetComboStatus(ctx context.Context, id int64, status catalog.Status) error {
	var a catalog.Audit
	stampUpdate(ctx, &a)

	tag, err := r.pool.Exec(ctx, setComboStatusSQL, id, int(status), a.UpdateTime, a.UpdateUser)
	if err != nil {
		return fmt.Errorf("setting combo %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrComboNotFound
	}
	return nil
}

func insertComboDishes(ctx context.Context, tx pgx.Tx, comboID int64, dishes []catalog.ComboDish) error {
	for i := range dishes {
		dishes[i].ComboID = comboID
		cd := dishes[i]
		if _, err := tx.Exec(ctx, insertComboDishSQL, comboID, cd.DishID, cd.Name, cd.Price, cd.Copies); err != nil {
			return fmt.Errorf("inserting combo dish %d: %w", cd.DishID, err)
		}
	}
	return nil
}

func scanCombo(row pgx.CollectableRow) (catalog.Combo, error) {
	var (
		c      catalog.Combo
		status int
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.CategoryID, &c.Price, &c.Image, &c.Description, &status,
		&c.CreateTime, &c.CreateUser, &c.UpdateTime, &c.UpdateUser,
	)
	c.Status = catalog.Status(status)
	return c, err
}

func scanComboDish(row pgx.CollectableRow) (catalog.ComboDish, error) {
	var cd catalog.ComboDish
	err := row.Scan(&cd.ID, &cd.ComboID, &cd.DishID, &cd.Name, &cd.Price, &cd.Copies)
	return cd, err
}
