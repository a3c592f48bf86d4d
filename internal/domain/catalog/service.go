package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Service enforces the cross-table invariants of the catalog: deletion
// guards, flavor replacement, and combo-membership cascades.
type Service struct {
	dishes DishStore
	combos ComboStore
	cache  DishListCache
}

// NewService creates a catalog Service. Pass NoopDishCache to disable the
// dish-list cache.
func NewService(dishes DishStore, combos ComboStore, cache DishListCache) *Service {
	return &Service{
		dishes: dishes,
		combos: combos,
		cache:  cache,
	}
}

// SaveDishWithFlavors inserts a dish together with its flavor set and returns
// the generated dish id. The store stamps the id onto every flavor before the
// batch insert; an empty flavor list is skipped silently.
func (s *Service) SaveDishWithFlavors(ctx context.Context, d *Dish, flavors []DishFlavor) (int64, error) {
	id, err := s.dishes.InsertDishWithFlavors(ctx, d, flavors)
	if err != nil {
		return 0, errors.Wrap(err, "insert dish")
	}
	s.invalidate(ctx, d.CategoryID)
	return id, nil
}

// UpdateDishWithFlavors updates the dish row and replaces its flavor set.
// Replace, not merge: an empty flavor list leaves the dish with zero flavors.
func (s *Service) UpdateDishWithFlavors(ctx context.Context, d *Dish, flavors []DishFlavor) error {
	if err := s.dishes.UpdateDishReplaceFlavors(ctx, d, flavors); err != nil {
		return errors.Wrap(err, "update dish")
	}
	s.invalidate(ctx, d.CategoryID)
	return nil
}

// DeleteDishes deletes a batch of dishes and their flavors, all or nothing.
// The whole batch is validated before any mutation: a single enabled dish
// fails with ErrDishOnSale, a single combo-referenced dish with
// ErrDishInCombo. The store re-validates both guards inside the deleting
// transaction, so a dish cannot slip into a combo between check and delete.
func (s *Service) DeleteDishes(ctx context.Context, ids []int64) error {
	ids = dedupeIDs(ids)
	dishes, err := s.dishes.GetDishes(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get dishes")
	}
	if len(dishes) != len(ids) {
		return ErrDishNotFound
	}
	for _, d := range dishes {
		if d.Status == StatusEnabled {
			return ErrDishOnSale
		}
	}

	comboIDs, err := s.combos.ComboIDsForDishes(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "query combo memberships")
	}
	if len(comboIDs) > 0 {
		return ErrDishInCombo
	}

	if err := s.dishes.DeleteDishesWithFlavors(ctx, ids); err != nil {
		return errors.Wrap(err, "delete dishes")
	}

	categories := make([]int64, 0, len(dishes))
	for _, d := range dishes {
		categories = append(categories, d.CategoryID)
	}
	s.invalidate(ctx, categories...)
	return nil
}

// GetDishWithFlavors returns a dish together with its flavor set.
func (s *Service) GetDishWithFlavors(ctx context.Context, id int64) (*DishWithFlavors, error) {
	d, err := s.dishes.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}
	flavors, err := s.dishes.Flavors(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get flavors")
	}
	return &DishWithFlavors{Dish: *d, Flavors: flavors}, nil
}

// SetDishStatus enables or disables a dish.
func (s *Service) SetDishStatus(ctx context.Context, id int64, status Status) error {
	d, err := s.dishes.GetDish(ctx, id)
	if err != nil {
		return err
	}
	if err := s.dishes.SetDishStatus(ctx, id, status); err != nil {
		return errors.Wrap(err, "set dish status")
	}
	s.invalidate(ctx, d.CategoryID)
	return nil
}

// ListDishesByCategory returns the enabled dishes of a category with their
// flavors, served read-through from the dish-list cache.
func (s *Service) ListDishesByCategory(ctx context.Context, categoryID int64) ([]DishWithFlavors, error) {
	cached, ok, err := s.cache.Get(ctx, categoryID)
	if err != nil {
		zctx.From(ctx).Warn("Dish cache read failed", zap.Int64("category_id", categoryID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	dishes, err := s.dishes.ListDishes(ctx, categoryID, StatusEnabled)
	if err != nil {
		return nil, errors.Wrap(err, "list dishes")
	}

	result := make([]DishWithFlavors, 0, len(dishes))
	for _, d := range dishes {
		flavors, err := s.dishes.Flavors(ctx, d.ID)
		if err != nil {
			return nil, errors.Wrap(err, "get flavors")
		}
		result = append(result, DishWithFlavors{Dish: d, Flavors: flavors})
	}

	if err := s.cache.Set(ctx, categoryID, result); err != nil {
		zctx.From(ctx).Warn("Dish cache write failed", zap.Int64("category_id", categoryID), zap.Error(err))
	}
	return result, nil
}

// SaveComboWithDishes inserts a combo together with its membership rows and
// returns the generated combo id.
func (s *Service) SaveComboWithDishes(ctx context.Context, c *Combo, dishes []ComboDish) (int64, error) {
	id, err := s.combos.InsertComboWithDishes(ctx, c, dishes)
	if err != nil {
		return 0, errors.Wrap(err, "insert combo")
	}
	return id, nil
}

// UpdateComboWithDishes updates the combo row and replaces its membership
// rows as a batch.
func (s *Service) UpdateComboWithDishes(ctx context.Context, c *Combo, dishes []ComboDish) error {
	if err := s.combos.UpdateComboReplaceDishes(ctx, c, dishes); err != nil {
		return errors.Wrap(err, "update combo")
	}
	return nil
}

// DeleteCombos deletes a batch of combos and their membership rows, all or
// nothing. A single enabled combo fails the whole batch with ErrComboOnSale.
func (s *Service) DeleteCombos(ctx context.Context, ids []int64) error {
	ids = dedupeIDs(ids)
	combos, err := s.combos.GetCombos(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get combos")
	}
	if len(combos) != len(ids) {
		return ErrComboNotFound
	}
	for _, c := range combos {
		if c.Status == StatusEnabled {
			return ErrComboOnSale
		}
	}

	if err := s.combos.DeleteCombosWithDishes(ctx, ids); err != nil {
		return errors.Wrap(err, "delete combos")
	}
	return nil
}

// GetComboWithDishes returns a combo together with its membership rows.
func (s *Service) GetComboWithDishes(ctx context.Context, id int64) (*ComboWithDishes, error) {
	c, err := s.combos.GetCombo(ctx, id)
	if err != nil {
		return nil, err
	}
	dishes, err := s.combos.ComboDishes(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get combo dishes")
	}
	return &ComboWithDishes{Combo: *c, Dishes: dishes}, nil
}

// SetComboStatus enables or disables a combo.
func (s *Service) SetComboStatus(ctx context.Context, id int64, status Status) error {
	if _, err := s.combos.GetCombo(ctx, id); err != nil {
		return err
	}
	if err := s.combos.SetComboStatus(ctx, id, status); err != nil {
		return errors.Wrap(err, "set combo status")
	}
	return nil
}

// dedupeIDs drops repeated ids so a duplicated id in a delete batch is not
// mistaken for a missing row.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) invalidate(ctx context.Context, categoryIDs ...int64) {
	if err := s.cache.Invalidate(ctx, categoryIDs...); err != nil {
		zctx.From(ctx).Warn("Dish cache invalidation failed", zap.Int64s("category_ids", categoryIDs), zap.Error(err))
	}
}
