package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

// Service resolves cart mutations against the store and the catalog.
type Service struct {
	store   Store
	catalog Catalog
	now     func() time.Time
}

// NewService creates a cart Service.
func NewService(store Store, cat Catalog) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		now:     time.Now,
	}
}

// Add puts one unit of an item into the user's cart. An existing line for the
// same (item, flavor) is incremented by one; otherwise a new line is inserted
// with quantity 1, priced and named from the catalog. The store's upsert
// collapses concurrent first inserts into a single line.
func (s *Service) Add(ctx context.Context, userID int64, ref ItemRef) error {
	if !ref.valid() {
		return ErrNoItem
	}

	lines, err := s.store.FindLines(ctx, userID, ref)
	if err != nil {
		return errors.Wrap(err, "find cart lines")
	}
	if len(lines) > 0 {
		// At most one line exists per identity key. Name, image, and amount
		// stay as they were at first insertion.
		line := lines[0]
		if err := s.store.UpdateQuantity(ctx, line.ID, line.Number+1); err != nil {
			return errors.Wrap(err, "increment cart line")
		}
		return nil
	}

	line := Line{
		UserID:     userID,
		DishID:     ref.DishID,
		ComboID:    ref.ComboID,
		Flavor:     ref.Flavor,
		Number:     1,
		CreateTime: s.now(),
	}
	if ref.DishID != nil {
		d, err := s.catalog.Dish(ctx, *ref.DishID)
		if err != nil {
			if errors.Is(err, catalog.ErrDishNotFound) {
				return ErrUnknownItem
			}
			return errors.Wrap(err, "get dish")
		}
		line.Name = d.Name
		line.Image = d.Image
		line.Amount = d.Price
	} else {
		c, err := s.catalog.Combo(ctx, *ref.ComboID)
		if err != nil {
			if errors.Is(err, catalog.ErrComboNotFound) {
				return ErrUnknownItem
			}
			return errors.Wrap(err, "get combo")
		}
		line.Name = c.Name
		line.Image = c.Image
		line.Amount = c.Price
	}

	if err := s.store.InsertLine(ctx, &line); err != nil {
		return errors.Wrap(err, "insert cart line")
	}
	return nil
}

// Remove takes one unit of an item out of the user's cart: a line at quantity
// 1 is deleted, otherwise it is decremented. Removing an item that is not in
// the cart is a no-op.
func (s *Service) Remove(ctx context.Context, userID int64, ref ItemRef) error {
	if !ref.valid() {
		return ErrNoItem
	}

	lines, err := s.store.FindLines(ctx, userID, ref)
	if err != nil {
		return errors.Wrap(err, "find cart lines")
	}
	if len(lines) == 0 {
		return nil
	}

	line := lines[0]
	if line.Number <= 1 {
		if err := s.store.DeleteLine(ctx, line.ID); err != nil {
			return errors.Wrap(err, "delete cart line")
		}
		return nil
	}
	if err := s.store.UpdateQuantity(ctx, line.ID, line.Number-1); err != nil {
		return errors.Wrap(err, "decrement cart line")
	}
	return nil
}

// List returns all cart lines for the user.
func (s *Service) List(ctx context.Context, userID int64) ([]Line, error) {
	lines, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	return lines, nil
}

// Clear removes every line of the user's cart. Clearing an empty cart is not
// an error.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.store.DeleteByUser(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
