package repository

import (
	"context"

	"github.com/feastline/backoffice/internal/domain/cart"
	"github.com/feastline/backoffice/internal/domain/catalog"
)

var _ cart.Catalog = (*CatalogReader)(nil)

// CatalogReader adapts the catalog repositories to the read-only view the
// cart needs when pricing a new line.
type CatalogReader struct {
	dishes *DishRepository
	combos *ComboRepository
}

// NewCatalogReader returns a CatalogReader over the given repositories.
func NewCatalogReader(dishes *DishRepository, combos *ComboRepository) *CatalogReader {
	return &CatalogReader{dishes: dishes, combos: combos}
}

func (r *CatalogReader) Dish(ctx context.Context, id int64) (*catalog.Dish, error) {
	return r.dishes.GetDish(ctx, id)
}

func (r *CatalogReader) Combo(ctx context.Context, id int64) (*catalog.Combo, error) {
	return r.combos.GetCombo(ctx, id)
}
