package catalog

import "context"

// DishListCache caches the enabled-dish listing per category for the
// storefront. Cache failures are never fatal: callers log and fall through to
// the store.
type DishListCache interface {
	Get(ctx context.Context, categoryID int64) ([]DishWithFlavors, bool, error)
	Set(ctx context.Context, categoryID int64, dishes []DishWithFlavors) error
	Invalidate(ctx context.Context, categoryIDs ...int64) error
}

// NoopDishCache disables caching.
type NoopDishCache struct{}

func (NoopDishCache) Get(context.Context, int64) ([]DishWithFlavors, bool, error) {
	return nil, false, nil
}

func (NoopDishCache) Set(context.Context, int64, []DishWithFlavors) error { return nil }

func (NoopDishCache) Invalidate(context.Context, ...int64) error { return nil }
