// Package cart implements the per-user shopping cart and its merge rules:
// adding an item either increments the existing line or inserts a new one
// priced from the catalog at first-insertion time.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

// Sentinel errors for cart operations.
var (
	// ErrNoItem is returned when a request names neither a dish nor a combo,
	// or names both.
	ErrNoItem = errors.New("exactly one of dish id or combo id is required")
	// ErrUnknownItem is returned when the referenced catalog item does not
	// exist at cart-add time.
	ErrUnknownItem = errors.New("item not found in catalog")
)

// ItemRef identifies a catalog item within a user's cart: exactly one of
// DishID and ComboID is non-nil. Flavor is the chosen customization and is
// part of the line identity.
type ItemRef struct {
	DishID  *int64
	ComboID *int64
	Flavor  string
}

// valid reports whether exactly one of the two ids is set.
func (r ItemRef) valid() bool {
	return (r.DishID != nil) != (r.ComboID != nil)
}

// Line is one cart row. Name, Image, and Amount are frozen at first-insertion
// time and deliberately do not track later catalog edits.
type Line struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	DishID     *int64          `json:"dishId"`
	ComboID    *int64          `json:"comboId"`
	Flavor     string          `json:"dishFlavor"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Amount     decimal.Decimal `json:"amount"`
	Number     int             `json:"number"`
	CreateTime time.Time       `json:"createTime"`
}

// Store defines persistence operations for cart lines. InsertLine must be an
// atomic upsert on the (user, item, flavor) identity key: a conflicting
// insert increments the existing line instead of creating a duplicate.
type Store interface {
	FindLines(ctx context.Context, userID int64, ref ItemRef) ([]Line, error)
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	InsertLine(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, lineID int64, number int) error
	DeleteLine(ctx context.Context, lineID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// Catalog is the read-side of the catalog the cart prices items from.
type Catalog interface {
	Dish(ctx context.Context, id int64) (*catalog.Dish, error)
	Combo(ctx context.Context, id int64) (*catalog.Combo, error)
}
