// Package catalog holds the dish and combo-meal catalog and the consistency
// rules that keep the two mutually coherent under edits and deletions.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog consistency violations and lookups.
var (
	ErrDishNotFound  = errors.New("dish not found")
	ErrComboNotFound = errors.New("combo meal not found")
	ErrDishOnSale    = errors.New("dish is on sale and cannot be deleted")
	ErrComboOnSale   = errors.New("combo meal is on sale and cannot be deleted")
	ErrDishInCombo   = errors.New("dish is referenced by a combo meal")
)

// Status is the sale state of a catalog item. Only disabled items may be
// deleted.
type Status int

const (
	StatusDisabled Status = 0
	StatusEnabled  Status = 1
)

// Audit carries the write-tracking fields stamped by the store on every
// insert and update.
type Audit struct {
	CreateTime time.Time `json:"createTime"`
	CreateUser int64     `json:"createUser"`
	UpdateTime time.Time `json:"updateTime"`
	UpdateUser int64     `json:"updateUser"`
}

// Dish is a single sellable catalog item.
type Dish struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CategoryID  int64           `json:"categoryId"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Status      Status          `json:"status"`
	Audit
}

// DishFlavor is a customization option attached to a dish. Flavor rows have
// no lifecycle of their own: updating or deleting the parent dish replaces or
// removes the whole set.
type DishFlavor struct {
	ID     int64  `json:"id"`
	DishID int64  `json:"dishId"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// DishWithFlavors bundles a dish with its full flavor set.
type DishWithFlavors struct {
	Dish
	Flavors []DishFlavor `json:"flavors"`
}

// Combo is a sellable bundle composed of multiple dishes.
type Combo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CategoryID  int64           `json:"categoryId"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Status      Status          `json:"status"`
	Audit
}

// ComboDish is one membership row of the combo→dish relation. Rows are
// created and deleted as a batch alongside their owning combo.
type ComboDish struct {
	ID      int64           `json:"id"`
	ComboID int64           `json:"comboId"`
	DishID  int64           `json:"dishId"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Copies  int             `json:"copies"`
}

// ComboWithDishes bundles a combo with its membership rows.
type ComboWithDishes struct {
	Combo
	Dishes []ComboDish `json:"dishes"`
}

// DishStore defines persistence operations for dishes and their flavors.
// The compound mutations are atomic: parent and child writes either all
// persist or none do.
type DishStore interface {
	GetDish(ctx context.Context, id int64) (*Dish, error)
	GetDishes(ctx context.Context, ids []int64) ([]Dish, error)
	ListDishes(ctx context.Context, categoryID int64, status Status) ([]Dish, error)
	Flavors(ctx context.Context, dishID int64) ([]DishFlavor, error)

	// InsertDishWithFlavors inserts the dish, stamps the generated id onto
	// every flavor, and batch-inserts them in the same transaction.
	InsertDishWithFlavors(ctx context.Context, d *Dish, flavors []DishFlavor) (int64, error)
	// UpdateDishReplaceFlavors updates the dish row, deletes all of its
	// existing flavors, and inserts the new set in the same transaction.
	UpdateDishReplaceFlavors(ctx context.Context, d *Dish, flavors []DishFlavor) error
	// DeleteDishesWithFlavors deletes the dish rows and all their flavor rows
	// atomically, re-validating the deletion guards inside the transaction.
	DeleteDishesWithFlavors(ctx context.Context, ids []int64) error
	SetDishStatus(ctx context.Context, id int64, status Status) error
}

// ComboStore defines persistence operations for combos and their membership
// rows.
type ComboStore interface {
	GetCombo(ctx context.Context, id int64) (*Combo, error)
	GetCombos(ctx context.Context, ids []int64) ([]Combo, error)
	ComboDishes(ctx context.Context, comboID int64) ([]ComboDish, error)
	// ComboIDsForDishes returns the ids of combos that reference any of the
	// given dishes.
	ComboIDsForDishes(ctx context.Context, dishIDs []int64) ([]int64, error)

	InsertComboWithDishes(ctx context.Context, c *Combo, dishes []ComboDish) (int64, error)
	UpdateComboReplaceDishes(ctx context.Context, c *Combo, dishes []ComboDish) error
	DeleteCombosWithDishes(ctx context.Context, ids []int64) error
	SetComboStatus(ctx context.Context, id int64, status Status) error
}
