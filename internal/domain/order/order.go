// Package order holds the order entities and the aggregate query surface the
// reporting pipeline reads from. Orders are written by the storefront flow,
// which lives outside this core.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the numeric order lifecycle code. Completed is the distinguished
// terminal status counted as a "valid" order by every report.
type Status int

const (
	StatusPendingPayment Status = 1
	StatusAwaitingAccept Status = 2
	StatusAccepted       Status = 3
	StatusInDelivery     Status = 4
	StatusCompleted      Status = 5
	StatusCancelled      Status = 6
)

// Order is one order row.
type Order struct {
	ID           int64
	Number       string
	UserID       int64
	Status       Status
	Amount       decimal.Decimal
	OrderTime    time.Time
	CheckoutTime *time.Time
	Remark       string
}

// Detail is one order line item, aggregated by name for sales ranking.
type Detail struct {
	ID      int64
	OrderID int64
	Name    string
	Number  int
	Amount  decimal.Decimal
}

// TimeRange is a closed [Begin, End] interval over order time.
type TimeRange struct {
	Begin time.Time
	End   time.Time
}

// SalesRank is one entry of the ranked sales report.
type SalesRank struct {
	Name   string
	Number int
}

// Stats defines the aggregate queries over the order store.
type Stats interface {
	// SumAmount sums the amount of orders with the given status in the range.
	// The result is invalid (not zero) when no rows match, mirroring SQL SUM.
	SumAmount(ctx context.Context, tr TimeRange, status Status) (decimal.NullDecimal, error)
	// Count counts orders in the range; a nil status counts all statuses.
	Count(ctx context.Context, tr TimeRange, status *Status) (int, error)
	// TopSales returns up to limit item names ranked by summed quantity over
	// completed orders in the range, descending, ties broken by name.
	TopSales(ctx context.Context, tr TimeRange, limit int) ([]SalesRank, error)
}
