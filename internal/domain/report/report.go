// Package report folds raw order rows into day-bucketed business metrics, a
// ranked sales report, and a 30-day spreadsheet export.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastline/backoffice/internal/domain/order"
)

// UserCounter is the user-count source consumed by the growth series.
type UserCounter interface {
	// CountCreatedBefore counts users created at or before t.
	CountCreatedBefore(ctx context.Context, t time.Time) (int, error)
	// CountCreatedBetween counts users created within [begin, end].
	CountCreatedBetween(ctx context.Context, begin, end time.Time) (int, error)
}

// TurnoverReport holds per-day completed-order turnover. Dates and Turnover
// are parallel slices: same length, same index, same day.
type TurnoverReport struct {
	Dates    []time.Time
	Turnover []decimal.Decimal
}

// UserGrowthReport holds per-day new and cumulative user counts.
type UserGrowthReport struct {
	Dates      []time.Time
	NewUsers   []int
	TotalUsers []int
}

// OrderReport holds per-day order counts plus range-wide totals.
type OrderReport struct {
	Dates            []time.Time
	OrderCounts      []int
	ValidOrderCounts []int
	TotalOrderCount  int
	ValidOrderCount  int
	CompletionRate   float64
}

// SalesTopReport is the ranked sales report, at most ten entries, Numbers
// non-increasing.
type SalesTopReport struct {
	Names   []string
	Numbers []int
}

// BusinessData is the overview block of the operational report for one time
// range.
type BusinessData struct {
	Turnover        decimal.Decimal
	ValidOrderCount int
	CompletionRate  float64
	UnitPrice       decimal.Decimal
	NewUsers        int
}

// DateRange expands the inclusive [begin, end] calendar-date interval into
// the ordered sequence of its days. A single-day range yields one element; a
// reversed range yields none; validity is the caller's concern.
func DateRange(begin, end time.Time) []time.Time {
	var dates []time.Time
	for d := begin; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DayBucket returns the closed interval covering the local calendar day of d:
// [00:00:00, 23:59:59.999999999].
func DayBucket(d time.Time) order.TimeRange {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return order.TimeRange{
		Begin: start,
		End:   start.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}

// WindowBucket returns the closed interval from the start of begin's day to
// the end of end's day.
func WindowBucket(begin, end time.Time) order.TimeRange {
	return order.TimeRange{
		Begin: DayBucket(begin).Begin,
		End:   DayBucket(end).End,
	}
}
