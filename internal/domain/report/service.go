package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/feastline/backoffice/internal/domain/order"
)

// topSalesLimit caps the ranked sales report.
const topSalesLimit = 10

// Service computes the day-bucketed report series. All queries are read-only;
// each metric is an independent query per day, so small drift between metrics
// in one response is tolerated.
type Service struct {
	orders order.Stats
	users  UserCounter
}

// NewService creates a report Service over the order stats and user-count
// sources.
func NewService(orders order.Stats, users UserCounter) *Service {
	return &Service{orders: orders, users: users}
}

// Turnover sums the amount of completed orders for every day of [begin, end].
// Days with no completed orders contribute exactly zero, never a gap.
func (s *Service) Turnover(ctx context.Context, begin, end time.Time) (*TurnoverReport, error) {
	dates := DateRange(begin, end)
	turnover := make([]decimal.Decimal, 0, len(dates))
	for _, d := range dates {
		sum, err := s.orders.SumAmount(ctx, DayBucket(d), order.StatusCompleted)
		if err != nil {
			return nil, errors.Wrap(err, "sum turnover")
		}
		turnover = append(turnover, nullToZero(sum))
	}
	return &TurnoverReport{Dates: dates, Turnover: turnover}, nil
}

// UserGrowth reports, for every day of [begin, end], the users created within
// that day and the cumulative count created up to its end.
func (s *Service) UserGrowth(ctx context.Context, begin, end time.Time) (*UserGrowthReport, error) {
	dates := DateRange(begin, end)
	newUsers := make([]int, 0, len(dates))
	totalUsers := make([]int, 0, len(dates))
	for _, d := range dates {
		bucket := DayBucket(d)

		total, err := s.users.CountCreatedBefore(ctx, bucket.End)
		if err != nil {
			return nil, errors.Wrap(err, "count total users")
		}
		created, err := s.users.CountCreatedBetween(ctx, bucket.Begin, bucket.End)
		if err != nil {
			return nil, errors.Wrap(err, "count new users")
		}

		totalUsers = append(totalUsers, total)
		newUsers = append(newUsers, created)
	}
	return &UserGrowthReport{Dates: dates, NewUsers: newUsers, TotalUsers: totalUsers}, nil
}

// OrderStats reports per-day order counts (all statuses and completed only)
// plus the range totals and the completion rate. A range with zero orders has
// a completion rate of exactly 0.
func (s *Service) OrderStats(ctx context.Context, begin, end time.Time) (*OrderReport, error) {
	dates := DateRange(begin, end)
	orderCounts := make([]int, 0, len(dates))
	validCounts := make([]int, 0, len(dates))

	completed := order.StatusCompleted
	for _, d := range dates {
		bucket := DayBucket(d)

		all, err := s.orders.Count(ctx, bucket, nil)
		if err != nil {
			return nil, errors.Wrap(err, "count orders")
		}
		valid, err := s.orders.Count(ctx, bucket, &completed)
		if err != nil {
			return nil, errors.Wrap(err, "count valid orders")
		}

		orderCounts = append(orderCounts, all)
		validCounts = append(validCounts, valid)
	}

	var totalOrders, validOrders int
	for i := range orderCounts {
		totalOrders += orderCounts[i]
		validOrders += validCounts[i]
	}

	return &OrderReport{
		Dates:            dates,
		OrderCounts:      orderCounts,
		ValidOrderCounts: validCounts,
		TotalOrderCount:  totalOrders,
		ValidOrderCount:  validOrders,
		CompletionRate:   safeRate(validOrders, totalOrders),
	}, nil
}

// TopSales ranks item names by summed quantity over completed orders in
// [begin, end]: one windowed aggregate, at most ten entries, descending, ties
// broken by name ascending.
func (s *Service) TopSales(ctx context.Context, begin, end time.Time) (*SalesTopReport, error) {
	ranks, err := s.orders.TopSales(ctx, WindowBucket(begin, end), topSalesLimit)
	if err != nil {
		return nil, errors.Wrap(err, "top sales")
	}

	names := make([]string, 0, len(ranks))
	numbers := make([]int, 0, len(ranks))
	for _, r := range ranks {
		names = append(names, r.Name)
		numbers = append(numbers, r.Number)
	}
	return &SalesTopReport{Names: names, Numbers: numbers}, nil
}

// BusinessData computes the overview block for one time range. The four
// source queries are independent and run concurrently; no cross-metric
// snapshot is assumed.
func (s *Service) BusinessData(ctx context.Context, tr order.TimeRange) (*BusinessData, error) {
	var (
		sum          decimal.NullDecimal
		total, valid int
		newUsers     int
	)
	completed := order.StatusCompleted

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if sum, err = s.orders.SumAmount(gctx, tr, order.StatusCompleted); err != nil {
			return errors.Wrap(err, "sum turnover")
		}
		return nil
	})
	g.Go(func() (err error) {
		if total, err = s.orders.Count(gctx, tr, nil); err != nil {
			return errors.Wrap(err, "count orders")
		}
		return nil
	})
	g.Go(func() (err error) {
		if valid, err = s.orders.Count(gctx, tr, &completed); err != nil {
			return errors.Wrap(err, "count valid orders")
		}
		return nil
	})
	g.Go(func() (err error) {
		if newUsers, err = s.users.CountCreatedBetween(gctx, tr.Begin, tr.End); err != nil {
			return errors.Wrap(err, "count new users")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	turnover := nullToZero(sum)
	unitPrice := decimal.Zero
	if valid != 0 {
		unitPrice = turnover.Div(decimal.NewFromInt(int64(valid))).Round(2)
	}

	return &BusinessData{
		Turnover:        turnover,
		ValidOrderCount: valid,
		CompletionRate:  safeRate(valid, total),
		UnitPrice:       unitPrice,
		NewUsers:        newUsers,
	}, nil
}

// nullToZero coerces a missing SQL sum to zero; a null must never leak into a
// series.
func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// safeRate divides valid by total, defining 0/0 as 0.
func safeRate(valid, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(valid) / float64(total)
}
