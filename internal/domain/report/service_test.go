package report

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastline/backoffice/internal/domain/order"
)

// --- Mock implementations ---

type mockStats struct {
	orders  []order.Order
	details []order.Detail
}

func inRange(t time.Time, tr order.TimeRange) bool {
	return !t.Before(tr.Begin) && !t.After(tr.End)
}

func (m *mockStats) SumAmount(_ context.Context, tr order.TimeRange, status order.Status) (decimal.NullDecimal, error) {
	sum := decimal.Zero
	matched := false
	for _, o := range m.orders {
		if o.Status == status && inRange(o.OrderTime, tr) {
			sum = sum.Add(o.Amount)
			matched = true
		}
	}
	// SQL SUM over zero rows is NULL, not 0.
	return decimal.NullDecimal{Decimal: sum, Valid: matched}, nil
}

func (m *mockStats) Count(_ context.Context, tr order.TimeRange, status *order.Status) (int, error) {
	n := 0
	for _, o := range m.orders {
		if !inRange(o.OrderTime, tr) {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockStats) TopSales(_ context.Context, tr order.TimeRange, limit int) ([]order.SalesRank, error) {
	byID := make(map[int64]order.Order, len(m.orders))
	for _, o := range m.orders {
		byID[o.ID] = o
	}
	totals := make(map[string]int)
	for _, d := range m.details {
		o, ok := byID[d.OrderID]
		if !ok || o.Status != order.StatusCompleted || !inRange(o.OrderTime, tr) {
			continue
		}
		totals[d.Name] += d.Number
	}
	ranks := make([]order.SalesRank, 0, len(totals))
	for name, n := range totals {
		ranks = append(ranks, order.SalesRank{Name: name, Number: n})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Number != ranks[j].Number {
			return ranks[i].Number > ranks[j].Number
		}
		return ranks[i].Name < ranks[j].Name
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

type mockUsers struct {
	created []time.Time
}

func (m *mockUsers) CountCreatedBefore(_ context.Context, t time.Time) (int, error) {
	n := 0
	for _, c := range m.created {
		if !c.After(t) {
			n++
		}
	}
	return n, nil
}

func (m *mockUsers) CountCreatedBetween(_ context.Context, begin, end time.Time) (int, error) {
	n := 0
	for _, c := range m.created {
		if !c.Before(begin) && !c.After(end) {
			n++
		}
	}
	return n, nil
}

// --- Helpers ---

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour int) time.Time {
	return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
}

func completedOrder(t time.Time, amount string) order.Order {
	return order.Order{
		Status:    order.StatusCompleted,
		Amount:    decimal.RequireFromString(amount),
		OrderTime: t,
	}
}

func newReports(stats *mockStats, users *mockUsers) *Service {
	if stats == nil {
		stats = &mockStats{}
	}
	if users == nil {
		users = &mockUsers{}
	}
	return NewService(stats, users)
}

// --- Tests ---

func TestDateRange_SingleDay(t *testing.T) {
	dates := DateRange(day(5), day(5))
	require.Len(t, dates, 1)
	assert.Equal(t, day(5), dates[0])
}

func TestDateRange_StrictlyIncreasingByOneDay(t *testing.T) {
	dates := DateRange(day(1), day(7))
	require.Len(t, dates, 7)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i])
	}
}

func TestDateRange_ReversedRangeIsEmpty(t *testing.T) {
	assert.Empty(t, DateRange(day(7), day(1)))
}

func TestDayBucket_CoversWholeDay(t *testing.T) {
	bucket := DayBucket(at(5, 13))
	assert.Equal(t, day(5), bucket.Begin)
	assert.Equal(t, day(6).Add(-time.Nanosecond), bucket.End)
}

func TestTurnover_ZeroFillsEmptyDays(t *testing.T) {
	stats := &mockStats{orders: []order.Order{
		completedOrder(at(1, 12), "30.00"),
		completedOrder(at(1, 18), "12.50"),
		completedOrder(at(3, 9), "20.00"),
		// Not completed: must not count.
		{Status: order.StatusCancelled, Amount: decimal.RequireFromString("99.00"), OrderTime: at(2, 10)},
	}}
	svc := newReports(stats, nil)

	got, err := svc.Turnover(context.Background(), day(1), day(3))

	require.NoError(t, err)
	require.Len(t, got.Dates, 3)
	require.Len(t, got.Turnover, 3)
	assert.True(t, decimal.RequireFromString("42.50").Equal(got.Turnover[0]))
	assert.True(t, got.Turnover[1].IsZero(), "empty day must be exactly zero, not absent")
	assert.True(t, decimal.RequireFromString("20.00").Equal(got.Turnover[2]))
}

func TestUserGrowth_CumulativeAndNew(t *testing.T) {
	users := &mockUsers{created: []time.Time{
		at(-20, 10), // long before the range
		at(1, 9),
		at(1, 15),
		at(3, 8),
	}}
	svc := newReports(nil, users)

	got, err := svc.UserGrowth(context.Background(), day(1), day(3))

	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, got.NewUsers)
	assert.Equal(t, []int{3, 3, 4}, got.TotalUsers)
}

func TestOrderStats_TotalsMatchSeriesSums(t *testing.T) {
	stats := &mockStats{orders: []order.Order{
		completedOrder(at(1, 10), "10"),
		completedOrder(at(1, 11), "10"),
		{Status: order.StatusCancelled, Amount: decimal.New(1, 0), OrderTime: at(1, 12)},
		completedOrder(at(3, 10), "10"),
		{Status: order.StatusPendingPayment, Amount: decimal.New(1, 0), OrderTime: at(3, 11)},
	}}
	svc := newReports(stats, nil)

	got, err := svc.OrderStats(context.Background(), day(1), day(3))

	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 2}, got.OrderCounts)
	assert.Equal(t, []int{2, 0, 1}, got.ValidOrderCounts)

	sumAll, sumValid := 0, 0
	for i := range got.OrderCounts {
		sumAll += got.OrderCounts[i]
		sumValid += got.ValidOrderCounts[i]
	}
	assert.Equal(t, got.TotalOrderCount, sumAll)
	assert.Equal(t, got.ValidOrderCount, sumValid)
	assert.InDelta(t, 3.0/5.0, got.CompletionRate, 1e-9)
}

func TestOrderStats_EmptyRangeHasZeroCompletionRate(t *testing.T) {
	svc := newReports(nil, nil)

	got, err := svc.OrderStats(context.Background(), day(1), day(1))

	require.NoError(t, err)
	assert.Zero(t, got.TotalOrderCount)
	assert.Zero(t, got.ValidOrderCount)
	assert.Equal(t, 0.0, got.CompletionRate)
}

func TestTopSales_CapsAtTenNonIncreasing(t *testing.T) {
	stats := &mockStats{orders: []order.Order{
		{ID: 1, Status: order.StatusCompleted, OrderTime: at(5, 10)},
		{ID: 2, Status: order.StatusCancelled, OrderTime: at(5, 11)},
	}}
	for i := 0; i < 12; i++ {
		stats.details = append(stats.details, order.Detail{
			ID:      int64(i + 1),
			OrderID: 1,
			Name:    string(rune('a' + i)),
			Number:  120 - i*10,
		})
	}
	// Line items of a cancelled order never rank.
	stats.details = append(stats.details, order.Detail{ID: 13, OrderID: 2, Name: "zz", Number: 999})
	svc := newReports(stats, nil)

	got, err := svc.TopSales(context.Background(), day(1), day(31))

	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Names), 10)
	require.Equal(t, len(got.Names), len(got.Numbers))
	assert.Equal(t, "a", got.Names[0])
	assert.Equal(t, 120, got.Numbers[0])
	assert.NotContains(t, got.Names, "zz")
	for i := 1; i < len(got.Numbers); i++ {
		assert.GreaterOrEqual(t, got.Numbers[i-1], got.Numbers[i])
	}
}

func TestBusinessData_Overview(t *testing.T) {
	stats := &mockStats{orders: []order.Order{
		completedOrder(at(1, 10), "60.00"),
		completedOrder(at(2, 10), "40.00"),
		{Status: order.StatusCancelled, Amount: decimal.New(5, 0), OrderTime: at(2, 12)},
		{Status: order.StatusPendingPayment, Amount: decimal.New(5, 0), OrderTime: at(3, 9)},
	}}
	users := &mockUsers{created: []time.Time{at(1, 8), at(2, 8)}}
	svc := newReports(stats, users)

	got, err := svc.BusinessData(context.Background(), WindowBucket(day(1), day(3)))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.00").Equal(got.Turnover))
	assert.Equal(t, 2, got.ValidOrderCount)
	assert.InDelta(t, 0.5, got.CompletionRate, 1e-9)
	assert.True(t, decimal.RequireFromString("50.00").Equal(got.UnitPrice))
	assert.Equal(t, 2, got.NewUsers)
}

func TestBusinessData_EmptyRangeIsAllZeros(t *testing.T) {
	svc := newReports(nil, nil)

	got, err := svc.BusinessData(context.Background(), WindowBucket(day(1), day(1)))

	require.NoError(t, err)
	assert.True(t, got.Turnover.IsZero())
	assert.Zero(t, got.ValidOrderCount)
	assert.Equal(t, 0.0, got.CompletionRate)
	assert.True(t, got.UnitPrice.IsZero())
	assert.Zero(t, got.NewUsers)
}
