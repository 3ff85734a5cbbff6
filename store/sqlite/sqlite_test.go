package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

// seedMarch stores two categories, two menu items and one paid order on 2024-03-05.
func seedMarch(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, sales.Category{ID: "X", Name: "Mains", IsActive: true, CreatedAt: utc(2024, 1, 1, 0)}))
	require.NoError(t, s.CreateCategory(ctx, sales.Category{ID: "Y", Name: "Drinks", IsActive: true, CreatedAt: utc(2024, 1, 1, 0)}))
	require.NoError(t, s.CreateMenuItem(ctx, sales.MenuItem{ID: "A", Name: "Pasta", Price: dec("5"), CategoryID: "X", CreatedAt: utc(2024, 1, 2, 0)}))
	require.NoError(t, s.CreateMenuItem(ctx, sales.MenuItem{ID: "B", Name: "Tea", Price: dec("2.5"), CategoryID: "Y", CreatedAt: utc(2024, 1, 3, 0)}))
	require.NoError(t, s.CreateOrder(ctx, sales.Order{
		ID:      "o1",
		TableID: "T1",
		Items: []sales.LineItem{
			{ID: "i1", MenuItemID: "A", Quantity: 2},
			{ID: "i2", MenuItemID: "B", Quantity: 1},
		},
		TotalAmount: dec("12.50"),
		Status:      sales.StatusPaid,
		CreatedAt:   utc(2024, 3, 5, 11),
		UpdatedAt:   utc(2024, 3, 5, 12),
	}))
}

// =============================================================================
// ORDERS
// =============================================================================

func TestOrders_RoundTripAndResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T1", got.TableID)
	assert.Equal(t, "12.5", got.TotalAmount.String())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "A", got.Items[0].MenuItemID)
	assert.Equal(t, utc(2024, 3, 5, 12), got.UpdatedAt)

	missing, err := s.GetOrder(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrders_DeletedMenuItemResolvesToNil(t *testing.T) {
	// GIVEN: An order referencing menu item B
	// WHEN: B is deleted
	// THEN: The order keeps its line item but B resolves to nil

	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)

	ok, err := s.DeleteMenuItem(ctx, "B")
	require.NoError(t, err)
	require.True(t, ok)

	orders, err := s.FindResolvedOrders(ctx, sales.PaidOrders())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 2)
	assert.NotNil(t, orders[0].Lines[0].Menu)
	assert.True(t, orders[0].Lines[1].Broken())
}

func TestOrders_FilterByStatusTableAndWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)
	require.NoError(t, s.CreateOrder(ctx, sales.Order{
		ID: "o2", TableID: "T2", TotalAmount: dec("3"), Status: sales.StatusPreparing,
		CreatedAt: utc(2024, 3, 6, 10), UpdatedAt: utc(2024, 3, 6, 10),
	}))

	unpaid, err := s.FindOrders(ctx, sales.OrderFilter{NotStatus: sales.StatusPaid})
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "o2", unpaid[0].ID)

	table, err := s.FindOrders(ctx, sales.OrderFilter{TableID: "T1"})
	require.NoError(t, err)
	assert.Len(t, table, 1)

	april := sales.MonthRange(2024, time.April, time.UTC)
	none, err := s.FindOrders(ctx, sales.PaidOrdersIn(april))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrders_UpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)

	now := utc(2024, 3, 7, 9)
	updated, err := s.UpdateOrderStatus(ctx, "o1", sales.StatusDelivered, now)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, sales.StatusDelivered, updated.Status)
	assert.Equal(t, now, updated.UpdatedAt)

	missing, err := s.UpdateOrderStatus(ctx, "nope", sales.StatusPaid, now)
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := s.DeleteOrder(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, deleted)

	all, err := s.FindOrders(ctx, sales.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSumByDatePart_DayAndMonth(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)
	for i, at := range []time.Time{utc(2024, 3, 5, 20), utc(2024, 4, 1, 9)} {
		require.NoError(t, s.CreateOrder(ctx, sales.Order{
			ID: []string{"o2", "o3"}[i], TableID: "T1", TotalAmount: dec("1.005"),
			Status: sales.StatusPaid, CreatedAt: at, UpdatedAt: at,
		}))
	}

	days, err := s.SumByDatePart(ctx, sales.PaidOrders(), sales.ByDay, time.UTC)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-05", days[0].Key.DayKey())
	assert.Equal(t, "13.505", days[0].Amount.String())
	assert.Equal(t, 2, days[0].Count)

	months, err := s.SumByDatePart(ctx, sales.PaidOrders(), sales.ByMonth, time.UTC)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, time.March, months[0].Key.Month)
	assert.Equal(t, 0, months[0].Key.Day)
	assert.Equal(t, "1.005", months[1].Amount.String())
}

func TestSumByDatePart_BucketsInLocation(t *testing.T) {
	// GIVEN: An order paid at 2023-12-31 16:00 UTC, already New Year in Tokyo
	ctx := context.Background()
	s := newTestStore(t)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	paid := time.Date(2024, time.January, 1, 1, 0, 0, 0, tokyo)
	require.NoError(t, s.CreateOrder(ctx, sales.Order{
		ID: "o-ny", TableID: "T1", TotalAmount: dec("5"),
		Status: sales.StatusPaid, CreatedAt: paid, UpdatedAt: paid,
	}))

	// WHEN: Summing by day and by month on the Tokyo calendar
	days, err := s.SumByDatePart(ctx, sales.PaidOrders(), sales.ByDay, tokyo)
	require.NoError(t, err)
	months, err := s.SumByDatePart(ctx, sales.PaidOrders(), sales.ByMonth, tokyo)
	require.NoError(t, err)

	// THEN: The order lands on January 1st 2024, not December 31st
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-01", days[0].Key.DayKey())
	require.Len(t, months, 1)
	assert.Equal(t, sales.BucketKey{Year: 2024, Month: time.January}, months[0].Key)

	// The UTC calendar still sees the old year
	utcDays, err := s.SumByDatePart(ctx, sales.PaidOrders(), sales.ByDay, time.UTC)
	require.NoError(t, err)
	require.Len(t, utcDays, 1)
	assert.Equal(t, "2023-12-31", utcDays[0].Key.DayKey())
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalog_CategoriesAndMenu(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)
	require.NoError(t, s.CreateCategory(ctx, sales.Category{ID: "Z", Name: "Old", IsActive: false, CreatedAt: utc(2024, 1, 1, 0)}))

	active, err := s.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := s.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := s.CountMenuItems(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	menu, err := s.ListMenuItems(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "B", menu[0].ID, "newest first")

	found, err := s.MenuItemsByID(ctx, []string{"A", "ghost"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "5", found["A"].Price.String())

	ok, err := s.UpdateMenuItem(ctx, sales.MenuItem{ID: "A", Name: "Pasta", Price: dec("6.5"), CategoryID: "X"})
	require.NoError(t, err)
	assert.True(t, ok)
	a, err := s.GetMenuItem(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "6.5", a.Price.String())
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestRecordPayment_MarksOrdersPaid(t *testing.T) {
	// GIVEN: Two unpaid orders on table T9
	// WHEN: Recording a payment for both
	// THEN: Both are paid at the payment instant and amounts are rounded

	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"u1", "u2"} {
		require.NoError(t, s.CreateOrder(ctx, sales.Order{
			ID: id, TableID: "T9", TotalAmount: dec("4"), Status: sales.StatusDelivered,
			CreatedAt: utc(2024, 3, 5, 10), UpdatedAt: utc(2024, 3, 5, 10),
		}))
	}

	at := utc(2024, 3, 5, 13)
	updated, err := s.RecordPayment(ctx, sales.Payment{
		ID: "p1", OrderID: "u1", TableID: "T9",
		TotalAmount: dec("8.004"), AmountPaid: dec("10"), Change: dec("1.996"),
		Method: sales.PaymentCash, CreatedAt: at,
	}, []string{"u1", "u2"}, at)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, o := range updated {
		assert.Equal(t, sales.StatusPaid, o.Status)
		assert.Equal(t, at, o.UpdatedAt)
	}

	p, err := s.GetPayment(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "8", p.TotalAmount.String())
	assert.Equal(t, "2", p.Change.String())
	assert.Equal(t, []string{"u1", "u2"}, p.RelatedOrders)
	assert.Equal(t, sales.PaymentPending, p.Status)

	cash, err := s.ListPayments(ctx, sales.PaymentFilter{Method: sales.PaymentCash})
	require.NoError(t, err)
	assert.Len(t, cash, 1)

	from := utc(2024, 3, 6, 0)
	later, err := s.ListPayments(ctx, sales.PaymentFilter{CreatedFrom: &from})
	require.NoError(t, err)
	assert.Empty(t, later)
}

// =============================================================================
// ADMINS
// =============================================================================

func TestAdmins_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := auth.Admin{ID: "a1", Username: "manager", PasswordHash: "h", CreatedAt: utc(2024, 1, 1, 0)}
	require.NoError(t, s.CreateAdmin(ctx, a))
	err := s.CreateAdmin(ctx, auth.Admin{ID: "a2", Username: "manager", PasswordHash: "h", CreatedAt: utc(2024, 1, 1, 0)})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	got, err := s.GetAdminByUsername(ctx, "manager")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a1", got.ID)

	none, err := s.GetAdmin(ctx, "a2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_GenerateAgainstSQLite(t *testing.T) {
	// GIVEN: The March 2024 fixture in SQLite
	// WHEN: Generating the monthly report twice with different times of day
	// THEN: One stored report, reloaded with exact amounts and ordering

	ctx := context.Background()
	s := newTestStore(t)
	seedMarch(t, s)

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)
	gen := sales.NewGenerator(s, s,
		sales.WithClock(func() time.Time { return utc(2024, 3, 20, 9) }),
		sales.WithLogger(quiet),
	)

	rng := sales.MonthRange(2024, time.March, time.UTC)
	first, err := gen.Generate(ctx, rng.Start, rng.End, sales.ReportMonthly)
	require.NoError(t, err)
	second, err := gen.Generate(ctx, rng.Start.Add(9*time.Hour), rng.End, sales.ReportMonthly)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, rng.Start.Add(9*time.Hour), second.DateRange.Start)
	assert.Equal(t, 1, second.TotalOrders)
	assert.Equal(t, "10", second.SalesByCategory["X"].Amount.String())
	assert.Equal(t, 2, second.SalesByCategory["X"].Quantity)
	assert.Equal(t, "2.5", second.SalesByCategory["Y"].Amount.String())
	require.Len(t, second.MonthlySalesData, 1)
	assert.Equal(t, "03", second.MonthlySalesData[0].Month)
	assert.Equal(t, "12.5", second.DailySales["2024-03-05"].String())
	require.Len(t, second.Details, 1)
	assert.Equal(t, utc(2024, 3, 5, 11), second.Details[0].Date)

	list, err := s.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sales.ReportMonthly, list[0].Type)
}

func TestReports_FindReportDayWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := sales.Report{
		ID:        "r1",
		Type:      sales.ReportCustom,
		DateRange: sales.DateRange{Start: utc(2024, 3, 1, 23), End: utc(2024, 3, 10, 0)},
		CreatedAt: utc(2024, 3, 20, 0),
	}
	require.NoError(t, s.InsertReport(ctx, r))

	hit, err := s.FindReport(ctx, sales.NewCacheKey(sales.ReportCustom, utc(2024, 3, 1, 0), utc(2024, 3, 10, 18), time.UTC))
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "r1", hit.ID)

	miss, err := s.FindReport(ctx, sales.NewCacheKey(sales.ReportCustom, utc(2024, 3, 2, 0), utc(2024, 3, 10, 0), time.UTC))
	require.NoError(t, err)
	assert.Nil(t, miss)

	err = s.UpdateReport(ctx, sales.Report{ID: "ghost"})
	assert.ErrorIs(t, err, sales.ErrReportNotFound)
}
