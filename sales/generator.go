/*
generator.go - Sales report generation

PURPOSE:
  Turns paid orders into a Report for a (type, date range) pair and keeps
  exactly one stored Report per (type, start day, end day).

FLOW:
  1. Build the CacheKey (days in the generator's location)
  2. Look for a stored report matching the key
  3. Compute every metric from the order store
  4. Update the match in place or insert a new report
  5. Re-read the stored report by id and return it

WINDOWS:
  totalSales        all paid orders ever
  dailySales        paid orders of the current calendar month, per day
  totalOrders       paid orders with UpdatedAt in [start, end]
  salesByCategory   same orders, per menu category
  monthlySalesData  yearly: [start, end]; otherwise the calendar year of start

  The non-yearly monthly window always uses start's year, so a custom range
  crossing New Year only charts the first year.

FAILURE:
  All reads happen before the single write. A failing read leaves the store
  untouched.

SEE ALSO:
  - store.go: OrderStore / ReportStore
  - period.go: CacheKey and calendar helpers
*/
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator produces and caches sales reports.
type Generator struct {
	Orders  OrderStore
	Reports ReportStore

	// Location decides where calendar days start for cache keys and
	// for the current-month window.
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
	Log      logrus.FieldLogger
}

type GeneratorOption func(*Generator)

func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) {
		if loc != nil {
			g.Location = loc
		}
	}
}

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.Now = now }
}

func WithIDGenerator(fn func() string) GeneratorOption {
	return func(g *Generator) { g.NewID = fn }
}

func WithLogger(log logrus.FieldLogger) GeneratorOption {
	return func(g *Generator) { g.Log = log }
}

// NewGenerator creates a generator with UTC days, the wall clock and random ids.
func NewGenerator(orders OrderStore, reports ReportStore, opts ...GeneratorOption) *Generator {
	g := &Generator{
		Orders:   orders,
		Reports:  reports,
		Location: time.UTC,
		Now:      time.Now,
		NewID:    func() string { return uuid.NewString() },
		Log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate computes the report for [start, end] and stores it, replacing the
// data of an existing report that covers the same days.
func (g *Generator) Generate(ctx context.Context, start, end time.Time, typ ReportType) (*Report, error) {
	if _, err := ParseReportType(string(typ)); err != nil {
		return nil, err
	}
	rng := DateRange{Start: start, End: end}
	if !rng.Valid() {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	key := NewCacheKey(typ, start, end, g.Location)
	existing, err := g.Reports.FindReport(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup report %s: %w", key, err)
	}

	comp, err := g.Compute(ctx, rng, typ)
	if err != nil {
		return nil, err
	}

	var report Report
	if existing != nil {
		report = *existing
		report.DateRange = rng
		comp.apply(&report)
		if err := g.Reports.UpdateReport(ctx, report); err != nil {
			return nil, fmt.Errorf("update report %s: %w", report.ID, err)
		}
	} else {
		report = Report{
			ID:        g.NewID(),
			Type:      typ,
			DateRange: rng,
			CreatedAt: g.Now(),
		}
		comp.apply(&report)
		if err := g.Reports.InsertReport(ctx, report); err != nil {
			return nil, fmt.Errorf("insert report: %w", err)
		}
	}

	stored, err := g.Reports.GetReport(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("reload report %s: %w", report.ID, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("reload report %s: %w", report.ID, ErrReportNotFound)
	}

	g.Log.WithFields(logrus.Fields{
		"report_id":   stored.ID,
		"report_type": typ,
		"range":       key.String(),
		"orders":      stored.TotalOrders,
		"updated":     existing != nil,
	}).Info("sales report generated")
	return stored, nil
}

// =============================================================================
// COMPUTE
// =============================================================================

// Compute derives every report metric without writing anything.
func (g *Generator) Compute(ctx context.Context, rng DateRange, typ ReportType) (Computation, error) {
	loc := g.location()
	now := g.Now().In(loc)
	month := DateRange{Start: StartOfMonth(now), End: EndOfMonth(now)}
	yearWindow := monthlyWindow(rng, typ, loc)

	var (
		allPaid      []Order
		monthOrders  []Order
		dailyBuckets []BucketSum
		periodOrders []ResolvedOrder
		monthBuckets []BucketSum
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if allPaid, err = g.Orders.FindOrders(ctx, PaidOrders()); err != nil {
			return fmt.Errorf("load paid orders: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if monthOrders, err = g.Orders.FindOrders(ctx, PaidOrdersIn(month)); err != nil {
			return fmt.Errorf("load current month orders: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if dailyBuckets, err = g.Orders.SumByDatePart(ctx, PaidOrdersIn(month), ByDay, loc); err != nil {
			return fmt.Errorf("sum daily sales: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if periodOrders, err = g.Orders.FindResolvedOrders(ctx, PaidOrdersIn(rng)); err != nil {
			return fmt.Errorf("load period orders: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if monthBuckets, err = g.Orders.SumByDatePart(ctx, PaidOrdersIn(yearWindow), ByMonth, loc); err != nil {
			return fmt.Errorf("sum monthly sales: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Computation{}, err
	}

	comp := Computation{
		TotalSales:        RoundCurrency(SumTotals(allPaid)),
		CurrentMonthSales: RoundCurrency(SumTotals(monthOrders)),
		TotalOrders:       len(periodOrders),
		DailySales:        dailySales(dailyBuckets),
		SalesByCategory:   CategoryRollup(periodOrders),
		MonthlySalesData:  MonthlySeries(monthBuckets),
		Details:           g.details(periodOrders),
	}
	if typ == ReportMonthly {
		comp.MonthlySalesData = CollapseToMonth(comp.MonthlySalesData, rng.Start.In(loc).Month())
	}
	return comp, nil
}

func (g *Generator) location() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

// monthlyWindow is [start, end] for yearly reports and the calendar year of
// start in loc otherwise.
func monthlyWindow(rng DateRange, typ ReportType, loc *time.Location) DateRange {
	if typ == ReportYearly {
		return rng
	}
	start := rng.Start.In(loc)
	return DateRange{Start: StartOfYear(start), End: EndOfYear(start)}
}

// =============================================================================
// AGGREGATIONS
// =============================================================================

func dailySales(buckets []BucketSum) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(buckets))
	for _, b := range buckets {
		out[b.Key.DayKey()] = RoundCurrency(b.Amount)
	}
	return out
}

// CategoryRollup sums quantity and amount per menu category. Line items whose
// menu item or category is gone are skipped. Amounts are rounded once at the end.
func CategoryRollup(orders []ResolvedOrder) map[string]CategorySales {
	out := make(map[string]CategorySales)
	for _, o := range orders {
		for _, line := range o.Lines {
			if line.Broken() || line.Menu.CategoryID == "" {
				continue
			}
			cs := out[line.Menu.CategoryID]
			cs.Quantity += line.Quantity
			cs.Amount = cs.Amount.Add(line.UnitPrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
			out[line.Menu.CategoryID] = cs
		}
	}
	for id, cs := range out {
		cs.Amount = RoundCurrency(cs.Amount)
		out[id] = cs
	}
	return out
}

// MonthlySeries produces twelve entries, "01" through "12", summing buckets
// by calendar month. Months without sales are zero.
func MonthlySeries(buckets []BucketSum) []MonthlySales {
	var sums [12]decimal.Decimal
	for i := range sums {
		sums[i] = decimal.Zero
	}
	for _, b := range buckets {
		if b.Key.Month < time.January || b.Key.Month > time.December {
			continue
		}
		sums[b.Key.Month-1] = sums[b.Key.Month-1].Add(b.Amount)
	}
	out := make([]MonthlySales, 12)
	for i := range out {
		out[i] = MonthlySales{
			Month:  BucketKey{Month: time.Month(i + 1)}.MonthKey(),
			Amount: RoundCurrency(sums[i]),
		}
	}
	return out
}

// CollapseToMonth keeps only the entry of the given month.
func CollapseToMonth(series []MonthlySales, m time.Month) []MonthlySales {
	want := BucketKey{Month: m}.MonthKey()
	out := make([]MonthlySales, 0, 1)
	for _, s := range series {
		if s.Month == want {
			out = append(out, s)
		}
	}
	return out
}

func (g *Generator) details(orders []ResolvedOrder) []ReportDetail {
	out := make([]ReportDetail, 0, len(orders))
	for _, o := range orders {
		out = append(out, ReportDetail{
			ID:      g.NewID(),
			OrderID: o.ID,
			Amount:  RoundCurrency(o.TotalAmount),
			Items:   len(o.Items),
			Date:    o.CreatedAt,
		})
	}
	return out
}
