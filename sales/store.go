/*
store.go - Persistence interfaces for the sales engine and the POS records

PURPOSE:
  Defines the boundary between the domain logic and the database. The
  Generator only needs OrderStore and ReportStore; the HTTP layer also
  needs the catalog, order and payment write paths.

KEY INTERFACES:
  OrderStore:   Read side of paid orders (filter, resolve, grouped sums)
  ReportStore:  Cached reports keyed by CacheKey
  OrderWriter:  Order lifecycle (create, status change, delete)
  CatalogStore: Categories and menu items
  PaymentStore: Payments and table settlement

NOT FOUND CONTRACT:
  Single-record getters return (nil, nil) when the record does not exist.
  Callers translate that into ErrXxxNotFound where it matters.

DATE BUCKETS:
  SumByDatePart groups by the calendar parts of UpdatedAt as seen in the
  report location, the same calendar the report windows use. BucketOf is
  the single definition every implementation shares.

IMPLEMENTATIONS:
  - sales/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite
  - store/mongo/mongo.go: MongoDB

SEE ALSO:
  - generator.go: Main consumer of OrderStore and ReportStore
*/
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER FILTER
// =============================================================================

// OrderFilter selects orders. Zero fields are ignored.
type OrderFilter struct {
	Status        OrderStatus
	NotStatus     OrderStatus
	TableID       string
	UpdatedWithin *DateRange
}

// PaidOrders selects every paid order.
func PaidOrders() OrderFilter {
	return OrderFilter{Status: StatusPaid}
}

// PaidOrdersIn selects paid orders whose UpdatedAt falls in r.
func PaidOrdersIn(r DateRange) OrderFilter {
	return OrderFilter{Status: StatusPaid, UpdatedWithin: &r}
}

// Matches reports whether o passes the filter.
func (f OrderFilter) Matches(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.NotStatus != "" && o.Status == f.NotStatus {
		return false
	}
	if f.TableID != "" && o.TableID != f.TableID {
		return false
	}
	if f.UpdatedWithin != nil && !f.UpdatedWithin.Contains(o.UpdatedAt) {
		return false
	}
	return true
}

// =============================================================================
// DATE BUCKETS
// =============================================================================

// DateParts chooses the grouping granularity of SumByDatePart.
type DateParts int

const (
	ByDay DateParts = iota
	ByMonth
)

// BucketKey is a calendar bucket. Day is zero for ByMonth.
type BucketKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKey formats the bucket as YYYY-MM-DD.
func (k BucketKey) DayKey() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// MonthKey formats the month as "01".."12".
func (k BucketKey) MonthKey() string {
	return fmt.Sprintf("%02d", int(k.Month))
}

// BucketSum is the unrounded total of one bucket.
type BucketSum struct {
	Key    BucketKey
	Amount decimal.Decimal
	Count  int
}

// BucketOf returns the bucket t belongs to on the calendar of loc.
// A nil loc means UTC.
func BucketOf(t time.Time, parts DateParts, loc *time.Location) BucketKey {
	if loc == nil {
		loc = time.UTC
	}
	u := t.In(loc)
	k := BucketKey{Year: u.Year(), Month: u.Month()}
	if parts == ByDay {
		k.Day = u.Day()
	}
	return k
}

// SumBuckets groups orders by UpdatedAt and sums TotalAmount per bucket.
// The result is ordered chronologically.
func SumBuckets(orders []Order, parts DateParts, loc *time.Location) []BucketSum {
	idx := make(map[BucketKey]int)
	var out []BucketSum
	for _, o := range orders {
		k := BucketOf(o.UpdatedAt, parts, loc)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, BucketSum{Key: k, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(o.TotalAmount)
		out[i].Count++
	}
	SortBuckets(out)
	return out
}

// SortBuckets orders buckets chronologically in place.
func SortBuckets(b []BucketSum) {
	sort.Slice(b, func(i, j int) bool {
		a, c := b[i].Key, b[j].Key
		if a.Year != c.Year {
			return a.Year < c.Year
		}
		if a.Month != c.Month {
			return a.Month < c.Month
		}
		return a.Day < c.Day
	})
}

// =============================================================================
// STORES CONSUMED BY THE GENERATOR
// =============================================================================

// OrderStore is the read side of orders. Results are ordered by CreatedAt.
type OrderStore interface {
	FindOrders(ctx context.Context, f OrderFilter) ([]Order, error)

	// FindResolvedOrders joins every line item with its menu item.
	// A line item whose menu item is gone gets a nil Menu.
	FindResolvedOrders(ctx context.Context, f OrderFilter) ([]ResolvedOrder, error)

	// SumByDatePart sums TotalAmount per calendar bucket of UpdatedAt in loc.
	SumByDatePart(ctx context.Context, f OrderFilter, parts DateParts, loc *time.Location) ([]BucketSum, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	// FindReport returns the report matching key, or nil.
	FindReport(ctx context.Context, key CacheKey) (*Report, error)
	InsertReport(ctx context.Context, r Report) error
	// UpdateReport overwrites the report with the same ID.
	UpdateReport(ctx context.Context, r Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	// ListReports returns summaries, newest first.
	ListReports(ctx context.Context) ([]ReportSummary, error)
}

// =============================================================================
// STORES CONSUMED BY THE HTTP LAYER
// =============================================================================

type OrderWriter interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	// UpdateOrderStatus sets status and UpdatedAt and returns the new order,
	// or nil when it does not exist.
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus, at time.Time) (*Order, error)
	DeleteOrder(ctx context.Context, id string) (bool, error)
}

type CatalogStore interface {
	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	UpdateCategory(ctx context.Context, c Category) (bool, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
	CountMenuItems(ctx context.Context, categoryID string) (int, error)

	CreateMenuItem(ctx context.Context, m MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
	UpdateMenuItem(ctx context.Context, m MenuItem) (bool, error)
	DeleteMenuItem(ctx context.Context, id string) (bool, error)
	// MenuItemsByID returns the subset of ids that exist, keyed by id.
	MenuItemsByID(ctx context.Context, ids []string) (map[string]MenuItem, error)
}

type PaymentStore interface {
	// RecordPayment stores p and marks orderIDs paid at the given instant.
	// It returns the updated orders.
	RecordPayment(ctx context.Context, p Payment, orderIDs []string, at time.Time) ([]Order, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	// ListPayments returns matching payments, newest first.
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
}
