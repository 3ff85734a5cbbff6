package sales

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT TYPE
// =============================================================================

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
	ReportCustom  ReportType = "custom"
)

// ParseReportType validates a report type coming from outside the process.
func ParseReportType(s string) (ReportType, error) {
	switch t := ReportType(s); t {
	case ReportDaily, ReportMonthly, ReportYearly, ReportCustom:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReportType, s)
}

// =============================================================================
// REPORT - Persisted aggregation
// =============================================================================

// CategorySales is the rollup of one category over the report's range.
type CategorySales struct {
	Quantity int
	Amount   decimal.Decimal
}

// MonthlySales holds one calendar month. Month is zero padded ("01".."12").
type MonthlySales struct {
	Month  string
	Amount decimal.Decimal
}

// ReportDetail is one paid order inside the report's range.
type ReportDetail struct {
	ID      string
	OrderID string
	Amount  decimal.Decimal
	Items   int
	Date    time.Time
}

// Report is the cached aggregation stored per (type, start day, end day).
//
// TotalSales covers every paid order ever recorded and DailySales always
// covers the current calendar month, whatever DateRange says.
type Report struct {
	ID               string
	Type             ReportType
	DateRange        DateRange
	TotalSales       decimal.Decimal
	TotalOrders      int
	DailySales       map[string]decimal.Decimal
	SalesByCategory  map[string]CategorySales
	MonthlySalesData []MonthlySales
	Details          []ReportDetail
	CreatedAt        time.Time
}

// Summary is the list projection of the report.
func (r Report) Summary() ReportSummary {
	return ReportSummary{
		ID:          r.ID,
		Type:        r.Type,
		DateRange:   r.DateRange,
		TotalSales:  r.TotalSales,
		TotalOrders: r.TotalOrders,
		CreatedAt:   r.CreatedAt,
	}
}

// DailyKeys returns the dailySales keys in ascending order.
func (r Report) DailyKeys() []string {
	keys := make([]string, 0, len(r.DailySales))
	for k := range r.DailySales {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CategoryKeys returns the salesByCategory keys in ascending order.
func (r Report) CategoryKeys() []string {
	keys := make([]string, 0, len(r.SalesByCategory))
	for k := range r.SalesByCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReportSummary is what report listings return.
type ReportSummary struct {
	ID          string
	Type        ReportType
	DateRange   DateRange
	TotalSales  decimal.Decimal
	TotalOrders int
	CreatedAt   time.Time
}

// =============================================================================
// COMPUTATION - Everything derived in one generation pass
// =============================================================================

// Computation is the in-memory result of a generation pass before it is
// written. CurrentMonthSales is informational and is not persisted.
type Computation struct {
	TotalSales        decimal.Decimal
	CurrentMonthSales decimal.Decimal
	TotalOrders       int
	DailySales        map[string]decimal.Decimal
	SalesByCategory   map[string]CategorySales
	MonthlySalesData  []MonthlySales
	Details           []ReportDetail
}

// apply copies the computed fields onto r, leaving identity fields alone.
func (c Computation) apply(r *Report) {
	r.TotalSales = c.TotalSales
	r.TotalOrders = c.TotalOrders
	r.DailySales = c.DailySales
	r.SalesByCategory = c.SalesByCategory
	r.MonthlySalesData = c.MonthlySalesData
	r.Details = c.Details
}
