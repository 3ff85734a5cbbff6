/*
reports_test.go - HTTP tests for the sales report endpoints

Tests for:
- Monthly, yearly, custom and current-month generation
- One stored report per (type, start day, end day)
- Parameter validation
- CSV download
*/
package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

type salesFixture struct {
	drinks, pastries CategoryDTO
	latte, croissant MenuItemDTO
}

// seedSales records three paid tables and one open table:
//
//	2024-02-20  T3  1 latte                 4.50  paid
//	2024-03-02  T1  2 latte                 9.00  paid
//	2024-03-10  T2  1 latte + 1 croissant   7.75  paid
//	2024-03-12  T4  1 croissant             3.25  open
//
// The clock is left at 2024-03-15 12:00 UTC.
func seedSales(env *testEnv) salesFixture {
	env.t.Helper()
	var f salesFixture
	f.drinks = env.createCategory("Drinks")
	f.pastries = env.createCategory("Pastries")
	f.latte = env.createMenuItem("Latte", 4.5, f.drinks.ID)
	f.croissant = env.createMenuItem("Croissant", 3.25, f.pastries.ID)

	paidTable := func(table string, placed time.Time, items ...OrderItemRequest) {
		env.now = placed
		env.placeOrder(table, items...)
		env.now = placed.Add(30 * time.Minute)
		env.settle(table, "card")
	}
	paidTable("T3", time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC), line(f.latte.ID, 1))
	paidTable("T1", time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), line(f.latte.ID, 2))
	paidTable("T2", time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), line(f.croissant.ID, 1), line(f.latte.ID, 1))

	env.now = time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	env.placeOrder("T4", line(f.croissant.ID, 1))

	env.now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return f
}

func TestMonthlyReport(t *testing.T) {
	// GIVEN: Paid orders in February and March
	env := newTestEnv(t)
	f := seedSales(env)

	// WHEN: Generating the March report
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/monthly?year=2024&month=03", nil, http.StatusOK, &r)

	// THEN: Period metrics only count March, totalSales counts everything paid
	assert.Equal(t, "monthly", r.Type)
	assert.Equal(t, "2024-03-01T00:00:00Z", r.DateRange.Start)
	assert.Equal(t, "2024-03-31T23:59:59.999999999Z", r.DateRange.End)
	assert.Equal(t, 2, r.TotalOrders)
	assert.Equal(t, 21.25, r.TotalSales)
	assert.Equal(t, map[string]CategorySalesDTO{
		f.drinks.ID:   {Quantity: 3, Amount: 13.5},
		f.pastries.ID: {Quantity: 1, Amount: 3.25},
	}, r.SalesByCategory)
	assert.Equal(t, []MonthlySalesDTO{{Month: "03", Amount: 16.75}}, r.MonthlySalesData)
	assert.Equal(t, map[string]float64{"2024-03-02": 9, "2024-03-10": 7.75}, r.DailySales)
	assert.Len(t, r.Details, 2)

	// An event announces the report
	evts := env.events.Events()
	last := evts[len(evts)-1]
	assert.Equal(t, events.ReportGenerated, last.RoutingKey)
	assert.Equal(t, r.ID, last.Payload.(events.ReportGeneratedEvent).ReportID)
}

func TestMonthlyReport_RegenerateUpdatesInPlace(t *testing.T) {
	// GIVEN: A generated March report
	env := newTestEnv(t)
	f := seedSales(env)
	var first ReportDTO
	env.call(http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil, http.StatusOK, &first)

	// WHEN: The open table pays and the report is requested again
	env.settle("T4", "cash")
	var second ReportDTO
	env.call(http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil, http.StatusOK, &second)

	// THEN: The same stored report carries the new numbers
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.TotalOrders)
	assert.Equal(t, 24.5, second.TotalSales)
	assert.Equal(t, CategorySalesDTO{Quantity: 2, Amount: 6.5}, second.SalesByCategory[f.pastries.ID])

	var summaries []ReportSummaryDTO
	env.call(http.MethodGet, "/api/reports", nil, http.StatusOK, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, first.ID, summaries[0].ID)

	var stored ReportDTO
	env.call(http.MethodGet, "/api/reports/"+first.ID, nil, http.StatusOK, &stored)
	assert.Equal(t, 3, stored.TotalOrders)
}

func TestYearlyReport(t *testing.T) {
	env := newTestEnv(t)
	seedSales(env)

	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/yearly?year=2024", nil, http.StatusOK, &r)

	assert.Equal(t, "yearly", r.Type)
	assert.Equal(t, 3, r.TotalOrders)
	require.Len(t, r.MonthlySalesData, 12)
	assert.Equal(t, MonthlySalesDTO{Month: "01", Amount: 0}, r.MonthlySalesData[0])
	assert.Equal(t, MonthlySalesDTO{Month: "02", Amount: 4.5}, r.MonthlySalesData[1])
	assert.Equal(t, MonthlySalesDTO{Month: "03", Amount: 16.75}, r.MonthlySalesData[2])
}

func TestCustomReport(t *testing.T) {
	// GIVEN: Paid orders in February and March
	env := newTestEnv(t)
	seedSales(env)

	// WHEN: Asking for February only
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/custom?startDate=2024-02-01&endDate=2024-02-29", nil, http.StatusOK, &r)

	// THEN: One order in the period; the monthly series covers the year of start
	assert.Equal(t, "custom", r.Type)
	assert.Equal(t, "2024-02-29T23:59:59.999999999Z", r.DateRange.End)
	assert.Equal(t, 1, r.TotalOrders)
	require.Len(t, r.MonthlySalesData, 12)
	assert.Equal(t, 4.5, r.MonthlySalesData[1].Amount)
	assert.Equal(t, 16.75, r.MonthlySalesData[2].Amount)

	// dailySales always describes the current month
	assert.Equal(t, map[string]float64{"2024-03-02": 9, "2024-03-10": 7.75}, r.DailySales)
}

func TestCurrentMonthReport(t *testing.T) {
	env := newTestEnv(t)
	seedSales(env)

	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/current-month", nil, http.StatusOK, &r)

	assert.Equal(t, "monthly", r.Type)
	assert.Equal(t, "2024-03-01T00:00:00Z", r.DateRange.Start)
	assert.Equal(t, "2024-03-15T12:00:00Z", r.DateRange.End)
	assert.Equal(t, 2, r.TotalOrders)

	// Same days, later in the day: still the same report
	env.now = env.now.Add(3 * time.Hour)
	var again ReportDTO
	env.call(http.MethodGet, "/api/reports/current-month", nil, http.StatusOK, &again)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, "2024-03-15T15:00:00Z", again.DateRange.End)
}

func TestReports_BadParameters(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		status int
		errMsg string
	}{
		{"month out of range", "/api/reports/monthly?year=2024&month=13", http.StatusBadRequest, "Invalid month"},
		{"missing year", "/api/reports/monthly?month=3", http.StatusBadRequest, "Invalid year"},
		{"yearly not a number", "/api/reports/yearly?year=twenty", http.StatusBadRequest, "Invalid year"},
		{"bad start date", "/api/reports/custom?startDate=03/01/2024&endDate=2024-03-05", http.StatusBadRequest, "Invalid date format"},
		{"missing end date", "/api/reports/custom?startDate=2024-03-01", http.StatusBadRequest, "Invalid date format"},
		{"end before start", "/api/reports/custom?startDate=2024-03-10&endDate=2024-03-01", http.StatusBadRequest, "Failed to generate custom report"},
		{"unknown report", "/api/reports/missing", http.StatusNotFound, "Report not found"},
		{"unknown download", "/api/reports/download/missing", http.StatusNotFound, "Report not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.send(http.MethodGet, tt.path, nil, env.token)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.errMsg)
		})
	}
}

func TestDownloadReport(t *testing.T) {
	// GIVEN: A stored March report
	env := newTestEnv(t)
	f := seedSales(env)
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil, http.StatusOK, &r)

	// WHEN: Downloading it
	rec := env.send(http.MethodGet, "/api/reports/download/"+r.ID, nil, env.token)

	// THEN: A CSV attachment with the stored figures comes back
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-"+r.ID+".csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"section", "key", "value", "amount"}, rows[0])
	assert.Contains(t, rows, []string{"summary", "totalSales", "", "21.25"})
	assert.Contains(t, rows, []string{"category", f.drinks.ID, "3", "13.50"})
	assert.Contains(t, rows, []string{"month", "03", "", "16.75"})
	assert.Contains(t, rows, []string{"daily", "2024-03-02", "", "9.00"})
}

func TestWriteReportCSV_SectionOrder(t *testing.T) {
	r := sales.Report{
		ID:          "rep-1",
		Type:        sales.ReportCustom,
		DateRange:   sales.DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		TotalSales:  decimal.RequireFromString("6.335"),
		TotalOrders: 1,
		DailySales:  map[string]decimal.Decimal{"2024-01-02": decimal.RequireFromString("1"), "2024-01-01": decimal.RequireFromString("2")},
		SalesByCategory: map[string]sales.CategorySales{
			"cat-b": {Quantity: 1, Amount: decimal.RequireFromString("1")},
			"cat-a": {Quantity: 2, Amount: decimal.RequireFromString("2")},
		},
		MonthlySalesData: []sales.MonthlySales{{Month: "01", Amount: decimal.RequireFromString("3")}},
		Details:          []sales.ReportDetail{{ID: "d1", OrderID: "o1", Amount: decimal.RequireFromString("6.335"), Items: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeReportCSV(&buf, r))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	var sections []string
	for _, row := range rows[1:] {
		if n := len(sections); n == 0 || sections[n-1] != row[0] {
			sections = append(sections, row[0])
		}
	}
	assert.Equal(t, []string{"summary", "category", "month", "daily", "detail"}, sections)
	assert.Contains(t, rows, []string{"summary", "totalSales", "", "6.34"})
	assert.Contains(t, rows, []string{"detail", "o1", "2", "6.34"})

	// Keys within a section are sorted
	assert.Equal(t, []string{"category", "cat-a", "2", "2.00"}, rows[8])
	assert.Equal(t, []string{"daily", "2024-01-01", "", "2.00"}, rows[11])
}

func TestParseDate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		in      string
		end     bool
		want    time.Time
		wantErr bool
	}{
		{in: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, paris)},
		{in: "2024-03-01", end: true, want: time.Date(2024, 3, 1, 23, 59, 59, 999999999, paris)},
		{in: "2024-03-01T10:00:00Z", end: true, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{in: "", wantErr: true},
		{in: "01-03-2024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			parse := parseDate
			if tt.end {
				parse = parseEndDate
			}
			got, err := parse(tt.in, paris)
			if tt.wantErr {
				assert.ErrorIs(t, err, sales.ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}
