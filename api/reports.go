/*
reports.go - Sales report endpoints

PURPOSE:
  Turns query parameters into a (start, end, type) triple for the report
  generator, and serves stored reports as JSON or CSV.

ENDPOINTS (all admin only):
  GET /api/reports/current-month             start of month .. now, monthly
  GET /api/reports/monthly?year=&month=      whole calendar month, monthly
  GET /api/reports/yearly?year=              whole calendar year, yearly
  GET /api/reports/custom?startDate=&endDate= custom
  GET /api/reports                           summaries, newest first
  GET /api/reports/{id}                      stored report
  GET /api/reports/download/{id}             stored report as CSV

DATES:
  Dates are YYYY-MM-DD in the report timezone, or RFC3339. A date-only
  endDate covers the whole day.

SEE ALSO:
  - sales/generator.go: Generate
*/
package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

const dateLayout = "2006-01-02"

// =============================================================================
// GENERATING HANDLERS
// =============================================================================

// CurrentMonthReport generates the month-to-date report.
// GET /api/reports/current-month
func (h *Handler) CurrentMonthReport(w http.ResponseWriter, r *http.Request) {
	rng := sales.CurrentMonth(h.Now().In(h.location()))
	h.generate(w, r, rng.Start, rng.End, sales.ReportMonthly)
}

// MonthlyReport generates the report of one calendar month.
// GET /api/reports/monthly?year=2024&month=03
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 1, 9999)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := queryInt(r, "month", 1, 12)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	rng := sales.MonthRange(year, time.Month(month), h.location())
	h.generate(w, r, rng.Start, rng.End, sales.ReportMonthly)
}

// YearlyReport generates the report of one calendar year.
// GET /api/reports/yearly?year=2024
func (h *Handler) YearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 1, 9999)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	rng := sales.YearRange(year, h.location())
	h.generate(w, r, rng.Start, rng.End, sales.ReportYearly)
}

// CustomReport generates a report for an arbitrary range.
// GET /api/reports/custom?startDate=2024-03-01&endDate=2024-03-15
func (h *Handler) CustomReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("startDate"), h.location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format", err)
		return
	}
	end, err := parseEndDate(q.Get("endDate"), h.location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format", err)
		return
	}
	h.generate(w, r, start, end, sales.ReportCustom)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, start, end time.Time, typ sales.ReportType) {
	ctx := r.Context()
	report, err := h.Generator.Generate(ctx, start, end, typ)
	if err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to generate %s report", typ), err)
		return
	}

	h.publish(ctx, events.ReportGenerated, events.ReportGeneratedEvent{
		ReportID:    report.ID,
		Type:        string(report.Type),
		Start:       report.DateRange.Start,
		End:         report.DateRange.End,
		TotalOrders: report.TotalOrders,
		TotalSales:  sales.CurrencyFloat(report.TotalSales),
	})
	writeJSON(w, http.StatusOK, toReportDTO(*report))
}

// =============================================================================
// READ HANDLERS
// =============================================================================

// ListReports returns report summaries, newest first.
// GET /api/reports
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Store.ListReports(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list reports", err)
		return
	}
	dtos := make([]ReportSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toReportSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReport returns a stored report without regenerating it.
// GET /api/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(*report))
}

// DownloadReport streams a stored report as CSV.
// GET /api/reports/download/{id}
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.csv"`, report.ID))
	w.WriteHeader(http.StatusOK)
	if err := writeReportCSV(w, *report); err != nil {
		h.requestLog(r).WithError(err).Error("report download interrupted")
	}
}

func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) (*sales.Report, bool) {
	report, err := h.Store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get report", err)
		return nil, false
	}
	if report == nil {
		h.fail(w, r, "Report not found", sales.ErrReportNotFound)
		return nil, false
	}
	return report, true
}

// =============================================================================
// CSV EXPORT
// =============================================================================

// writeReportCSV writes one row per fact: section, key, value, amount.
// Sections appear in order summary, category, month, daily, detail.
func writeReportCSV(out io.Writer, r sales.Report) error {
	w := csv.NewWriter(out)
	money := func(d decimal.Decimal) string { return sales.RoundCurrency(d).StringFixed(sales.CurrencyPlaces) }

	rows := [][]string{
		{"section", "key", "value", "amount"},
		{"summary", "id", r.ID, ""},
		{"summary", "type", string(r.Type), ""},
		{"summary", "start", formatTime(r.DateRange.Start), ""},
		{"summary", "end", formatTime(r.DateRange.End), ""},
		{"summary", "totalOrders", strconv.Itoa(r.TotalOrders), ""},
		{"summary", "totalSales", "", money(r.TotalSales)},
		{"summary", "createdAt", formatTime(r.CreatedAt), ""},
	}
	for _, id := range r.CategoryKeys() {
		cs := r.SalesByCategory[id]
		rows = append(rows, []string{"category", id, strconv.Itoa(cs.Quantity), money(cs.Amount)})
	}
	for _, m := range r.MonthlySalesData {
		rows = append(rows, []string{"month", m.Month, "", money(m.Amount)})
	}
	for _, day := range r.DailyKeys() {
		rows = append(rows, []string{"daily", day, "", money(r.DailySales[day])})
	}
	for _, d := range r.Details {
		rows = append(rows, []string{"detail", d.OrderID, strconv.Itoa(d.Items), money(d.Amount)})
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write report csv: %w", err)
	}
	return nil
}

// =============================================================================
// PARAMETER PARSING
// =============================================================================

// parseDate accepts YYYY-MM-DD (midnight in loc) or RFC3339.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", sales.ErrInvalidRange)
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", sales.ErrInvalidRange, s)
	}
	return t, nil
}

// parseEndDate is parseDate, except a date-only value means the end of that day.
func parseEndDate(s string, loc *time.Location) (time.Time, error) {
	t, err := parseDate(s, loc)
	if err != nil {
		return t, err
	}
	if len(s) == len(dateLayout) {
		t = sales.EndOfDay(t)
	}
	return t, nil
}

func queryInt(r *http.Request, name string, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", name, n, min, max)
	}
	return n, nil
}
