package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// REPORT STORE (sales.ReportStore interface)
// =============================================================================

// JSON column shapes. decimal.Decimal marshals as a quoted string, so amounts
// keep their exact value.
type categoryJSON struct {
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

type monthJSON struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type detailJSON struct {
	ID      string          `json:"id"`
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Items   int             `json:"items"`
	Date    time.Time       `json:"date"`
}

const reportSelect = `
	SELECT id, type, start_at, end_at, total_sales, total_orders, daily_sales_json,
	       sales_by_category_json, monthly_sales_json, details_json, created_at
	FROM reports
`

// FindReport returns the oldest report whose start and end fall on the key's days.
func (s *Store) FindReport(ctx context.Context, key sales.CacheKey) (*sales.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sw, ew := key.StartWindow(), key.EndWindow()
	row := s.db.QueryRowContext(ctx, reportSelect+`
		WHERE type = ?
		  AND start_at >= ? AND start_at <= ?
		  AND end_at >= ? AND end_at <= ?
		ORDER BY created_at ASC
		LIMIT 1
	`, string(key.Type),
		formatTime(sw.Start), formatTime(sw.End),
		formatTime(ew.Start), formatTime(ew.End))
	return scanReport(row)
}

func (s *Store) InsertReport(ctx context.Context, r sales.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, err := encodeReport(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, type, start_at, end_at, total_sales, total_orders, daily_sales_json,
		                     sales_by_category_json, monthly_sales_json, details_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, string(r.Type), formatTime(r.DateRange.Start), formatTime(r.DateRange.End),
		r.TotalSales.String(), r.TotalOrders, cols.daily, cols.categories, cols.monthly, cols.details,
		formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// UpdateReport overwrites every computed column and the date range.
func (s *Store) UpdateReport(ctx context.Context, r sales.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, err := encodeReport(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET start_at = ?, end_at = ?, total_sales = ?, total_orders = ?, daily_sales_json = ?,
		    sales_by_category_json = ?, monthly_sales_json = ?, details_json = ?
		WHERE id = ?
	`, formatTime(r.DateRange.Start), formatTime(r.DateRange.End), r.TotalSales.String(),
		r.TotalOrders, cols.daily, cols.categories, cols.monthly, cols.details, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sales.ErrReportNotFound
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*sales.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanReport(s.db.QueryRowContext(ctx, reportSelect+" WHERE id = ?", id))
}

// ListReports returns report summaries, newest first.
func (s *Store) ListReports(ctx context.Context) ([]sales.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, start_at, end_at, total_sales, total_orders, created_at
		FROM reports
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []sales.ReportSummary
	for rows.Next() {
		var sum sales.ReportSummary
		var typ, start, end, total, createdAt string
		if err := rows.Scan(&sum.ID, &typ, &start, &end, &total, &sum.TotalOrders, &createdAt); err != nil {
			return nil, err
		}
		sum.Type = sales.ReportType(typ)
		sum.DateRange = sales.DateRange{Start: parseTime(start), End: parseTime(end)}
		sum.TotalSales = parseDecimal(total)
		sum.CreatedAt = parseTime(createdAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

type reportColumns struct {
	daily, categories, monthly, details string
}

func encodeReport(r sales.Report) (reportColumns, error) {
	var cols reportColumns

	daily := r.DailySales
	if daily == nil {
		daily = map[string]decimal.Decimal{}
	}
	b, err := json.Marshal(daily)
	if err != nil {
		return cols, fmt.Errorf("encode daily sales: %w", err)
	}
	cols.daily = string(b)

	cats := make(map[string]categoryJSON, len(r.SalesByCategory))
	for id, cs := range r.SalesByCategory {
		cats[id] = categoryJSON{Quantity: cs.Quantity, Amount: cs.Amount}
	}
	if b, err = json.Marshal(cats); err != nil {
		return cols, fmt.Errorf("encode category sales: %w", err)
	}
	cols.categories = string(b)

	months := make([]monthJSON, len(r.MonthlySalesData))
	for i, m := range r.MonthlySalesData {
		months[i] = monthJSON{Month: m.Month, Amount: m.Amount}
	}
	if b, err = json.Marshal(months); err != nil {
		return cols, fmt.Errorf("encode monthly sales: %w", err)
	}
	cols.monthly = string(b)

	details := make([]detailJSON, len(r.Details))
	for i, d := range r.Details {
		details[i] = detailJSON{ID: d.ID, OrderID: d.OrderID, Amount: d.Amount, Items: d.Items, Date: d.Date.UTC()}
	}
	if b, err = json.Marshal(details); err != nil {
		return cols, fmt.Errorf("encode details: %w", err)
	}
	cols.details = string(b)

	return cols, nil
}

func scanReport(row *sql.Row) (*sales.Report, error) {
	var r sales.Report
	var typ, start, end, total, daily, cats, months, details, createdAt string
	err := row.Scan(&r.ID, &typ, &start, &end, &total, &r.TotalOrders,
		&daily, &cats, &months, &details, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Type = sales.ReportType(typ)
	r.DateRange = sales.DateRange{Start: parseTime(start), End: parseTime(end)}
	r.TotalSales = parseDecimal(total)
	r.CreatedAt = parseTime(createdAt)

	if err := json.Unmarshal([]byte(daily), &r.DailySales); err != nil {
		return nil, fmt.Errorf("report %s: decode daily sales: %w", r.ID, err)
	}

	var catRows map[string]categoryJSON
	if err := json.Unmarshal([]byte(cats), &catRows); err != nil {
		return nil, fmt.Errorf("report %s: decode category sales: %w", r.ID, err)
	}
	r.SalesByCategory = make(map[string]sales.CategorySales, len(catRows))
	for id, c := range catRows {
		r.SalesByCategory[id] = sales.CategorySales{Quantity: c.Quantity, Amount: c.Amount}
	}

	var monthRows []monthJSON
	if err := json.Unmarshal([]byte(months), &monthRows); err != nil {
		return nil, fmt.Errorf("report %s: decode monthly sales: %w", r.ID, err)
	}
	r.MonthlySalesData = make([]sales.MonthlySales, len(monthRows))
	for i, m := range monthRows {
		r.MonthlySalesData[i] = sales.MonthlySales{Month: m.Month, Amount: m.Amount}
	}

	var detailRows []detailJSON
	if err := json.Unmarshal([]byte(details), &detailRows); err != nil {
		return nil, fmt.Errorf("report %s: decode details: %w", r.ID, err)
	}
	r.Details = make([]sales.ReportDetail, len(detailRows))
	for i, d := range detailRows {
		r.Details[i] = sales.ReportDetail{ID: d.ID, OrderID: d.OrderID, Amount: d.Amount, Items: d.Items, Date: d.Date}
	}

	if r.DailySales == nil {
		r.DailySales = map[string]decimal.Decimal{}
	}
	return &r, nil
}
