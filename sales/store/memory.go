// Package store provides an in-memory implementation of the sales stores.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements sales.OrderStore and sales.ReportStore.
type Memory struct {
	mu      sync.RWMutex
	orders  map[string]sales.Order
	menu    map[string]sales.MenuRef
	reports map[string]sales.Report
}

func NewMemory() *Memory {
	return &Memory{
		orders:  make(map[string]sales.Order),
		menu:    make(map[string]sales.MenuRef),
		reports: make(map[string]sales.Report),
	}
}

// PutOrder inserts or replaces an order.
func (m *Memory) PutOrder(o sales.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Items = append([]sales.LineItem(nil), o.Items...)
	m.orders[o.ID] = o
}

// PutMenuItem inserts or replaces a menu item.
func (m *Memory) PutMenuItem(ref sales.MenuRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menu[ref.ID] = ref
}

// DeleteMenuItem removes a menu item, leaving orders that reference it broken.
func (m *Memory) DeleteMenuItem(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.menu, id)
}

// ReportCount returns how many reports are stored.
func (m *Memory) ReportCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

// =============================================================================
// ORDER STORE
// =============================================================================

func (m *Memory) FindOrders(ctx context.Context, f sales.OrderFilter) ([]sales.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(f), nil
}

func (m *Memory) FindResolvedOrders(ctx context.Context, f sales.OrderFilter) ([]sales.ResolvedOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := m.findLocked(f)
	out := make([]sales.ResolvedOrder, 0, len(orders))
	for _, o := range orders {
		ro := sales.ResolvedOrder{Order: o, Lines: make([]sales.ResolvedItem, 0, len(o.Items))}
		for _, it := range o.Items {
			ri := sales.ResolvedItem{LineItem: it}
			if ref, ok := m.menu[it.MenuItemID]; ok {
				ref := ref
				ri.Menu = &ref
			}
			ro.Lines = append(ro.Lines, ri)
		}
		out = append(out, ro)
	}
	return out, nil
}

func (m *Memory) SumByDatePart(ctx context.Context, f sales.OrderFilter, parts sales.DateParts, loc *time.Location) ([]sales.BucketSum, error) {
	orders, err := m.FindOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return sales.SumBuckets(orders, parts, loc), nil
}

func (m *Memory) findLocked(f sales.OrderFilter) []sales.Order {
	var out []sales.Order
	for _, o := range m.orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// =============================================================================
// REPORT STORE
// =============================================================================

func (m *Memory) FindReport(ctx context.Context, key sales.CacheKey) (*sales.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *sales.Report
	for _, r := range m.reports {
		if !key.Matches(r.Type, r.DateRange) {
			continue
		}
		if found == nil || r.CreatedAt.Before(found.CreatedAt) {
			c := cloneReport(r)
			found = &c
		}
	}
	return found, nil
}

func (m *Memory) InsertReport(ctx context.Context, r sales.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = cloneReport(r)
	return nil
}

func (m *Memory) UpdateReport(ctx context.Context, r sales.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return sales.ErrReportNotFound
	}
	m.reports[r.ID] = cloneReport(r)
	return nil
}

func (m *Memory) GetReport(ctx context.Context, id string) (*sales.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	c := cloneReport(r)
	return &c, nil
}

func (m *Memory) ListReports(ctx context.Context) ([]sales.ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]sales.ReportSummary, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// cloneReport copies the maps and slices so callers cannot mutate stored state.
func cloneReport(r sales.Report) sales.Report {
	c := r
	c.DailySales = make(map[string]decimal.Decimal, len(r.DailySales))
	for k, v := range r.DailySales {
		c.DailySales[k] = v
	}
	c.SalesByCategory = make(map[string]sales.CategorySales, len(r.SalesByCategory))
	for k, v := range r.SalesByCategory {
		c.SalesByCategory[k] = v
	}
	c.MonthlySalesData = append([]sales.MonthlySales(nil), r.MonthlySalesData...)
	c.Details = append([]sales.ReportDetail(nil), r.Details...)
	return c
}
