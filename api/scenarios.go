/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a realistic
	menu and order history, so the report endpoints have something to show.

AVAILABLE SCENARIOS:

	small-cafe:   One menu, a day of paid orders, two tables still open
	busy-year:    Paid orders spread over every month of the year so far
	retired-item: Paid orders referencing a menu item that was deleted later

HOW SCENARIOS WORK:
 1. Reset database (clear all POS data, admins are kept)
 2. Create categories and menu items
 3. Create orders with explicit timestamps
 4. Mark some of them paid (updatedAt is the payment instant)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-year"}

NOTE:

	Scenarios reset the database. The routes are only mounted in dev mode.

SEE ALSO:
  - server.go: RouterConfig.DevMode
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/restaurant-pos/sales"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-cafe",
		Name:        "Small Cafe",
		Description: "A morning of paid orders plus two tables waiting to pay",
	},
	{
		ID:          "busy-year",
		Name:        "Busy Year",
		Description: "Paid orders in every month of the current year",
	},
	{
		ID:          "retired-item",
		Name:        "Retired Menu Item",
		Description: "Orders for an item that has since been removed from the menu",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "small-cafe":
		load = h.loadSmallCafeScenario
	case "busy-year":
		load = h.loadBusyYearScenario
	case "retired-item":
		load = h.loadRetiredItemScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all POS data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

type seedLine struct {
	menuID string
	qty    int
}

// seedMenu creates the demo catalog and returns it keyed by id.
func (h *Handler) seedMenu(ctx context.Context) (map[string]sales.MenuItem, error) {
	created := h.Now().AddDate(0, -1, 0)
	cats := []sales.Category{
		{ID: "cat-drinks", Name: "Drinks", Description: "Hot and cold drinks", IsActive: true},
		{ID: "cat-pastries", Name: "Pastries", Description: "Baked in house", IsActive: true},
		{ID: "cat-mains", Name: "Mains", Description: "Lunch plates", IsActive: true},
		{ID: "cat-seasonal", Name: "Seasonal", Description: "Out of season", IsActive: false},
	}
	for _, c := range cats {
		c.CreatedAt = created
		if err := h.Store.CreateCategory(ctx, c); err != nil {
			return nil, err
		}
	}

	items := []sales.MenuItem{
		{ID: "menu-latte", Name: "Latte", Price: decimal.RequireFromString("4.50"), CategoryID: "cat-drinks"},
		{ID: "menu-espresso", Name: "Espresso", Price: decimal.RequireFromString("3.00"), CategoryID: "cat-drinks"},
		{ID: "menu-croissant", Name: "Croissant", Price: decimal.RequireFromString("3.25"), CategoryID: "cat-pastries"},
		{ID: "menu-sandwich", Name: "Club Sandwich", Price: decimal.RequireFromString("8.90"), CategoryID: "cat-mains"},
		{ID: "menu-soup", Name: "Soup of the Day", Price: decimal.RequireFromString("6.335"), CategoryID: "cat-mains"},
	}
	menu := make(map[string]sales.MenuItem, len(items))
	for i, m := range items {
		m.Description = m.Name + " from the demo menu"
		m.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		if err := h.Store.CreateMenuItem(ctx, m); err != nil {
			return nil, err
		}
		menu[m.ID] = m
	}
	return menu, nil
}

// seedOrder places an order at placedAt. A non-zero paidAt marks it paid then.
func (h *Handler) seedOrder(ctx context.Context, menu map[string]sales.MenuItem, table string, status sales.OrderStatus, placedAt, paidAt time.Time, lines ...seedLine) (sales.Order, error) {
	o := sales.Order{
		ID:          h.NewID(),
		TableID:     table,
		TotalAmount: decimal.Zero,
		Status:      status,
		CreatedAt:   placedAt,
		UpdatedAt:   placedAt,
	}
	if !paidAt.IsZero() {
		o.Status = sales.StatusPaid
		o.UpdatedAt = paidAt
	}
	for _, l := range lines {
		m, ok := menu[l.menuID]
		if !ok {
			return o, fmt.Errorf("seed order: %w: %s", sales.ErrInvalidMenuItem, l.menuID)
		}
		o.Items = append(o.Items, sales.LineItem{ID: h.NewID(), MenuItemID: m.ID, Quantity: l.qty, Price: m.Price})
		o.TotalAmount = o.TotalAmount.Add(m.Price.Mul(decimal.NewFromInt(int64(l.qty))))
	}
	return o, h.Store.CreateOrder(ctx, o)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSmallCafeScenario(ctx context.Context) error {
	menu, err := h.seedMenu(ctx)
	if err != nil {
		return err
	}
	now := h.Now()

	paid := [][]seedLine{
		{{"menu-latte", 2}, {"menu-croissant", 2}},
		{{"menu-espresso", 1}},
		{{"menu-sandwich", 1}, {"menu-latte", 1}},
		{{"menu-soup", 3}},
		{{"menu-croissant", 4}, {"menu-espresso", 2}},
	}
	for i, lines := range paid {
		placed := now.Add(-time.Duration(len(paid)-i) * 45 * time.Minute)
		table := fmt.Sprintf("T%d", i%2+1)
		if _, err := h.seedOrder(ctx, menu, table, sales.StatusDelivered, placed, placed.Add(30*time.Minute), lines...); err != nil {
			return err
		}
	}

	if _, err := h.seedOrder(ctx, menu, "T3", sales.StatusPreparing, now.Add(-10*time.Minute), time.Time{},
		seedLine{"menu-sandwich", 2}); err != nil {
		return err
	}
	_, err = h.seedOrder(ctx, menu, "T4", sales.StatusDelivered, now.Add(-25*time.Minute), time.Time{},
		seedLine{"menu-latte", 1}, seedLine{"menu-croissant", 1})
	return err
}

func (h *Handler) loadBusyYearScenario(ctx context.Context) error {
	menu, err := h.seedMenu(ctx)
	if err != nil {
		return err
	}
	now := h.Now().In(h.location())

	for m := time.January; m <= now.Month(); m++ {
		for d := 1; d <= 28; d += 3 {
			placed := time.Date(now.Year(), m, d, 12, 0, 0, 0, h.location())
			if placed.After(now) {
				break
			}
			lines := []seedLine{{"menu-latte", 1 + d%3}, {"menu-croissant", 1}}
			if d%2 == 0 {
				lines = append(lines, seedLine{"menu-sandwich", int(m)%3 + 1})
			}
			if _, err := h.seedOrder(ctx, menu, fmt.Sprintf("T%d", d%6+1), sales.StatusDelivered, placed, placed.Add(time.Hour), lines...); err != nil {
				return err
			}
		}
	}

	// Last December, outside the current year window.
	placed := time.Date(now.Year()-1, time.December, 20, 19, 0, 0, 0, h.location())
	_, err = h.seedOrder(ctx, menu, "T1", sales.StatusDelivered, placed, placed.Add(time.Hour),
		seedLine{"menu-soup", 4}, seedLine{"menu-espresso", 4})
	return err
}

func (h *Handler) loadRetiredItemScenario(ctx context.Context) error {
	menu, err := h.seedMenu(ctx)
	if err != nil {
		return err
	}
	now := h.Now()

	for i := 0; i < 3; i++ {
		placed := now.Add(-time.Duration(i+1) * time.Hour)
		if _, err := h.seedOrder(ctx, menu, "T2", sales.StatusDelivered, placed, placed.Add(20*time.Minute),
			seedLine{"menu-soup", 1}, seedLine{"menu-latte", 2}); err != nil {
			return err
		}
	}

	// The soup leaves the menu; its line items stay on the paid orders.
	_, err = h.Store.DeleteMenuItem(ctx, "menu-soup")
	return err
}
