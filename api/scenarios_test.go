/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Loads each scenario through the API and checks the resulting catalog,
	orders and the reports generated from them. Doubles as an end-to-end
	test of the report engine on a realistic data set.
*/
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(env *testEnv, id string) {
	env.t.Helper()
	env.call(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id}, http.StatusOK, nil)
}

func TestScenario_SmallCafe(t *testing.T) {
	// GIVEN: The small cafe scenario
	env := newTestEnv(t)
	loadScenario(env, "small-cafe")

	// THEN: The catalog has one inactive category and five items
	var cats []CategoryDTO
	env.call(http.MethodGet, "/api/categories", nil, http.StatusOK, &cats)
	assert.Len(t, cats, 3)
	var menu MenuResponse
	env.call(http.MethodGet, "/api/menu", nil, http.StatusOK, &menu)
	assert.Len(t, menu.Items, 5)
	assert.Len(t, menu.Categories, 4)

	// Two tables are still open
	var unpaid []OrderDTO
	env.call(http.MethodGet, "/api/orders/unpaid", nil, http.StatusOK, &unpaid)
	assert.Len(t, unpaid, 2)

	// WHEN: Generating the current month report
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/current-month", nil, http.StatusOK, &r)

	// THEN: The five paid orders are counted and amounts round half up
	assert.Equal(t, 5, r.TotalOrders)
	assert.Equal(t, 69.91, r.TotalSales)
	assert.Equal(t, map[string]float64{"2024-03-15": 69.91}, r.DailySales)
	assert.Equal(t, CategorySalesDTO{Quantity: 6, Amount: 22.5}, r.SalesByCategory["cat-drinks"])
	assert.Equal(t, CategorySalesDTO{Quantity: 6, Amount: 19.5}, r.SalesByCategory["cat-pastries"])
	assert.Equal(t, CategorySalesDTO{Quantity: 4, Amount: 27.91}, r.SalesByCategory["cat-mains"])
	assert.Len(t, r.Details, 5)
}

func TestScenario_BusyYear(t *testing.T) {
	// GIVEN: Paid orders every few days since January, and one last December
	env := newTestEnv(t)
	loadScenario(env, "busy-year")

	// WHEN: Generating this year's and last year's reports
	var thisYear, lastYear ReportDTO
	env.call(http.MethodGet, "/api/reports/yearly?year=2024", nil, http.StatusOK, &thisYear)
	env.call(http.MethodGet, "/api/reports/yearly?year=2023", nil, http.StatusOK, &lastYear)

	// THEN: Each year only counts its own orders
	assert.Equal(t, 25, thisYear.TotalOrders)
	require.Len(t, thisYear.MonthlySalesData, 12)
	for i, m := range thisYear.MonthlySalesData {
		if i < 3 {
			assert.Greater(t, m.Amount, 0.0, "month %s", m.Month)
		} else {
			assert.Zero(t, m.Amount, "month %s", m.Month)
		}
	}

	assert.Equal(t, 1, lastYear.TotalOrders)
	require.Len(t, lastYear.MonthlySalesData, 12)
	assert.Equal(t, 37.34, lastYear.MonthlySalesData[11].Amount)

	// totalSales is the same on both: every paid order ever
	assert.Equal(t, thisYear.TotalSales, lastYear.TotalSales)
}

func TestScenario_RetiredItem(t *testing.T) {
	// GIVEN: Paid orders with a menu item deleted afterwards
	env := newTestEnv(t)
	loadScenario(env, "retired-item")

	var menu MenuResponse
	env.call(http.MethodGet, "/api/menu", nil, http.StatusOK, &menu)
	assert.Len(t, menu.Items, 4)

	// WHEN: Generating the current month report
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/current-month", nil, http.StatusOK, &r)

	// THEN: Orders and totals still count, the broken lines are left out of categories
	assert.Equal(t, 3, r.TotalOrders)
	assert.Equal(t, 46.01, r.TotalSales)
	assert.Equal(t, CategorySalesDTO{Quantity: 6, Amount: 27}, r.SalesByCategory["cat-drinks"])
	_, hasMains := r.SalesByCategory["cat-mains"]
	assert.False(t, hasMains)
	assert.Len(t, r.Details, 3)
}

func TestScenario_CurrentAndReset(t *testing.T) {
	env := newTestEnv(t)

	var current *ScenarioDTO
	env.call(http.MethodGet, "/api/scenarios/current", nil, http.StatusOK, &current)
	assert.Nil(t, current)

	loadScenario(env, "small-cafe")
	env.call(http.MethodGet, "/api/scenarios/current", nil, http.StatusOK, &current)
	require.NotNil(t, current)
	assert.Equal(t, "small-cafe", current.ID)

	env.call(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}, http.StatusBadRequest, nil)

	// Reset keeps the admin, so the same token still works
	env.call(http.MethodPost, "/api/scenarios/reset", nil, http.StatusOK, nil)
	var orders []OrderDTO
	env.call(http.MethodGet, "/api/orders", nil, http.StatusOK, &orders)
	assert.Empty(t, orders)
	env.call(http.MethodGet, "/api/auth/verify", nil, http.StatusOK, nil)

	var list []ScenarioDTO
	env.call(http.MethodGet, "/api/scenarios", nil, http.StatusOK, &list)
	assert.Len(t, list, 3)
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	env := newTestEnv(t)
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			rec := env.send(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID}, env.token)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestScenario_RoutesHiddenOutsideDevMode(t *testing.T) {
	env := newTestEnv(t)
	router := NewRouter(env.h, RouterConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
