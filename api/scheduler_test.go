package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

func TestScheduler_RefreshesCurrentMonth(t *testing.T) {
	// GIVEN: Sales data and a scheduler sharing the test clock
	env := newTestEnv(t)
	seedSales(env)
	rs := NewReportScheduler(env.h.Generator, env.events, env.h.Log)

	// WHEN: Running twice on the same day
	first, err := rs.RunNow()
	require.NoError(t, err)
	env.now = env.now.Add(time.Hour)
	second, err := rs.RunNow()
	require.NoError(t, err)

	// THEN: Each run refreshes the same month-to-date report
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, sales.ReportMonthly, second[0].Type)
	assert.Equal(t, 2, second[0].TotalOrders)
	assert.True(t, second[0].DateRange.End.Equal(env.now))

	// The endpoint reuses the scheduler's report
	var r ReportDTO
	env.call(http.MethodGet, "/api/reports/current-month", nil, http.StatusOK, &r)
	assert.Equal(t, first[0].ID, r.ID)
}

func TestScheduler_ClosesOutPreviousMonth(t *testing.T) {
	// GIVEN: A scheduler that last ran in March
	env := newTestEnv(t)
	seedSales(env)
	rs := NewReportScheduler(env.h.Generator, env.events, env.h.Log)
	_, err := rs.RunNow()
	require.NoError(t, err)

	var march ReportDTO
	env.call(http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil, http.StatusOK, &march)

	// WHEN: The next check happens in April
	env.now = time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	reports, err := rs.RunNow()
	require.NoError(t, err)

	// THEN: March is regenerated over the whole month, then April starts
	require.Len(t, reports, 2)
	closed, current := reports[0], reports[1]
	assert.Equal(t, march.ID, closed.ID)
	assert.Equal(t, 2, closed.TotalOrders)
	assert.True(t, closed.DateRange.End.Equal(sales.EndOfMonth(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))

	assert.Equal(t, 0, current.TotalOrders)
	assert.True(t, current.DateRange.Start.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))

	// Both generations were announced
	var generated int
	for _, e := range env.events.Events() {
		if e.RoutingKey == events.ReportGenerated {
			generated++
		}
	}
	assert.Equal(t, 4, generated)

	// A second April check does not close March again
	reports, err = rs.RunNow()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t)
	rs := NewReportScheduler(env.h.Generator, nil, nil)
	rs.CheckInterval = time.Hour

	rs.Start()
	rs.Start()
	rs.Stop()
	rs.Stop()

	// Restartable after a stop
	rs.Start()
	rs.Stop()

	rs.Enabled = false
	rs.Start()
	assert.Nil(t, rs.ticker)
}
