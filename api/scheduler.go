/*
scheduler.go - Automated report refresh scheduler

PURPOSE:
  Keeps the cached current-month report warm so dashboards read fresh
  numbers without waiting for a generation pass, and closes out the
  previous month once the calendar rolls over.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each check regenerates the month-to-date report (same cache key as
    GET /api/reports/current-month, so the stored record is reused)
  - When the month changed since the last check, the finished month is
    generated once over its full range
  - Errors are logged and the next tick tries again

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReportScheduler(generator, publisher, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - reports.go: CurrentMonthReport endpoint (manual refresh)
  - sales/generator.go: Generate
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/sales"
)

const refreshTimeout = 2 * time.Minute

// ReportScheduler handles periodic report regeneration.
type ReportScheduler struct {
	Generator     *sales.Generator
	Events        events.Publisher
	Log           logrus.FieldLogger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// runMu serializes checks; lastMonth is guarded by it.
	runMu sync.Mutex
	// lastMonth is the first day of the month refreshed by the last check.
	lastMonth time.Time
}

// NewReportScheduler creates a new scheduler.
func NewReportScheduler(gen *sales.Generator, pub events.Publisher, log logrus.FieldLogger) *ReportScheduler {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReportScheduler{
		Generator:     gen,
		Events:        pub,
		Log:           log.WithField("component", "report_scheduler"),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Log.WithField("interval", rs.CheckInterval.String()).Info("started")
}

// Stop stops the scheduler and waits for a running check to finish.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.stop = make(chan struct{})
		rs.Log.Info("stopped")
	}
}

func (rs *ReportScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReportScheduler) checkAndProcess() {
	if _, err := rs.RunNow(); err != nil {
		rs.Log.WithError(err).Error("report refresh failed")
	}
}

// RunNow performs one check immediately and returns the reports it
// generated, month-to-date last.
func (rs *ReportScheduler) RunNow() ([]*sales.Report, error) {
	rs.runMu.Lock()
	defer rs.runMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	loc := rs.Generator.Location
	if loc == nil {
		loc = time.UTC
	}
	now := rs.Generator.Now().In(loc)
	month := sales.StartOfMonth(now)

	var out []*sales.Report
	if !rs.lastMonth.IsZero() && rs.lastMonth.Before(month) {
		finished := sales.DateRange{Start: rs.lastMonth, End: sales.EndOfMonth(rs.lastMonth)}
		r, err := rs.generate(ctx, finished, sales.ReportMonthly)
		if err != nil {
			return out, fmt.Errorf("close out %s: %w", finished.Start.Format("2006-01"), err)
		}
		out = append(out, r)
	}

	r, err := rs.generate(ctx, sales.DateRange{Start: month, End: now}, sales.ReportMonthly)
	if err != nil {
		return out, fmt.Errorf("refresh current month: %w", err)
	}
	out = append(out, r)
	rs.lastMonth = month
	return out, nil
}

func (rs *ReportScheduler) generate(ctx context.Context, rng sales.DateRange, typ sales.ReportType) (*sales.Report, error) {
	r, err := rs.Generator.Generate(ctx, rng.Start, rng.End, typ)
	if err != nil {
		return nil, err
	}
	if err := rs.Events.Publish(ctx, events.ReportGenerated, events.ReportGeneratedEvent{
		ReportID:    r.ID,
		Type:        string(r.Type),
		Start:       r.DateRange.Start,
		End:         r.DateRange.End,
		TotalOrders: r.TotalOrders,
		TotalSales:  sales.CurrencyFloat(r.TotalSales),
	}); err != nil {
		rs.Log.WithError(err).Warn("event publish failed")
	}
	return r, nil
}
