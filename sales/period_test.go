package sales_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/restaurant-pos/sales"
)

func TestCacheKey_TruncatesToDay(t *testing.T) {
	start := time.Date(2024, time.March, 1, 8, 30, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)

	key := sales.NewCacheKey(sales.ReportMonthly, start, end, time.UTC)

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), key.StartDay)
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), key.EndDay)
	assert.Equal(t, "monthly:2024-03-01..2024-03-31", key.String())
}

func TestCacheKey_Matches(t *testing.T) {
	key := sales.NewCacheKey(sales.ReportCustom,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), time.UTC)

	tests := []struct {
		name  string
		typ   sales.ReportType
		start time.Time
		end   time.Time
		want  bool
	}{
		{"same instants", sales.ReportCustom,
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), true},
		{"late in the same days", sales.ReportCustom,
			time.Date(2024, time.March, 1, 23, 59, 59, 999, time.UTC),
			time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC), true},
		{"next day end", sales.ReportCustom,
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), false},
		{"other type", sales.ReportMonthly,
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := key.Matches(tt.typ, sales.DateRange{Start: tt.start, End: tt.end})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheKey_UsesLocationForDays(t *testing.T) {
	// 23:30 UTC on the 1st is already the 2nd in Tokyo
	tokyo := time.FixedZone("JST", 9*3600)
	start := time.Date(2024, time.March, 1, 23, 30, 0, 0, time.UTC)

	key := sales.NewCacheKey(sales.ReportDaily, start, start, tokyo)
	assert.Equal(t, 2, key.StartDay.Day())
}

func TestCalendarHelpers(t *testing.T) {
	feb := sales.MonthRange(2024, time.February, time.UTC)
	assert.Equal(t, 29, feb.End.Day())
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999999999, time.UTC), feb.End)

	year := sales.YearRange(2024, time.UTC)
	assert.Equal(t, time.December, year.End.Month())
	assert.Equal(t, 31, year.End.Day())

	now := time.Date(2024, time.May, 17, 14, 0, 0, 0, time.UTC)
	cur := sales.CurrentMonth(now)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), cur.Start)
	assert.Equal(t, now, cur.End)
}

func TestMonthlySeries_DenseAndCollapsible(t *testing.T) {
	buckets := []sales.BucketSum{
		{Key: sales.BucketKey{Year: 2024, Month: time.March}, Amount: dec("12.5")},
		{Key: sales.BucketKey{Year: 2024, Month: time.July}, Amount: dec("0.125")},
	}

	series := sales.MonthlySeries(buckets)
	assert.Len(t, series, 12)
	assert.Equal(t, "12.50", series[2].Amount.StringFixed(2))
	assert.Equal(t, "0.13", series[6].Amount.StringFixed(2))

	march := sales.CollapseToMonth(series, time.March)
	assert.Len(t, march, 1)
	assert.Equal(t, "03", march[0].Month)
}

func TestSumBuckets_GroupsByReportCalendar(t *testing.T) {
	// GIVEN: Orders whose UTC day differs from their Tokyo day
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	orders := []sales.Order{
		{TotalAmount: dec("1.10"), UpdatedAt: time.Date(2024, time.March, 5, 1, 0, 0, 0, tokyo)},
		{TotalAmount: dec("2.20"), UpdatedAt: time.Date(2024, time.March, 5, 22, 0, 0, 0, tokyo)},
		{TotalAmount: dec("3.30"), UpdatedAt: time.Date(2024, time.March, 4, 12, 0, 0, 0, tokyo)},
		{TotalAmount: dec("5.00"), UpdatedAt: time.Date(2024, time.January, 1, 1, 0, 0, 0, tokyo)},
	}

	// WHEN: Summing by day on the Tokyo calendar
	got := sales.SumBuckets(orders, sales.ByDay, tokyo)

	// THEN: Early morning orders stay on their local day
	assert.Len(t, got, 3)
	assert.Equal(t, "2024-01-01", got[0].Key.DayKey())
	assert.Equal(t, "2024-03-04", got[1].Key.DayKey())
	assert.Equal(t, "2024-03-05", got[2].Key.DayKey())
	assert.Equal(t, "3.30", got[2].Amount.StringFixed(2))
	assert.Equal(t, 2, got[2].Count)

	// The New Year order belongs to January locally, December in UTC
	months := sales.SumBuckets(orders[3:], sales.ByMonth, tokyo)
	assert.Len(t, months, 1)
	assert.Equal(t, sales.BucketKey{Year: 2024, Month: time.January}, months[0].Key)
	utc := sales.SumBuckets(orders[3:], sales.ByMonth, nil)
	assert.Equal(t, sales.BucketKey{Year: 2023, Month: time.December}, utc[0].Key)
}

func TestParseReportType(t *testing.T) {
	typ, err := sales.ParseReportType("yearly")
	assert.NoError(t, err)
	assert.Equal(t, sales.ReportYearly, typ)

	_, err = sales.ParseReportType("weekly")
	assert.ErrorIs(t, err, sales.ErrInvalidReportType)
	assert.ErrorIs(t, err, sales.ErrInvalidInput)
}
