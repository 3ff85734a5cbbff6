package sales

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE RANGE - Inclusive window a report covers
// =============================================================================

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Valid reports whether End is not before Start.
func (r DateRange) Valid() bool { return !r.End.Before(r.Start) }

func (r DateRange) String() string {
	return "[" + r.Start.Format(time.RFC3339) + ", " + r.End.Format(time.RFC3339) + "]"
}

// =============================================================================
// CALENDAR HELPERS - All preserve the location of their argument
// =============================================================================

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func EndOfYear(t time.Time) time.Time {
	return StartOfYear(t).AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// MonthRange is the full calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: EndOfMonth(start)}
}

// YearRange is Jan 1 00:00 through Dec 31 end-of-day in loc.
func YearRange(year int, loc *time.Location) DateRange {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: EndOfYear(start)}
}

// CurrentMonth runs from the first of now's month up to now itself.
func CurrentMonth(now time.Time) DateRange {
	return DateRange{Start: StartOfMonth(now), End: now}
}

// =============================================================================
// CACHE KEY - Identity of a stored report
// =============================================================================

// CacheKey identifies a report by type and the calendar days of its range.
// Time of day never participates in the match.
type CacheKey struct {
	Type     ReportType
	StartDay time.Time
	EndDay   time.Time
}

// NewCacheKey truncates start and end to their day in loc.
func NewCacheKey(typ ReportType, start, end time.Time, loc *time.Location) CacheKey {
	if loc == nil {
		loc = time.UTC
	}
	return CacheKey{
		Type:     typ,
		StartDay: StartOfDay(start.In(loc)),
		EndDay:   StartOfDay(end.In(loc)),
	}
}

// StartWindow is the range a stored start must fall in to match.
func (k CacheKey) StartWindow() DateRange {
	return DateRange{Start: k.StartDay, End: EndOfDay(k.StartDay)}
}

// EndWindow is the range a stored end must fall in to match.
func (k CacheKey) EndWindow() DateRange {
	return DateRange{Start: k.EndDay, End: EndOfDay(k.EndDay)}
}

// Matches reports whether a stored report of the given type and range hits the key.
func (k CacheKey) Matches(typ ReportType, r DateRange) bool {
	return typ == k.Type && k.StartWindow().Contains(r.Start) && k.EndWindow().Contains(r.End)
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s..%s", k.Type, k.StartDay.Format("2006-01-02"), k.EndDay.Format("2006-01-02"))
}
