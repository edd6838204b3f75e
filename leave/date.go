package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (leave is booked in whole days)
// =============================================================================

// Date is a calendar date normalized to UTC midnight. All leave accounting
// happens at day granularity; there are no partial-day requests.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysUntil returns the number of whole days from d to other (negative if
// other is earlier).
func (d Date) DaysUntil(other Date) int { return int(other.t.Sub(d.t).Hours() / 24) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format(dateLayout) }

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span of calendar days
// =============================================================================

// DateRange is an inclusive span of calendar days. A single-day request has
// Start == End.
type DateRange struct {
	Start Date
	End   Date
}

func NewDateRange(start, end Date) DateRange { return DateRange{Start: start, End: end} }

// Valid reports whether the range is well-formed (Start <= End).
func (r DateRange) Valid() bool { return r.Start.BeforeOrEqual(r.End) }

// Length returns the number of days the range spans, inclusive of both ends.
func (r DateRange) Length() int { return r.Start.DaysUntil(r.End) + 1 }

// Contains reports whether day d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return r.Start.BeforeOrEqual(d) && d.BeforeOrEqual(r.End)
}

// Days enumerates every day the range spans, in order. A multi-day request
// consumes one unit of capacity on each of these days.
func (r DateRange) Days() []Date {
	if !r.Valid() {
		return nil
	}
	days := make([]Date, 0, r.Length())
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string { return fmt.Sprintf("%s..%s", r.Start, r.End) }

// =============================================================================
// ROSTER PERIOD - Fixed administrative scheduling window
// =============================================================================

// RosterPeriod identifies the fixed scheduling window a request falls into.
// Periods are consecutive fixed-length windows counted from a configured
// epoch, labeled RP<n>/<year> where <n> restarts each calendar year.
type RosterPeriod struct {
	Code  string
	Start Date
	End   Date
}

// RosterPeriodTable derives roster periods from an epoch (the start of some
// known period) and a fixed period length in days.
type RosterPeriodTable struct {
	Epoch      Date
	LengthDays int
}

// DefaultRosterPeriodTable matches the 28-day planning cadence.
func DefaultRosterPeriodTable() RosterPeriodTable {
	return RosterPeriodTable{Epoch: NewDate(2025, time.January, 4), LengthDays: 28}
}

// PeriodFor returns the roster period containing day d.
func (t RosterPeriodTable) PeriodFor(d Date) RosterPeriod {
	length := t.LengthDays
	if length <= 0 {
		length = 28
	}
	offset := t.Epoch.DaysUntil(d)
	idx := offset / length
	if offset < 0 && offset%length != 0 {
		idx-- // floor division for dates before the epoch
	}
	start := t.Epoch.AddDays(idx * length)
	end := start.AddDays(length - 1)

	// Number within the start's calendar year.
	yearStart := t.periodIndexAtYearStart(start.Year())
	number := idx - yearStart + 1

	return RosterPeriod{
		Code:  fmt.Sprintf("RP%d/%d", number, start.Year()),
		Start: start,
		End:   end,
	}
}

// periodIndexAtYearStart returns the index (relative to the epoch) of the
// first period whose start falls in the given year.
func (t RosterPeriodTable) periodIndexAtYearStart(year int) int {
	length := t.LengthDays
	if length <= 0 {
		length = 28
	}
	jan1 := NewDate(year, time.January, 1)
	offset := t.Epoch.DaysUntil(jan1)
	idx := offset / length
	if offset < 0 && offset%length != 0 {
		idx--
	}
	// idx is the period containing Jan 1; the first period starting in the
	// year is the next one unless Jan 1 is itself a period start.
	start := t.Epoch.AddDays(idx * length)
	if start.Equal(jan1) {
		return idx
	}
	return idx + 1
}
