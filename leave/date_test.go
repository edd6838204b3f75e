package leave_test

import (
	"testing"
	"time"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

func TestParseDate(t *testing.T) {
	got, err := leave.ParseDate("2025-12-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(leave.NewDate(2025, time.December, 10)) {
		t.Errorf("got %s", got)
	}

	if _, err := leave.ParseDate("10/12/2025"); err == nil {
		t.Error("expected error for non-ISO format")
	}
	if _, err := leave.ParseDate("2025-13-40"); err == nil {
		t.Error("expected error for impossible date")
	}
}

func TestDateRange_DaysAndLength(t *testing.T) {
	r := rng(10, 12)
	if r.Length() != 3 {
		t.Errorf("Length = %d, want 3", r.Length())
	}
	days := r.Days()
	if len(days) != 3 || !days[0].Equal(d(10)) || !days[2].Equal(d(12)) {
		t.Errorf("Days = %v", days)
	}

	single := rng(10, 10)
	if single.Length() != 1 || len(single.Days()) != 1 {
		t.Errorf("single-day range: Length=%d Days=%d", single.Length(), len(single.Days()))
	}

	inverted := rng(12, 10)
	if inverted.Valid() {
		t.Error("inverted range must not be valid")
	}
	if inverted.Days() != nil {
		t.Error("inverted range must enumerate no days")
	}
}

func TestDateRange_MonthBoundary(t *testing.T) {
	r := leave.NewDateRange(leave.NewDate(2025, time.November, 29), leave.NewDate(2025, time.December, 2))
	days := r.Days()
	if len(days) != 4 {
		t.Fatalf("expected 4 days across the month boundary, got %d", len(days))
	}
	if days[2].String() != "2025-12-01" {
		t.Errorf("day 3 = %s, want 2025-12-01", days[2])
	}
}

func TestRosterPeriodTable_PeriodFor(t *testing.T) {
	// GIVEN: 28-day periods anchored at 2025-01-04
	table := leave.RosterPeriodTable{Epoch: leave.NewDate(2025, time.January, 4), LengthDays: 28}

	// Day inside the first period
	p := table.PeriodFor(leave.NewDate(2025, time.January, 10))
	if !p.Start.Equal(leave.NewDate(2025, time.January, 4)) {
		t.Errorf("period start = %s", p.Start)
	}
	if !p.End.Equal(leave.NewDate(2025, time.January, 31)) {
		t.Errorf("period end = %s", p.End)
	}

	// Period boundaries are half-open at the next start
	boundary := table.PeriodFor(leave.NewDate(2025, time.February, 1))
	if !boundary.Start.Equal(leave.NewDate(2025, time.February, 1)) {
		t.Errorf("next period start = %s", boundary.Start)
	}

	// Periods are consecutive and non-overlapping
	prev := table.PeriodFor(leave.NewDate(2025, time.January, 31))
	if !prev.End.AddDays(1).Equal(boundary.Start) {
		t.Errorf("periods not consecutive: %s then %s", prev.End, boundary.Start)
	}
}

func TestRosterPeriodTable_CodeRestartsEachYear(t *testing.T) {
	table := leave.RosterPeriodTable{Epoch: leave.NewDate(2025, time.January, 4), LengthDays: 28}

	first2025 := table.PeriodFor(leave.NewDate(2025, time.January, 10))
	if first2025.Code != "RP1/2025" {
		t.Errorf("code = %s, want RP1/2025", first2025.Code)
	}

	// The first period STARTING in 2026 is numbered 1 again.
	later := table.PeriodFor(leave.NewDate(2026, time.March, 1))
	if later.Code == "" || later.Start.Year() != 2026 {
		t.Fatalf("unexpected period %+v", later)
	}
	if later.Code[len(later.Code)-4:] != "2026" {
		t.Errorf("code year = %s", later.Code)
	}
}
