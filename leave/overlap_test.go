/*
overlap_test.go - Boundary tests for date-range intersection

The overlap rule backs both double-booking detection and conflict
enumeration, so it is tested exhaustively at the boundaries: disjoint,
adjacent, touching, contained, identical, and single-day ranges.
*/
package leave_test

import (
	"testing"
	"time"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

func d(day int) leave.Date {
	return leave.NewDate(2025, time.December, day)
}

func rng(start, end int) leave.DateRange {
	return leave.NewDateRange(d(start), d(end))
}

func TestOverlaps_BoundaryGrid(t *testing.T) {
	cases := []struct {
		name string
		a, b leave.DateRange
		want bool
	}{
		{"disjoint before", rng(1, 5), rng(10, 15), false},
		{"disjoint after", rng(10, 15), rng(1, 5), false},
		{"adjacent (a ends day before b starts)", rng(1, 5), rng(6, 10), false},
		{"adjacent reversed", rng(6, 10), rng(1, 5), false},
		{"touching (a ends the day b starts)", rng(1, 5), rng(5, 10), true},
		{"touching reversed", rng(5, 10), rng(1, 5), true},
		{"partial overlap", rng(1, 10), rng(5, 15), true},
		{"b contained in a", rng(1, 31), rng(10, 15), true},
		{"a contained in b", rng(10, 15), rng(1, 31), true},
		{"identical", rng(5, 10), rng(5, 10), true},
		{"single day inside", rng(1, 10), rng(5, 5), true},
		{"single day outside", rng(1, 10), rng(11, 11), false},
		{"two identical single days", rng(7, 7), rng(7, 7), true},
		{"adjacent single days", rng(7, 7), rng(8, 8), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := leave.Overlaps(tc.a, tc.b); got != tc.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// Overlap is symmetric.
			if got := leave.Overlaps(tc.b, tc.a); got != tc.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestIntersecting_ExcludesSelfAndNonOverlapping(t *testing.T) {
	// GIVEN: three requests, one overlapping the probe, one adjacent, plus
	//        the probe itself
	// WHEN:  Intersecting is called excluding the probe's ID
	// THEN:  only the overlapping request is returned

	probe := rng(10, 12)
	requests := []*leave.LeaveRequest{
		{ID: "self", Range: rng(10, 12)},
		{ID: "overlapping", Range: rng(12, 14)},
		{ID: "adjacent", Range: rng(13, 14)},
	}

	got := leave.Intersecting(probe, requests, "self")
	if len(got) != 1 || got[0].ID != "overlapping" {
		t.Fatalf("expected only the overlapping request, got %v", got)
	}
}

func TestCoveringDay(t *testing.T) {
	requests := []*leave.LeaveRequest{
		{ID: "a", Range: rng(1, 10)},
		{ID: "b", Range: rng(10, 10)},
		{ID: "c", Range: rng(11, 20)},
	}

	got := leave.CoveringDay(d(10), requests)
	if len(got) != 2 {
		t.Fatalf("expected 2 requests covering day 10, got %d", len(got))
	}
}
