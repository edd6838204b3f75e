/*
availability.go - Per-day leave capacity for a rank

PURPOSE:
  Computes how many more pilots of a rank may be approved for leave on a
  given day or range:

    capacity(rank, day) = activeCrew(rank) - minimumRequired(rank)
                          - count(APPROVED requests covering day)

  The binding constraint for a range is the WORST day, not the average: a
  multi-day request consumes one unit on each day it spans, so the
  calculator iterates day-by-day.

FRESHNESS:
  The approved snapshot is always passed in by the caller, which reads it
  from the store in the same consistency scope as the decision being made
  (inside the rank lock for commits). This file never caches.

SEE ALSO:
  - eligibility.go: Projects the candidate onto these capacities
  - service.go: Supplies fresh snapshots
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AVAILABILITY CALCULATOR
// =============================================================================

// AvailabilityCalculator computes remaining leave capacity per rank and day.
type AvailabilityCalculator struct {
	Roster RosterProvider

	// MinimumRequired is the minimum number of active pilots of each rank
	// that must remain available (not on approved leave) on any single day.
	MinimumRequired map[Rank]int
}

// DayCapacity returns the remaining capacity for rank on day d, given the
// currently APPROVED requests. Negative means the invariant is already
// breached (should never happen after a committed transition).
func (c *AvailabilityCalculator) DayCapacity(ctx context.Context, rank Rank, d Date, approved []*LeaveRequest) (int, error) {
	active, err := c.Roster.ActiveCrewCount(ctx, rank)
	if err != nil {
		return 0, err
	}
	return c.dayCapacity(rank, d, active, approved), nil
}

func (c *AvailabilityCalculator) dayCapacity(rank Rank, d Date, active int, approved []*LeaveRequest) int {
	onLeave := 0
	for _, r := range approved {
		if r.Rank == rank && r.Covers(d) {
			onLeave++
		}
	}
	return active - c.MinimumRequired[rank] - onLeave
}

// RangeCapacity returns the minimum capacity across every day in rng and the
// first day on which that minimum occurs.
func (c *AvailabilityCalculator) RangeCapacity(ctx context.Context, rank Rank, rng DateRange, approved []*LeaveRequest) (int, Date, error) {
	active, err := c.Roster.ActiveCrewCount(ctx, rank)
	if err != nil {
		return 0, Date{}, err
	}

	first := true
	var min int
	var bindingDay Date
	for d := rng.Start; d.BeforeOrEqual(rng.End); d = d.AddDays(1) {
		remaining := c.dayCapacity(rank, d, active, approved)
		if first || remaining < min {
			min = remaining
			bindingDay = d
			first = false
		}
	}
	return min, bindingDay, nil
}

// =============================================================================
// AVAILABILITY REPORT - Per-day breakdown for the review surface
// =============================================================================

// DayAvailability is one row of the reviewer-facing availability report.
type DayAvailability struct {
	Date            Date
	ActiveCrew      int
	MinimumRequired int
	Approved        int
	Remaining       int

	// Utilization is the share of grantable capacity already consumed:
	// approved / (active - minimum), in [0,1] when the invariant holds.
	Utilization decimal.Decimal
}

// Report computes the per-day breakdown for rank across rng.
func (c *AvailabilityCalculator) Report(ctx context.Context, rank Rank, rng DateRange, approved []*LeaveRequest) ([]DayAvailability, error) {
	active, err := c.Roster.ActiveCrewCount(ctx, rank)
	if err != nil {
		return nil, err
	}
	min := c.MinimumRequired[rank]
	grantable := active - min

	rows := make([]DayAvailability, 0, rng.Length())
	for d := rng.Start; d.BeforeOrEqual(rng.End); d = d.AddDays(1) {
		onLeave := 0
		for _, r := range approved {
			if r.Rank == rank && r.Covers(d) {
				onLeave++
			}
		}
		util := decimal.Zero
		if grantable > 0 {
			util = decimal.NewFromInt(int64(onLeave)).
				DivRound(decimal.NewFromInt(int64(grantable)), 4)
		}
		rows = append(rows, DayAvailability{
			Date:            d,
			ActiveCrew:      active,
			MinimumRequired: min,
			Approved:        onLeave,
			Remaining:       grantable - onLeave,
			Utilization:     util,
		})
	}
	return rows, nil
}
