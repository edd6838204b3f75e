/*
eligibility.go - Classifies a candidate request ELIGIBLE/INELIGIBLE

PURPOSE:
  The advisory rule engine. For every day the candidate spans, projects the
  capacity after hypothetically admitting it; any day that would dip below
  zero makes the candidate ineligible, with a day-level reason and the list
  of other requests already occupying that day (in seniority order) so the
  reviewer has context.

  A candidate overlapping the same pilot's existing APPROVED leave is also
  ineligible: no pilot holds two approved requests for the same day.

LATE REQUESTS:
  A request submitted inside the configured window before its roster period
  start is flagged as a WARNING on the verdict. It never blocks: the
  reviewer decides what to do with it.

ADVISORY vs COMMIT:
  Evaluate is read-only and lock-free; display surfaces call it freely. The
  approval transaction calls the same code against fresh state inside the
  rank lock, so the advisory verdict and the commit check can never diverge
  in logic, only in snapshot.

SEE ALSO:
  - availability.go: The capacity arithmetic
  - service.go: The commit path re-running this inside the lock
*/
package leave

import (
	"context"
	"fmt"
)

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is the outcome of an eligibility evaluation.
type Verdict struct {
	Eligible bool

	// Reasons explains ineligibility, one entry per violated rule/day.
	Reasons []string

	// ConflictingRequestIDs lists other PENDING or APPROVED requests that
	// intersect the breached days, ordered by the seniority resolver.
	ConflictingRequestIDs []RequestID

	// Warnings are non-blocking advisories (late submission).
	Warnings []string
}

// =============================================================================
// ELIGIBILITY ENGINE
// =============================================================================

// EligibilityEngine orchestrates the availability calculator and rank rules.
type EligibilityEngine struct {
	Availability *AvailabilityCalculator
	Seniority    *SeniorityResolver
	Periods      RosterPeriodTable

	// LateWindowDays: a request submitted fewer than this many days before
	// its roster period start is flagged late.
	LateWindowDays int
}

// Evaluate classifies the candidate against the given snapshots. The
// approved slice must contain the current APPROVED requests for the
// candidate's rank intersecting its range; pending likewise for PENDING.
// Both snapshots are the caller's responsibility to read fresh.
func (e *EligibilityEngine) Evaluate(ctx context.Context, candidate *LeaveRequest, approved, pending []*LeaveRequest) (*Verdict, error) {
	v := &Verdict{Eligible: true}

	if !candidate.Range.Valid() {
		return nil, &ValidationError{Field: "dateRange", Detail: "start date is after end date"}
	}

	// Self-overlap: the pilot's own approved leave already covers part of
	// the candidate range.
	for _, r := range approved {
		if r.PilotID == candidate.PilotID && r.ID != candidate.ID && Overlaps(candidate.Range, r.Range) {
			v.Eligible = false
			v.Reasons = append(v.Reasons,
				fmt.Sprintf("overlaps the pilot's approved request %s (%s)", r.ID, r.Range))
		}
	}

	active, err := e.Availability.Roster.ActiveCrewCount(ctx, candidate.Rank)
	if err != nil {
		return nil, err
	}

	// Day-by-day projection: capacity after admitting the candidate.
	var breachedConflicts []*LeaveRequest
	seen := map[RequestID]bool{candidate.ID: true}
	for d := candidate.Range.Start; d.BeforeOrEqual(candidate.Range.End); d = d.AddDays(1) {
		projected := e.Availability.dayCapacity(candidate.Rank, d, active, approved) - 1
		if projected >= 0 {
			continue
		}
		v.Eligible = false
		v.Reasons = append(v.Reasons,
			fmt.Sprintf("minimum crew threshold would be breached on %s", d))

		for _, r := range CoveringDay(d, approved) {
			if !seen[r.ID] {
				seen[r.ID] = true
				breachedConflicts = append(breachedConflicts, r)
			}
		}
		for _, r := range CoveringDay(d, pending) {
			if !seen[r.ID] {
				seen[r.ID] = true
				breachedConflicts = append(breachedConflicts, r)
			}
		}
	}

	if len(breachedConflicts) > 0 {
		ids, err := e.Seniority.OrderIDs(ctx, breachedConflicts)
		if err != nil {
			return nil, err
		}
		v.ConflictingRequestIDs = ids
	}

	if w := e.lateWarning(candidate); w != "" {
		v.Warnings = append(v.Warnings, w)
	}
	return v, nil
}

// IsLate reports whether the candidate was submitted inside the late window
// before its roster period start.
func (e *EligibilityEngine) IsLate(candidate *LeaveRequest) bool {
	if e.LateWindowDays <= 0 {
		return false
	}
	period := e.Periods.PeriodFor(candidate.Range.Start)
	submitted := DateOf(candidate.SubmittedAt)
	return submitted.DaysUntil(period.Start) < e.LateWindowDays
}

func (e *EligibilityEngine) lateWarning(candidate *LeaveRequest) string {
	if !e.IsLate(candidate) {
		return ""
	}
	period := e.Periods.PeriodFor(candidate.Range.Start)
	return fmt.Sprintf("late request: submitted %d days before roster period %s starts (window is %d days)",
		DateOf(candidate.SubmittedAt).DaysUntil(period.Start), period.Code, e.LateWindowDays)
}
