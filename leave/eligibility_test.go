/*
eligibility_test.go - Admission rule engine

Each test documents one rule: per-day capacity projection, day-level
reasons, conflict enumeration in seniority order, self-overlap, and the
non-blocking late-request warning.
*/
package leave_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

func newEngine(activeCaptains, minCaptains int, roster *leave.StaticRoster) *leave.EligibilityEngine {
	if roster == nil {
		roster = &leave.StaticRoster{}
	}
	if roster.Counts == nil {
		roster.Counts = map[leave.Rank]int{}
	}
	roster.Counts[leave.RankCaptain] = activeCaptains
	return &leave.EligibilityEngine{
		Availability: &leave.AvailabilityCalculator{
			Roster:          roster,
			MinimumRequired: map[leave.Rank]int{leave.RankCaptain: minCaptains},
		},
		Seniority:      &leave.SeniorityResolver{Roster: roster},
		Periods:        leave.RosterPeriodTable{Epoch: leave.NewDate(2025, time.January, 4), LengthDays: 28},
		LateWindowDays: 21,
	}
}

func pendingReq(id, pilot string, start, end int) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:          leave.RequestID(id),
		PilotID:     leave.PilotID(pilot),
		Rank:        leave.RankCaptain,
		Range:       rng(start, end),
		Status:      leave.StatusPending,
		SubmittedAt: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate_EligibleWhenCapacityRemains(t *testing.T) {
	// GIVEN: capacity 2 per day, one approved request on part of the range
	// WHEN:  a candidate spanning those days is evaluated
	// THEN:  eligible (projected capacity stays >= 0 on every day)

	engine := newEngine(12, 10, nil)
	candidate := pendingReq("cand", "p1", 10, 14)
	approved := []*leave.LeaveRequest{approvedReq("a1", "p2", 12, 13)}

	v, err := engine.Evaluate(context.Background(), candidate, approved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Eligible {
		t.Fatalf("expected eligible, reasons: %v", v.Reasons)
	}
	if len(v.Reasons) != 0 {
		t.Errorf("unexpected reasons: %v", v.Reasons)
	}
}

func TestEvaluate_IneligibleOnWorstDay(t *testing.T) {
	// GIVEN: capacity 1 per day (11 active, 10 minimum) and an approved
	//        request already covering Dec 12
	// WHEN:  a candidate spanning Dec 10..14 is evaluated
	// THEN:  ineligible with a day-level reason naming Dec 12 only

	engine := newEngine(11, 10, nil)
	candidate := pendingReq("cand", "p1", 10, 14)
	approved := []*leave.LeaveRequest{approvedReq("a1", "p2", 12, 12)}

	v, err := engine.Evaluate(context.Background(), candidate, approved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if len(v.Reasons) != 1 {
		t.Fatalf("expected exactly one breached day, got %v", v.Reasons)
	}
	if !strings.Contains(v.Reasons[0], "2025-12-12") {
		t.Errorf("reason should name the breached day: %q", v.Reasons[0])
	}
	if len(v.ConflictingRequestIDs) != 1 || v.ConflictingRequestIDs[0] != "a1" {
		t.Errorf("conflicting IDs = %v, want [a1]", v.ConflictingRequestIDs)
	}
}

func TestEvaluate_ConflictsIncludePendingInSeniorityOrder(t *testing.T) {
	// GIVEN: zero remaining capacity on the candidate's day, one approved
	//        and two pending requests covering it; p-senior outranks p-junior
	// THEN:  conflicting IDs list all three, ordered by seniority

	roster := &leave.StaticRoster{
		Seniority: map[leave.PilotID]int{"p-approved": 50, "p-senior": 1, "p-junior": 80, "cand": 60},
	}
	engine := newEngine(11, 10, roster)
	candidate := pendingReq("cand", "cand", 10, 10)
	approved := []*leave.LeaveRequest{approvedReq("a1", "p-approved", 10, 10)}
	pending := []*leave.LeaveRequest{
		pendingReq("pen-junior", "p-junior", 10, 11),
		pendingReq("pen-senior", "p-senior", 9, 10),
	}

	v, err := engine.Evaluate(context.Background(), candidate, approved, pending)
	if err != nil {
		t.Fatal(err)
	}
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	want := []leave.RequestID{"pen-senior", "a1", "pen-junior"}
	if len(v.ConflictingRequestIDs) != len(want) {
		t.Fatalf("conflicting IDs = %v, want %v", v.ConflictingRequestIDs, want)
	}
	for i := range want {
		if v.ConflictingRequestIDs[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, v.ConflictingRequestIDs[i], want[i])
		}
	}
}

func TestEvaluate_SelfOverlapIsIneligible(t *testing.T) {
	// A pilot with approved leave Dec 10..12 cannot also be granted
	// Dec 12..14, even with plenty of rank capacity.
	engine := newEngine(50, 10, nil)
	candidate := pendingReq("cand", "p1", 12, 14)
	approved := []*leave.LeaveRequest{approvedReq("mine", "p1", 10, 12)}

	v, err := engine.Evaluate(context.Background(), candidate, approved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Eligible {
		t.Fatal("expected ineligible due to self-overlap")
	}
	if !strings.Contains(v.Reasons[0], "mine") {
		t.Errorf("reason should name the overlapping request: %q", v.Reasons[0])
	}
}

func TestEvaluate_LateRequestIsWarningNotRejection(t *testing.T) {
	// GIVEN: a request submitted 5 days before its roster period starts
	//        (window is 21 days) with capacity available
	// THEN:  eligible, with a late warning attached

	engine := newEngine(12, 10, nil)
	candidate := pendingReq("cand", "p1", 10, 10)
	period := engine.Periods.PeriodFor(candidate.Range.Start)
	candidate.SubmittedAt = period.Start.AddDays(-5).Time()

	v, err := engine.Evaluate(context.Background(), candidate, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Eligible {
		t.Fatalf("late submission must never block: %v", v.Reasons)
	}
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "late request") {
		t.Errorf("expected a late-request warning, got %v", v.Warnings)
	}
	if !engine.IsLate(candidate) {
		t.Error("IsLate should report true")
	}
}

func TestEvaluate_TimelySubmissionHasNoWarning(t *testing.T) {
	engine := newEngine(12, 10, nil)
	candidate := pendingReq("cand", "p1", 10, 10)
	period := engine.Periods.PeriodFor(candidate.Range.Start)
	candidate.SubmittedAt = period.Start.AddDays(-45).Time()

	v, err := engine.Evaluate(context.Background(), candidate, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", v.Warnings)
	}
	if engine.IsLate(candidate) {
		t.Error("IsLate should report false")
	}
}
