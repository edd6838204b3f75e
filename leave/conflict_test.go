package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

func TestConflictResolver_RanksContenders(t *testing.T) {
	// GIVEN: a candidate range and three other requests touching it, owned
	//        by pilots of seniority 3, 1, 2
	// THEN:  the report lists them most senior first, candidate excluded

	ctx := context.Background()
	st, svc := fixture(t, 3, 0)
	cand := seedRequest(t, st, "cand", "b-captain", 10, 14, leave.StatusPending)
	seedRequest(t, st, "from-c", "c-captain", 12, 16, leave.StatusPending)
	seedRequest(t, st, "from-a", "a-captain", 8, 10, leave.StatusApproved)
	seedRequest(t, st, "outside", "a-captain", 20, 22, leave.StatusPending)

	resolver := &leave.ConflictResolver{Store: st, Seniority: svc.Seniority()}
	report, err := resolver.Report(ctx, cand)
	require.NoError(t, err)

	assert.Equal(t, leave.RequestID("cand"), report.CandidateID)
	require.Len(t, report.Contenders, 2, "non-overlapping requests stay out")
	assert.Equal(t, leave.RequestID("from-a"), report.Contenders[0].Request.ID)
	assert.Equal(t, 1, report.Contenders[0].SeniorityNumber)
	assert.Equal(t, leave.RequestID("from-c"), report.Contenders[1].Request.ID)
}

func TestResolvePendingGreedy_AdmitsBySeniorityUntilCapacityDeclines(t *testing.T) {
	// GIVEN: capacity 2 per day and three PENDING single-day requests for
	//        the same day, owned by pilots of seniority 1, 2, 3
	// WHEN:  the greedy batch pass runs
	// THEN:  the two most senior are approved; the junior is skipped and
	//        stays PENDING for the admin

	ctx := context.Background()
	st, svc := fixture(t, 12, 10)
	seedRequest(t, st, "jr", "c-captain", 12, 12, leave.StatusPending)
	seedRequest(t, st, "mid", "b-captain", 12, 12, leave.StatusPending)
	seedRequest(t, st, "sr", "a-captain", 12, 12, leave.StatusPending)

	outcome, err := leave.ResolvePendingGreedy(ctx, svc, leave.RankCaptain, "admin")
	require.NoError(t, err)

	assert.Equal(t, []leave.RequestID{"sr", "mid"}, outcome.Approved)
	require.Contains(t, outcome.Skipped, leave.RequestID("jr"))

	left, err := st.GetRequest(ctx, "jr")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, left.Status, "a declined admission is never mutated")
}
