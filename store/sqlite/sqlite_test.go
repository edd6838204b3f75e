package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testRequest(id string, start, end leave.Date) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:           leave.RequestID(id),
		PilotID:      "p1",
		Rank:         leave.RankCaptain,
		Range:        leave.NewDateRange(start, end),
		Status:       leave.StatusPending,
		SubmittedAt:  time.Date(2025, time.September, 1, 9, 30, 0, 0, time.UTC),
		RosterPeriod: "RP13/2025",
	}
}

func dec(day int) leave.Date { return leave.NewDate(2025, time.December, day) }

func TestRequestRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	in := testRequest("req-1", dec(10), dec(14))
	in.IsLateRequest = true
	require.NoError(t, st.CreateRequest(ctx, in))

	out, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.PilotID, out.PilotID)
	assert.Equal(t, in.Rank, out.Rank)
	assert.True(t, out.Range.Start.Equal(dec(10)))
	assert.True(t, out.Range.End.Equal(dec(14)))
	assert.Equal(t, leave.StatusPending, out.Status)
	assert.True(t, out.SubmittedAt.Equal(in.SubmittedAt))
	assert.Equal(t, "RP13/2025", out.RosterPeriod)
	assert.True(t, out.IsLateRequest)
	assert.Nil(t, out.ReviewedAt)
}

func TestGetRequest_Unknown(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRequest(context.Background(), "ghost")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestUpdateStatus_CompareAndSet(t *testing.T) {
	// The WHERE status = expected guard is what makes two racing writers
	// safe: the second one learns the status actually found.
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateRequest(ctx, testRequest("req-1", dec(10), dec(12))))

	now := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
	err := st.UpdateStatus(ctx, "req-1", leave.StatusPending, leave.StatusApproved,
		leave.Review{By: "admin", At: now})
	require.NoError(t, err)

	out, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, out.Status)
	assert.Equal(t, "admin", out.ReviewedBy)
	require.NotNil(t, out.ReviewedAt)
	assert.True(t, out.ReviewedAt.Equal(now))

	// Second CAS against PENDING loses and reports the current status.
	err = st.UpdateStatus(ctx, "req-1", leave.StatusPending, leave.StatusApproved,
		leave.Review{By: "admin2", At: now})
	var ste *leave.StateTransitionError
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, leave.StatusApproved, ste.Current)

	// Unknown ID surfaces not-found, not a transition error.
	err = st.UpdateStatus(ctx, "ghost", leave.StatusPending, leave.StatusApproved,
		leave.Review{By: "admin", At: now})
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestUpdateStatus_CommentPreservedWhenEmpty(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	req := testRequest("req-1", dec(10), dec(12))
	req.Comment = "original note"
	require.NoError(t, st.CreateRequest(ctx, req))

	err := st.UpdateStatus(ctx, "req-1", leave.StatusPending, leave.StatusCancelled,
		leave.Review{By: "p1", At: time.Now().UTC()})
	require.NoError(t, err)

	out, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "original note", out.Comment, "empty review comment must not erase the stored one")
}

func TestListIntersecting_BoundaryBehavior(t *testing.T) {
	// Ranges are inclusive on both ends: a request ending on the query's
	// start day intersects; one ending the day before does not.
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateRequest(ctx, testRequest("touch-start", dec(5), dec(10))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("before", dec(5), dec(9))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("touch-end", dec(14), dec(20))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("after", dec(15), dec(20))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("inside", dec(11), dec(12))))

	got, err := st.ListIntersecting(ctx, leave.RankCaptain, leave.NewDateRange(dec(10), dec(14)), leave.StatusPending)
	require.NoError(t, err)

	ids := make([]leave.RequestID, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []leave.RequestID{"touch-start", "touch-end", "inside"}, ids)
}

func TestListIntersecting_FiltersRankAndStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	fo := testRequest("fo-req", dec(10), dec(12))
	fo.Rank = leave.RankFirstOfficer
	require.NoError(t, st.CreateRequest(ctx, fo))

	appr := testRequest("cpt-approved", dec(10), dec(12))
	appr.Status = leave.StatusApproved
	require.NoError(t, st.CreateRequest(ctx, appr))
	require.NoError(t, st.CreateRequest(ctx, testRequest("cpt-pending", dec(10), dec(12))))

	got, err := st.ListIntersecting(ctx, leave.RankCaptain, leave.NewDateRange(dec(10), dec(12)),
		leave.StatusApproved, leave.StatusPending)
	require.NoError(t, err)
	require.Len(t, got, 2, "first-officer rows must not leak into the captain query")

	onlyApproved, err := st.ListIntersecting(ctx, leave.RankCaptain, leave.NewDateRange(dec(10), dec(12)),
		leave.StatusApproved)
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	assert.Equal(t, leave.RequestID("cpt-approved"), onlyApproved[0].ID)
}

func TestListByStatus_OrderedBySubmission(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	late := testRequest("late", dec(10), dec(12))
	late.SubmittedAt = time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	early := testRequest("early", dec(20), dec(22))
	early.SubmittedAt = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateRequest(ctx, late))
	require.NoError(t, st.CreateRequest(ctx, early))

	got, err := st.ListByStatus(ctx, leave.RankCaptain, leave.StatusPending)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, leave.RequestID("early"), got[0].ID)
	assert.Equal(t, leave.RequestID("late"), got[1].ID)
}

func TestRoster_CountsAndSeniority(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.UpsertPilot(ctx, Pilot{ID: "c1", Name: "A", Rank: leave.RankCaptain, Seniority: 1, Active: true}))
	require.NoError(t, st.UpsertPilot(ctx, Pilot{ID: "c2", Name: "B", Rank: leave.RankCaptain, Seniority: 2, Active: true}))
	require.NoError(t, st.UpsertPilot(ctx, Pilot{ID: "c3", Name: "C", Rank: leave.RankCaptain, Seniority: 3, Active: false}))
	require.NoError(t, st.UpsertPilot(ctx, Pilot{ID: "f1", Name: "D", Rank: leave.RankFirstOfficer, Seniority: 4, Active: true}))

	n, err := st.ActiveCrewCount(ctx, leave.RankCaptain)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "inactive pilots do not count toward crew")

	sn, err := st.SeniorityNumber(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 2, sn)

	_, err = st.SeniorityNumber(ctx, "ghost")
	assert.ErrorIs(t, err, leave.ErrNotFound)

	// Upsert replaces in place.
	require.NoError(t, st.UpsertPilot(ctx, Pilot{ID: "c3", Name: "C", Rank: leave.RankCaptain, Seniority: 3, Active: true}))
	n, err = st.ActiveCrewCount(ctx, leave.RankCaptain)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pilots, err := st.ListPilots(ctx)
	require.NoError(t, err)
	require.Len(t, pilots, 4)
	assert.Equal(t, leave.PilotID("c1"), pilots[0].ID, "ordered by seniority")
}

func TestBidRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	in := &leave.LeaveBid{
		ID:           "bid-1",
		PilotID:      "p1",
		Rank:         leave.RankCaptain,
		Options:      []leave.DateRange{leave.NewDateRange(dec(10), dec(14)), leave.NewDateRange(dec(20), dec(24))},
		RosterPeriod: "RP13/2025",
		Status:       leave.BidOpen,
		SubmittedAt:  time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.CreateBid(ctx, in))

	out, err := st.GetBid(ctx, "bid-1")
	require.NoError(t, err)
	require.Len(t, out.Options, 2, "option order survives the JSON column")
	assert.True(t, out.Options[0].Start.Equal(dec(10)))
	assert.True(t, out.Options[1].End.Equal(dec(24)))
	assert.Equal(t, leave.BidOpen, out.Status)

	require.NoError(t, st.UpdateBidStatus(ctx, "bid-1", leave.BidOpen, leave.BidResolved, "req-9"))
	out, err = st.GetBid(ctx, "bid-1")
	require.NoError(t, err)
	assert.Equal(t, leave.BidResolved, out.Status)
	assert.Equal(t, leave.RequestID("req-9"), out.ResolvedRequestID)

	// CAS against the stale status fails without touching the row.
	err = st.UpdateBidStatus(ctx, "bid-1", leave.BidOpen, leave.BidWithdrawn, "")
	assert.ErrorIs(t, err, leave.ErrValidation)

	open, err := st.ListBids(ctx, leave.RankCaptain, leave.BidOpen)
	require.NoError(t, err)
	assert.Empty(t, open)
	resolved, err := st.ListBids(ctx, leave.RankCaptain, leave.BidResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
}

func TestAudit_AppendAndFilter(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)
	entries := []leave.AuditEntry{
		{ID: "e1", At: base, ActorID: "p1", Action: leave.AuditRequestSubmitted, RequestID: "req-1", PilotID: "p1", Rank: leave.RankCaptain},
		{ID: "e2", At: base.Add(time.Hour), ActorID: "admin", Action: leave.AuditRequestApproved, RequestID: "req-1", PilotID: "p1", Rank: leave.RankCaptain},
		{ID: "e3", At: base.Add(2 * time.Hour), ActorID: "admin", Action: leave.AuditRequestRejected, RequestID: "req-2", PilotID: "p2", Rank: leave.RankCaptain},
	}
	for _, e := range entries {
		require.NoError(t, st.AppendAudit(ctx, e))
	}

	reqID := leave.RequestID("req-1")
	got, err := st.QueryAudit(ctx, leave.AuditFilter{RequestID: &reqID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID, "ordered by time")
	assert.Equal(t, "e2", got[1].ID)

	actor := "admin"
	got, err = st.QueryAudit(ctx, leave.AuditFilter{
		ActorID: &actor,
		Actions: []leave.AuditAction{leave.AuditRequestRejected},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)

	from := base.Add(30 * time.Minute)
	got, err = st.QueryAudit(ctx, leave.AuditFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// The engine runs against this store in production; keep the contracts pinned.
var (
	_ leave.Store          = (*Store)(nil)
	_ leave.BidStore       = (*Store)(nil)
	_ leave.AuditLog       = (*Store)(nil)
	_ leave.RosterProvider = (*Store)(nil)
)
