/*
conflict.go - Reviewer-facing contention reports and optional batch policy

PURPOSE:
  When eligibility fails because other requests exhaust capacity, someone
  has to choose. The engine does NOT auto-resolve contention among PENDING
  requests by default: the ConflictReport gives the reviewer the ranked
  picture and the admin decides.

  Greedy seniority-based batch resolution is an OPT-IN integrator policy.
  Even then, every individual admission routes through the atomic approval
  transaction; the batch is just a caller.

SEE ALSO:
  - seniority.go: The ordering behind the ranking
  - service.go: The transaction every admission goes through
*/
package leave

import (
	"context"
	"errors"
)

// =============================================================================
// CONFLICT RESOLVER
// =============================================================================

// Contender is one competing request with the context a reviewer needs.
type Contender struct {
	Request         *LeaveRequest
	SeniorityNumber int
}

// ConflictReport describes who is competing for the capacity a candidate
// needs, most senior first.
type ConflictReport struct {
	CandidateID RequestID
	Rank        Rank
	Range       DateRange

	// Contenders are the PENDING and APPROVED requests intersecting the
	// candidate's range, in seniority order.
	Contenders []Contender
}

// ConflictResolver assembles competing-request information for reviewers.
type ConflictResolver struct {
	Store     Store
	Seniority *SeniorityResolver
}

// Report lists the requests contending with the candidate's range. Purely
// informational; takes no lock.
func (c *ConflictResolver) Report(ctx context.Context, candidate *LeaveRequest) (*ConflictReport, error) {
	others, err := c.Store.ListIntersecting(ctx, candidate.Rank, candidate.Range, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}
	others = Intersecting(candidate.Range, others, candidate.ID)

	ranked, err := c.Seniority.Order(ctx, others)
	if err != nil {
		return nil, err
	}

	report := &ConflictReport{CandidateID: candidate.ID, Rank: candidate.Rank, Range: candidate.Range}
	for _, r := range ranked {
		report.Contenders = append(report.Contenders, Contender{
			Request:         r.Request,
			SeniorityNumber: r.SeniorityNumber,
		})
	}
	return report, nil
}

// =============================================================================
// GREEDY BATCH RESOLUTION - Optional integrator policy, off by default
// =============================================================================

// BatchOutcome records what a greedy resolution pass did.
type BatchOutcome struct {
	Approved []RequestID

	// Skipped maps request IDs to the reason they were not admitted
	// (conflict, capacity, state change).
	Skipped map[RequestID]string
}

// ResolvePendingGreedy walks the PENDING queue for a rank in seniority
// order, admitting each request through the approval transaction until
// capacity declines the rest. It never overrides the transaction's verdict:
// a request the re-check declines stays PENDING for the admin.
func ResolvePendingGreedy(ctx context.Context, svc *Service, rank Rank, adminID string) (*BatchOutcome, error) {
	queue, err := svc.PendingByRank(ctx, rank)
	if err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{Skipped: make(map[RequestID]string)}
	for _, entry := range queue {
		id := entry.Request.ID
		if _, err := svc.ApproveLeaveRequest(ctx, id, adminID); err != nil {
			if IsClientError(err) {
				outcome.Skipped[id] = err.Error()
				continue
			}
			if errors.Is(err, ErrLockTimeout) {
				outcome.Skipped[id] = err.Error()
				continue
			}
			return outcome, err
		}
		outcome.Approved = append(outcome.Approved, id)
	}
	return outcome, nil
}
