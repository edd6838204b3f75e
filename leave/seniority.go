/*
seniority.go - Ordering of competing requests

PURPOSE:
  Orders requests contending for the same rank/day capacity so the review
  surface can show who is in line first. The ordering is ADVISORY: it never
  grants anything by itself; admission still goes through the eligibility
  engine and the approval transaction.

ORDERING:
  1. Seniority number ascending (lower = more senior, wins)
  2. SubmittedAt ascending (first submitted wins)
  3. Request ID ascending

  Rule 3 is our deterministic default for the case the business has not
  decided: two requests with identical seniority AND identical submission
  time. First-submitted-wins plus the ID comparator keeps the order total
  and stable across runs; pending product clarification.
*/
package leave

import (
	"context"
	"math"
	"sort"
)

// =============================================================================
// SENIORITY RESOLVER
// =============================================================================

// SeniorityResolver orders contending requests by pilot seniority.
type SeniorityResolver struct {
	Roster RosterProvider
}

// RankedRequest pairs a request with the seniority number used to order it.
type RankedRequest struct {
	Request *LeaveRequest

	// SeniorityNumber is math.MaxInt when the pilot is unknown to the
	// roster; such requests sort last and fall back to submission time.
	SeniorityNumber int
}

// Order returns the requests sorted by seniority, then submission time, then
// ID. The input slice is not modified.
func (s *SeniorityResolver) Order(ctx context.Context, requests []*LeaveRequest) ([]RankedRequest, error) {
	ranked := make([]RankedRequest, 0, len(requests))
	for _, r := range requests {
		n, err := s.Roster.SeniorityNumber(ctx, r.PilotID)
		if err != nil {
			if !IsNotFound(err) {
				return nil, err
			}
			n = math.MaxInt
		}
		ranked = append(ranked, RankedRequest{Request: r, SeniorityNumber: n})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.SeniorityNumber != b.SeniorityNumber {
			return a.SeniorityNumber < b.SeniorityNumber
		}
		if !a.Request.SubmittedAt.Equal(b.Request.SubmittedAt) {
			return a.Request.SubmittedAt.Before(b.Request.SubmittedAt)
		}
		return a.Request.ID < b.Request.ID
	})
	return ranked, nil
}

// OrderIDs is Order reduced to the request IDs, for verdicts and error
// payloads.
func (s *SeniorityResolver) OrderIDs(ctx context.Context, requests []*LeaveRequest) ([]RequestID, error) {
	ranked, err := s.Order(ctx, requests)
	if err != nil {
		return nil, err
	}
	ids := make([]RequestID, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Request.ID)
	}
	return ids, nil
}
