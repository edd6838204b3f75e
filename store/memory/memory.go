// Package memory provides an in-memory implementation of the leave storage
// interfaces, for tests and development. Safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store implements leave.Store, leave.BidStore, leave.AuditLog, and
// leave.RosterProvider in memory. Values are copied on the way in and out so
// callers can never mutate shared state.
type Store struct {
	mu       sync.RWMutex
	requests map[leave.RequestID]*leave.LeaveRequest
	bids     map[leave.BidID]*leave.LeaveBid
	audit    []leave.AuditEntry
	pilots   map[leave.PilotID]Pilot
}

// Pilot is the roster row the memory store keeps per pilot.
type Pilot struct {
	ID        leave.PilotID
	Name      string
	Rank      leave.Rank
	Seniority int
	Active    bool
}

func New() *Store {
	return &Store{
		requests: make(map[leave.RequestID]*leave.LeaveRequest),
		bids:     make(map[leave.BidID]*leave.LeaveBid),
		pilots:   make(map[leave.PilotID]Pilot),
	}
}

// =============================================================================
// ROSTER PROVIDER
// =============================================================================

// AddPilot registers or replaces a pilot on the roster.
func (s *Store) AddPilot(p Pilot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pilots[p.ID] = p
}

func (s *Store) ActiveCrewCount(_ context.Context, rank leave.Rank) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.pilots {
		if p.Rank == rank && p.Active {
			n++
		}
	}
	return n, nil
}

func (s *Store) SeniorityNumber(_ context.Context, pilotID leave.PilotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pilots[pilotID]
	if !ok {
		return 0, &leave.NotFoundError{Kind: "pilot", ID: string(pilotID)}
	}
	return p.Seniority, nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (s *Store) CreateRequest(_ context.Context, req *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return &leave.ValidationError{Field: "id", Detail: "request id already exists"}
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *Store) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	cp := *req
	return &cp, nil
}

func (s *Store) UpdateStatus(_ context.Context, id leave.RequestID, expected, next leave.Status, review leave.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if req.Status != expected {
		return &leave.StateTransitionError{RequestID: id, Current: req.Status, Attempted: next}
	}
	req.Status = next
	req.ReviewedBy = review.By
	at := review.At
	req.ReviewedAt = &at
	if review.Comment != "" {
		req.Comment = review.Comment
	}
	return nil
}

func (s *Store) ListByStatus(_ context.Context, rank leave.Rank, status leave.Status) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, req := range s.requests {
		if req.Rank == rank && req.Status == status {
			cp := *req
			out = append(out, &cp)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

func (s *Store) ListIntersecting(_ context.Context, rank leave.Rank, rng leave.DateRange, statuses ...leave.Status) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match := make(map[leave.Status]bool, len(statuses))
	for _, st := range statuses {
		match[st] = true
	}
	var out []*leave.LeaveRequest
	for _, req := range s.requests {
		if req.Rank != rank || !match[req.Status] {
			continue
		}
		if leave.Overlaps(rng, req.Range) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

func (s *Store) ListByPilot(_ context.Context, pilotID leave.PilotID) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, req := range s.requests {
		if req.PilotID == pilotID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

func sortBySubmitted(reqs []*leave.LeaveRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].SubmittedAt.Equal(reqs[j].SubmittedAt) {
			return reqs[i].SubmittedAt.Before(reqs[j].SubmittedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
}

// =============================================================================
// BID STORE
// =============================================================================

func (s *Store) CreateBid(_ context.Context, bid *leave.LeaveBid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bids[bid.ID]; exists {
		return &leave.ValidationError{Field: "id", Detail: "bid id already exists"}
	}
	cp := *bid
	cp.Options = append([]leave.DateRange(nil), bid.Options...)
	s.bids[bid.ID] = &cp
	return nil
}

func (s *Store) GetBid(_ context.Context, id leave.BidID) (*leave.LeaveBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bid, ok := s.bids[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "bid", ID: string(id)}
	}
	cp := *bid
	cp.Options = append([]leave.DateRange(nil), bid.Options...)
	return &cp, nil
}

func (s *Store) UpdateBidStatus(_ context.Context, id leave.BidID, expected, next leave.BidStatus, resolvedRequestID leave.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return &leave.NotFoundError{Kind: "bid", ID: string(id)}
	}
	if bid.Status != expected {
		return &leave.ValidationError{Field: "status", Detail: "bid is " + string(bid.Status) + ", expected " + string(expected)}
	}
	bid.Status = next
	bid.ResolvedRequestID = resolvedRequestID
	return nil
}

func (s *Store) ListBids(_ context.Context, rank leave.Rank, status leave.BidStatus) ([]*leave.LeaveBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.LeaveBid
	for _, bid := range s.bids {
		if bid.Rank == rank && bid.Status == status {
			cp := *bid
			cp.Options = append([]leave.DateRange(nil), bid.Options...)
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(_ context.Context, entry leave.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) QueryAudit(_ context.Context, filter leave.AuditFilter) ([]leave.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []leave.AuditEntry
	for _, e := range s.audit {
		if filter.RequestID != nil && e.RequestID != *filter.RequestID {
			continue
		}
		if filter.PilotID != nil && e.PilotID != *filter.PilotID {
			continue
		}
		if filter.ActorID != nil && e.ActorID != *filter.ActorID {
			continue
		}
		if len(filter.Actions) > 0 && !containsAction(filter.Actions, e.Action) {
			continue
		}
		if filter.From != nil && e.At.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.At.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func containsAction(actions []leave.AuditAction, a leave.AuditAction) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
