/*
service.go - Exposed operations and the atomic approval transaction

PURPOSE:
  The engine's public surface: submit, evaluate, approve, reject, cancel,
  plus the reviewer listings. Approval and capacity-releasing cancellation
  are the concurrency-correctness core.

WHY THE LOCK EXISTS:
  The availability read and the status write are logically one operation.
  Without serialization, two concurrent approvals intersecting the same
  rank/day each read "capacity available" before either commits, both pass
  eligibility, and jointly overcommit the minimum-crew invariant. The fix:

    1. Acquire the exclusive per-rank lock (with timeout)
    2. Reload the request and verify it is still PENDING
    3. Re-run eligibility against CURRENT persisted state
    4. Write the transition
    5. Release; notify and audit outside the lock

  Cancelling an APPROVED request releases capacity, so it takes the SAME
  rank lock; a cancellation and a concurrent approval can never race.

LOCK DISCIPLINE:
  Held only for reload -> re-check -> write (store calls only, no network,
  no notification). Acquisition times out rather than deadlocking and is
  retried internally before ErrLockTimeout surfaces.

SEE ALSO:
  - locks.go: The per-rank semaphore
  - eligibility.go: The rule engine re-run inside the lock
  - conflict.go: Reviewer-facing contention reports
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// SERVICE CONFIGURATION
// =============================================================================

// Options tunes the engine. Zero values fall back to the defaults below.
type Options struct {
	// MinimumRequired per rank; pilots that must remain on duty every day.
	MinimumRequired map[Rank]int

	// LateWindowDays before the roster period start (default 21).
	LateWindowDays int

	// LockTimeout per acquisition attempt (default 5s).
	LockTimeout time.Duration

	// LockRetries: extra internal attempts after a timeout before
	// ErrLockTimeout surfaces (default 2).
	LockRetries int

	Periods  RosterPeriodTable
	Notifier Notifier
	Audit    AuditLog
	Bids     BidStore
	Logger   *zap.Logger
}

const (
	defaultLateWindowDays = 21
	defaultLockTimeout    = 5 * time.Second
	defaultLockRetries    = 2
)

// =============================================================================
// SERVICE
// =============================================================================

// Service wires the engine components over a Store and RosterProvider.
type Service struct {
	store  Store
	roster RosterProvider

	availability *AvailabilityCalculator
	eligibility  *EligibilityEngine
	seniority    *SeniorityResolver

	locks       *rankLocks
	lockRetries int

	notifier Notifier
	audit    AuditLog
	bids     BidStore
	logger   *zap.Logger
}

// NewService builds a Service. store and roster are required.
func NewService(store Store, roster RosterProvider, opts Options) *Service {
	if opts.LateWindowDays == 0 {
		opts.LateWindowDays = defaultLateWindowDays
	}
	if opts.LockTimeout == 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.LockRetries == 0 {
		opts.LockRetries = defaultLockRetries
	}
	if opts.Periods.LengthDays == 0 {
		opts.Periods = DefaultRosterPeriodTable()
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	avail := &AvailabilityCalculator{Roster: roster, MinimumRequired: opts.MinimumRequired}
	seniority := &SeniorityResolver{Roster: roster}
	return &Service{
		store:  store,
		roster: roster,
		availability: avail,
		eligibility: &EligibilityEngine{
			Availability:   avail,
			Seniority:      seniority,
			Periods:        opts.Periods,
			LateWindowDays: opts.LateWindowDays,
		},
		seniority:   seniority,
		locks:       newRankLocks(opts.LockTimeout),
		lockRetries: opts.LockRetries,
		notifier:    opts.Notifier,
		audit:       opts.Audit,
		bids:        opts.Bids,
		logger:      opts.Logger.Named("leave.service"),
	}
}

// Availability exposes the calculator for reporting surfaces.
func (s *Service) Availability() *AvailabilityCalculator { return s.availability }

// Seniority exposes the resolver for reporting surfaces.
func (s *Service) Seniority() *SeniorityResolver { return s.seniority }

// =============================================================================
// SUBMIT
// =============================================================================

// SubmitResult is returned from SubmitLeaveRequest.
type SubmitResult struct {
	Request  *LeaveRequest
	Warnings []string
}

// SubmitLeaveRequest validates and persists a new PENDING request. Fails
// with ValidationError before anything is persisted; a late submission is a
// warning, never a rejection.
func (s *Service) SubmitLeaveRequest(ctx context.Context, pilotID PilotID, rank Rank, rng DateRange) (*SubmitResult, error) {
	if pilotID == "" {
		return nil, &ValidationError{Field: "pilotId", Detail: "must not be empty"}
	}
	if _, err := ParseRank(string(rank)); err != nil {
		return nil, err
	}
	if rng.Start.IsZero() || rng.End.IsZero() {
		return nil, &ValidationError{Field: "dateRange", Detail: "start and end dates are required"}
	}
	if !rng.Valid() {
		return nil, &ValidationError{Field: "dateRange", Detail: fmt.Sprintf("start date %s is after end date %s", rng.Start, rng.End)}
	}
	if _, err := s.roster.SeniorityNumber(ctx, pilotID); err != nil && !IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	req := &LeaveRequest{
		ID:           RequestID(uuid.NewString()),
		PilotID:      pilotID,
		Rank:         rank,
		Range:        rng,
		Status:       StatusPending,
		SubmittedAt:  now,
		RosterPeriod: s.eligibility.Periods.PeriodFor(rng.Start).Code,
	}
	req.IsLateRequest = s.eligibility.IsLate(req)

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", string(req.ID)),
		zap.String("pilot_id", string(pilotID)),
		zap.String("rank", string(rank)),
		zap.String("range", rng.String()),
		zap.Bool("late", req.IsLateRequest),
	)
	s.appendAudit(ctx, AuditRequestSubmitted, req, string(pilotID), "")

	res := &SubmitResult{Request: req}
	if req.IsLateRequest {
		res.Warnings = append(res.Warnings, s.eligibility.lateWarning(req))
	}
	return res, nil
}

// =============================================================================
// EVALUATE - Advisory, read-only, no lock
// =============================================================================

// EvaluateEligibility returns the advisory verdict for a stored request.
// Safe to call freely from display surfaces; takes no lock.
func (s *Service) EvaluateEligibility(ctx context.Context, id RequestID) (*Verdict, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, req)
}

// evaluate runs the engine against fresh reads. Callers on the commit path
// invoke it while holding the rank lock so the snapshot cannot go stale
// before the write.
func (s *Service) evaluate(ctx context.Context, req *LeaveRequest) (*Verdict, error) {
	approved, err := s.store.ListIntersecting(ctx, req.Rank, req.Range, StatusApproved)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.ListIntersecting(ctx, req.Rank, req.Range, StatusPending)
	if err != nil {
		return nil, err
	}
	return s.eligibility.Evaluate(ctx, req, approved, pending)
}

// =============================================================================
// APPROVE - The atomic approval transaction
// =============================================================================

// ApproveLeaveRequest commits a PENDING request to APPROVED, guaranteeing
// the minimum-crew invariant even under concurrent reviewers. Returns the
// approved request, or:
//   - StateTransitionError when the request is not PENDING at lock
//     acquisition (carries the status actually found)
//   - ConflictError when the re-check inside the lock fails
//   - LockTimeoutError after internal retries are exhausted
func (s *Service) ApproveLeaveRequest(ctx context.Context, id RequestID, adminID string) (*LeaveRequest, error) {
	req, err := s.withRankLock(ctx, id, func(ctx context.Context, current *LeaveRequest) (*LeaveRequest, error) {
		if current.Status != StatusPending {
			return nil, &StateTransitionError{RequestID: id, Current: current.Status, Attempted: StatusApproved}
		}

		verdict, err := s.evaluate(ctx, current)
		if err != nil {
			return nil, err
		}
		if !verdict.Eligible {
			return nil, &ConflictError{
				RequestID:             id,
				Rank:                  current.Rank,
				Reasons:               verdict.Reasons,
				ConflictingRequestIDs: verdict.ConflictingRequestIDs,
			}
		}

		now := time.Now().UTC()
		review := Review{By: adminID, At: now}
		if err := s.store.UpdateStatus(ctx, id, StatusPending, StatusApproved, review); err != nil {
			return nil, err
		}
		current.Status = StatusApproved
		current.ReviewedBy = adminID
		current.ReviewedAt = &now
		return current, nil
	})
	if err != nil {
		s.logDecisionFailure("approve", id, adminID, err)
		return nil, err
	}

	s.logger.Info("leave request approved",
		zap.String("request_id", string(id)),
		zap.String("admin_id", adminID),
		zap.String("rank", string(req.Rank)),
	)
	s.appendAudit(ctx, AuditRequestApproved, req, adminID, "")
	s.notifier.Notify(ctx, req.PilotID, StatusApproved, "")
	return req, nil
}

// =============================================================================
// REJECT - No capacity check; rejection only leaves capacity unaffected
// =============================================================================

// RejectLeaveRequest moves a PENDING request to REJECTED. No lock: the
// store's compare-and-set is enough, because rejection never consumes or
// releases capacity.
func (s *Service) RejectLeaveRequest(ctx context.Context, id RequestID, adminID, comment string) (*LeaveRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &StateTransitionError{RequestID: id, Current: req.Status, Attempted: StatusRejected}
	}

	now := time.Now().UTC()
	review := Review{By: adminID, At: now, Comment: comment}
	if err := s.store.UpdateStatus(ctx, id, StatusPending, StatusRejected, review); err != nil {
		return nil, err
	}
	req.Status = StatusRejected
	req.ReviewedBy = adminID
	req.ReviewedAt = &now
	req.Comment = comment

	s.logger.Info("leave request rejected",
		zap.String("request_id", string(id)),
		zap.String("admin_id", adminID),
	)
	s.appendAudit(ctx, AuditRequestRejected, req, adminID, comment)
	s.notifier.Notify(ctx, req.PilotID, StatusRejected, comment)
	return req, nil
}

// =============================================================================
// CANCEL - Lock-guarded when it releases capacity
// =============================================================================

// CancelLeaveRequest moves a PENDING or APPROVED request to CANCELLED.
// Cancelling APPROVED leave releases capacity, so it runs under the same
// rank lock as approval; cancelling PENDING leave is a plain
// compare-and-set.
func (s *Service) CancelLeaveRequest(ctx context.Context, id RequestID, actorID string) (*LeaveRequest, error) {
	req, err := s.withRankLock(ctx, id, func(ctx context.Context, current *LeaveRequest) (*LeaveRequest, error) {
		if !CanTransition(current.Status, StatusCancelled) {
			return nil, &StateTransitionError{RequestID: id, Current: current.Status, Attempted: StatusCancelled}
		}

		now := time.Now().UTC()
		review := Review{By: actorID, At: now}
		if err := s.store.UpdateStatus(ctx, id, current.Status, StatusCancelled, review); err != nil {
			return nil, err
		}
		current.Status = StatusCancelled
		current.ReviewedBy = actorID
		current.ReviewedAt = &now
		return current, nil
	})
	if err != nil {
		s.logDecisionFailure("cancel", id, actorID, err)
		return nil, err
	}

	s.logger.Info("leave request cancelled",
		zap.String("request_id", string(id)),
		zap.String("actor_id", actorID),
	)
	s.appendAudit(ctx, AuditRequestCancelled, req, actorID, "")
	s.notifier.Notify(ctx, req.PilotID, StatusCancelled, "")
	return req, nil
}

// =============================================================================
// LISTINGS
// =============================================================================

// PendingByRank returns the PENDING queue for a rank in seniority order.
func (s *Service) PendingByRank(ctx context.Context, rank Rank) ([]RankedRequest, error) {
	pending, err := s.store.ListByStatus(ctx, rank, StatusPending)
	if err != nil {
		return nil, err
	}
	return s.seniority.Order(ctx, pending)
}

// AvailabilityReport returns the per-day capacity breakdown for a rank.
func (s *Service) AvailabilityReport(ctx context.Context, rank Rank, rng DateRange) ([]DayAvailability, error) {
	if !rng.Valid() {
		return nil, &ValidationError{Field: "dateRange", Detail: "start date is after end date"}
	}
	approved, err := s.store.ListIntersecting(ctx, rank, rng, StatusApproved)
	if err != nil {
		return nil, err
	}
	return s.availability.Report(ctx, rank, rng, approved)
}

// GetRequest returns a stored request.
func (s *Service) GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// =============================================================================
// BIDS - Preference artifacts, never capacity-consuming
// =============================================================================

// SubmitBid stores a pilot's ranked leave preferences for the roster period
// containing the first option. Bids never touch capacity; an external batch
// process resolves them into concrete requests.
func (s *Service) SubmitBid(ctx context.Context, pilotID PilotID, rank Rank, options []DateRange) (*LeaveBid, error) {
	if s.bids == nil {
		return nil, &ValidationError{Field: "bids", Detail: "bid store not configured"}
	}
	if pilotID == "" {
		return nil, &ValidationError{Field: "pilotId", Detail: "must not be empty"}
	}
	if _, err := ParseRank(string(rank)); err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, &ValidationError{Field: "options", Detail: "at least one option is required"}
	}
	for i, o := range options {
		if !o.Valid() {
			return nil, &ValidationError{Field: "options", Detail: fmt.Sprintf("option %d: start date %s is after end date %s", i+1, o.Start, o.End)}
		}
	}

	bid := &LeaveBid{
		ID:           BidID(uuid.NewString()),
		PilotID:      pilotID,
		Rank:         rank,
		Options:      options,
		RosterPeriod: s.eligibility.Periods.PeriodFor(options[0].Start).Code,
		Status:       BidOpen,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.bids.CreateBid(ctx, bid); err != nil {
		return nil, err
	}

	s.logger.Info("leave bid submitted",
		zap.String("bid_id", string(bid.ID)),
		zap.String("pilot_id", string(pilotID)),
		zap.String("rank", string(rank)),
		zap.Int("options", len(options)),
	)
	if s.audit != nil {
		s.appendAudit(ctx, AuditBidSubmitted, &LeaveRequest{PilotID: pilotID, Rank: rank}, string(pilotID), "bid "+string(bid.ID))
	}
	return bid, nil
}

// WithdrawBid moves an OPEN bid to WITHDRAWN.
func (s *Service) WithdrawBid(ctx context.Context, id BidID, actorID string) (*LeaveBid, error) {
	if s.bids == nil {
		return nil, &ValidationError{Field: "bids", Detail: "bid store not configured"}
	}
	if err := s.bids.UpdateBidStatus(ctx, id, BidOpen, BidWithdrawn, ""); err != nil {
		return nil, err
	}
	bid, err := s.bids.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.appendAudit(ctx, AuditBidWithdrawn, &LeaveRequest{PilotID: bid.PilotID, Rank: bid.Rank}, actorID, "bid "+string(id))
	}
	return bid, nil
}

// ListBids lists bids for a rank and status.
func (s *Service) ListBids(ctx context.Context, rank Rank, status BidStatus) ([]*LeaveBid, error) {
	if s.bids == nil {
		return nil, &ValidationError{Field: "bids", Detail: "bid store not configured"}
	}
	return s.bids.ListBids(ctx, rank, status)
}

// =============================================================================
// CRITICAL SECTION PLUMBING
// =============================================================================

// withRankLock loads the request (to learn its rank), then runs fn while
// holding that rank's lock, reloading the request inside the lock so fn
// always sees current persisted state. Lock timeouts are retried up to
// lockRetries times before surfacing.
func (s *Service) withRankLock(ctx context.Context, id RequestID, fn func(context.Context, *LeaveRequest) (*LeaveRequest, error)) (*LeaveRequest, error) {
	// Pre-read outside the lock, only to learn which rank to lock.
	pre, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	attempts := 1 + s.lockRetries
	for attempt := 1; ; attempt++ {
		err := s.locks.acquire(ctx, pre.Rank)
		if err == nil {
			break
		}
		if IsRetryable(err) && attempt < attempts {
			s.logger.Debug("rank lock busy, retrying",
				zap.String("rank", string(pre.Rank)),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if IsRetryable(err) {
			return nil, &LockTimeoutError{Rank: pre.Rank, Attempts: attempts}
		}
		return nil, err
	}
	defer s.locks.release(pre.Rank)

	// Reload inside the lock: the pre-read may already be stale.
	current, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return fn(ctx, current)
}

func (s *Service) appendAudit(ctx context.Context, action AuditAction, req *LeaveRequest, actorID, detail string) {
	if s.audit == nil {
		return
	}
	entry := AuditEntry{
		ID:        uuid.NewString(),
		At:        time.Now().UTC(),
		ActorID:   actorID,
		Action:    action,
		RequestID: req.ID,
		PilotID:   req.PilotID,
		Rank:      req.Rank,
		Detail:    detail,
	}
	if err := s.audit.AppendAudit(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			zap.String("request_id", string(req.ID)),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (s *Service) logDecisionFailure(op string, id RequestID, actorID string, err error) {
	if IsClientError(err) || IsNotFound(err) {
		s.logger.Warn(op+" declined",
			zap.String("request_id", string(id)),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
		return
	}
	// Unexpected failure: correlate, surface generically upstream.
	s.logger.Error(op+" failed",
		zap.String("request_id", string(id)),
		zap.String("actor_id", actorID),
		zap.String("correlation_id", uuid.NewString()),
		zap.Error(err),
	)
}
