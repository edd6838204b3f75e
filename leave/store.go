/*
store.go - Persistence interfaces for requests, bids, and audit entries

PURPOSE:
  Defines the boundary between the engine and the database. Implementations
  must provide ordinary read consistency for the listing calls and a
  compare-and-set for status transitions; the engine's rank lock supplies
  the serialization on top.

FRESHNESS CONTRACT:
  ListApproved / ListByStatus read current persisted state every call. The
  engine never caches the approved set in process memory: the approval
  transaction re-reads inside the rank lock, so staleness cannot cause a
  missed conflict.

COMPARE-AND-SET:
  UpdateStatus only applies when the row still holds the expected status,
  returning StateTransitionError otherwise. This backstops the rank lock:
  even a buggy caller path cannot skip a state.

IMPLEMENTATIONS:
  - store/memory: In-memory for tests/dev
  - store/sqlite: Production SQLite

SEE ALSO:
  - service.go: The only writer
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// REQUEST STORE
// =============================================================================

// Review captures who decided and when, written with a status transition.
type Review struct {
	By      string
	At      time.Time
	Comment string
}

// Store persists leave requests.
type Store interface {
	// CreateRequest persists a new request. The ID must be unique.
	CreateRequest(ctx context.Context, req *LeaveRequest) error

	// GetRequest returns the request or NotFoundError.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// UpdateStatus transitions id from expected to next, recording the
	// review. Returns StateTransitionError (with the actual current status)
	// if the row no longer holds expected, NotFoundError if absent.
	UpdateStatus(ctx context.Context, id RequestID, expected, next Status, review Review) error

	// ListByStatus returns all requests for a rank in the given status,
	// ordered by SubmittedAt ascending.
	ListByStatus(ctx context.Context, rank Rank, status Status) ([]*LeaveRequest, error)

	// ListIntersecting returns requests for a rank in any of the given
	// statuses whose range overlaps rng, ordered by SubmittedAt ascending.
	ListIntersecting(ctx context.Context, rank Rank, rng DateRange, statuses ...Status) ([]*LeaveRequest, error)

	// ListByPilot returns all requests for one pilot, ordered by
	// SubmittedAt ascending.
	ListByPilot(ctx context.Context, pilotID PilotID) ([]*LeaveRequest, error)
}

// =============================================================================
// BID STORE
// =============================================================================

// BidStore persists leave bids. Bids are preference artifacts; nothing here
// touches capacity.
type BidStore interface {
	CreateBid(ctx context.Context, bid *LeaveBid) error
	GetBid(ctx context.Context, id BidID) (*LeaveBid, error)

	// UpdateBidStatus transitions a bid, compare-and-set like UpdateStatus.
	UpdateBidStatus(ctx context.Context, id BidID, expected, next BidStatus, resolvedRequestID RequestID) error

	// ListBids returns bids for a rank in the given status, ordered by
	// SubmittedAt ascending.
	ListBids(ctx context.Context, rank Rank, status BidStatus) ([]*LeaveBid, error)
}

// =============================================================================
// AUDIT LOG - Append-only record of who did what when
// =============================================================================

type AuditAction string

const (
	AuditRequestSubmitted AuditAction = "request_submitted"
	AuditRequestApproved  AuditAction = "request_approved"
	AuditRequestRejected  AuditAction = "request_rejected"
	AuditRequestCancelled AuditAction = "request_cancelled"
	AuditBidSubmitted     AuditAction = "bid_submitted"
	AuditBidWithdrawn     AuditAction = "bid_withdrawn"
)

// AuditEntry records a single engine action.
type AuditEntry struct {
	ID        string
	At        time.Time
	ActorID   string
	Action    AuditAction
	RequestID RequestID
	PilotID   PilotID
	Rank      Rank
	Detail    string
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	RequestID *RequestID
	PilotID   *PilotID
	ActorID   *string
	Actions   []AuditAction
	From      *time.Time
	To        *time.Time
}
