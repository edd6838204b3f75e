/*
Package leave implements the leave eligibility and crew availability engine.

PURPOSE:
  Decides whether a pilot's time-off request can be granted without dropping
  on-duty crew strength for a rank below its minimum threshold, resolves
  contention between competing requests, and commits approval/cancellation
  decisions safely under concurrent reviewers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rank: Pilot qualification category with an independent capacity pool
  - LeaveRequest: The capacity-consuming entity with its status lifecycle
  - LeaveBid: A preference artifact (never consumes capacity)
  - Review: Who decided, when, and why

DESIGN PRINCIPLES:
  1. Typed identifiers: request, pilot, and bid IDs are distinct types
  2. Exhaustive rank enum: adding a rank is a compiler-checked change
  3. Explicit state machine: transitions live in one table, nowhere else
  4. Bids and requests are separate entities, so preference ranking never
     couples back into admission control

SEE ALSO:
  - date.go: Date, DateRange, RosterPeriod
  - eligibility.go: The admission rules applied to these types
  - service.go: The operations that move requests through the lifecycle
*/
package leave

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RequestID string
type PilotID string
type BidID string

// =============================================================================
// RANK - Qualification category with an independent capacity pool
// =============================================================================

// Rank is a pilot qualification category. Each rank has its own active
// headcount and minimum-crew threshold; a Captain shortage never affects
// First Officer capacity.
type Rank string

const (
	RankCaptain      Rank = "CAPTAIN"
	RankFirstOfficer Rank = "FIRST_OFFICER"
)

// Ranks lists every rank. Iteration order is stable.
func Ranks() []Rank { return []Rank{RankCaptain, RankFirstOfficer} }

// ParseRank validates a rank string.
func ParseRank(s string) (Rank, error) {
	switch Rank(s) {
	case RankCaptain, RankFirstOfficer:
		return Rank(s), nil
	}
	return "", &ValidationError{Field: "rank", Detail: "unknown rank: " + s}
}

// =============================================================================
// LEAVE REQUEST - The capacity-consuming entity
// =============================================================================

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	}
	return "", &ValidationError{Field: "status", Detail: "unknown status: " + s}
}

// validTransitions is the complete state machine. Approval additionally
// requires eligibility to hold at commit time, enforced in service.go.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// LeaveRequest is a pilot's request to be off duty for an inclusive range of
// days. Only APPROVED requests consume capacity.
type LeaveRequest struct {
	ID      RequestID
	PilotID PilotID
	Rank    Rank
	Range   DateRange

	Status      Status
	SubmittedAt time.Time

	// RosterPeriod is the scheduling window containing Range.Start.
	RosterPeriod string

	// IsLateRequest is derived at submission: true when SubmittedAt falls
	// inside the configured window before the roster period start. It is a
	// warning for the reviewer, never a rejection.
	IsLateRequest bool

	ReviewedBy string
	ReviewedAt *time.Time
	Comment    string
}

// Covers reports whether the request occupies the given day.
func (r *LeaveRequest) Covers(d Date) bool { return r.Range.Contains(d) }

// =============================================================================
// LEAVE BID - Ranked preference artifact, resolved externally into a request
// =============================================================================

type BidStatus string

const (
	BidOpen      BidStatus = "OPEN"
	BidResolved  BidStatus = "RESOLVED"
	BidWithdrawn BidStatus = "WITHDRAWN"
)

// LeaveBid is a pilot's ranked list of preferred leave windows for an
// upcoming roster period. A bid never consumes capacity; an external batch
// process resolves it into zero or one concrete LeaveRequest.
type LeaveBid struct {
	ID      BidID
	PilotID PilotID
	Rank    Rank

	// Options are the preferred windows, most preferred first.
	Options []DateRange

	RosterPeriod string
	Status       BidStatus
	SubmittedAt  time.Time

	// ResolvedRequestID links to the request the batch resolver emitted,
	// when Status is RESOLVED.
	ResolvedRequestID RequestID
}
