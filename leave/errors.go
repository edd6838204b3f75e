/*
errors.go - Centralized error taxonomy for the leave engine

PURPOSE:
  All error types in one place. Callers branch with errors.Is against the
  sentinels; the structured types carry decision-supporting detail (which
  days breach, which requests compete) for the admin review surface.

ERROR CATEGORIES:
  1. Validation / not-found - rejected before any state changes
  2. Capacity / conflict    - the business rule said no
  3. Lock timeout           - transient, retried internally first
  4. State transition       - illegal lifecycle move, always a no-op

USAGE:
  if errors.Is(err, leave.ErrConflict) {
      // state changed between advisory check and commit; re-evaluate
  }

SEE ALSO:
  - service.go: Where these are produced
  - api/handlers.go: Error-to-HTTP mapping
*/
package leave

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input (bad date range, unknown
	// rank, missing fields). Nothing is persisted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for an unknown request, pilot, or bid ID.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned when granting a request would drop a
	// rank below its minimum crew threshold on at least one day.
	ErrCapacityExceeded = errors.New("minimum crew capacity exceeded")

	// ErrConflict is returned when state changed between an advisory
	// eligibility check and the commit attempt. The caller should
	// re-evaluate or pick a different request.
	ErrConflict = errors.New("conflicting state change")

	// ErrLockTimeout is returned when the rank lock could not be acquired in
	// time. Transient; the service retries internally before surfacing it.
	ErrLockTimeout = errors.New("rank lock acquisition timed out")

	// ErrStateTransition is returned for an illegal lifecycle move, e.g.
	// approving an already-cancelled request. Always a no-op.
	ErrStateTransition = errors.New("invalid state transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports field-level detail for malformed input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "request", "pilot", "bid"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CapacityError reports which days would breach the minimum crew threshold
// and which other requests compete for the same days, in seniority order.
type CapacityError struct {
	Rank                  Rank
	Reasons               []string
	ConflictingRequestIDs []RequestID
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded for %s: %s", e.Rank, strings.Join(e.Reasons, "; "))
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ConflictError is returned by the approval transaction when the re-check
// inside the lock fails: capacity that the advisory check saw has since been
// consumed. It unwraps to both ErrConflict and ErrCapacityExceeded so
// callers can branch on either.
type ConflictError struct {
	RequestID             RequestID
	Rank                  Rank
	Reasons               []string
	ConflictingRequestIDs []RequestID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("request %s no longer eligible: %s", e.RequestID, strings.Join(e.Reasons, "; "))
}

func (e *ConflictError) Unwrap() []error { return []error{ErrConflict, ErrCapacityExceeded} }

// LockTimeoutError identifies which rank lock could not be acquired.
type LockTimeoutError struct {
	Rank     Rank
	Attempts int
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire %s lock after %d attempts", e.Rank, e.Attempts)
}

func (e *LockTimeoutError) Unwrap() error { return ErrLockTimeout }

// StateTransitionError reports an illegal lifecycle move. Current carries the
// status found at commit time so callers learn what actually happened (two
// admins approving the same request: the loser sees Current=APPROVED).
type StateTransitionError struct {
	RequestID RequestID
	Current   Status
	Attempted Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("request %s is %s, cannot transition to %s", e.RequestID, e.Current, e.Attempted)
}

func (e *StateTransitionError) Unwrap() error { return ErrStateTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to the caller's input or a
// business-rule outcome, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStateTransition)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
