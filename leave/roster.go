/*
roster.go - External collaborator interfaces

PURPOSE:
  The engine's view of the surrounding system: who is on the roster, how
  senior each pilot is, and how decisions are announced. All three are
  consumed as interfaces; the engine never reaches into their storage.

SEE ALSO:
  - store/sqlite: RosterProvider backed by the pilots table
  - availability.go: The only consumer of ActiveCrewCount
  - seniority.go: The only consumer of SeniorityNumber
*/
package leave

import "context"

// =============================================================================
// CREW ROSTER PROVIDER
// =============================================================================

// RosterProvider supplies active headcount per rank and seniority per pilot.
// Implementations must already exclude retired and inactive pilots from the
// count.
type RosterProvider interface {
	// ActiveCrewCount returns the number of active pilots holding the rank.
	ActiveCrewCount(ctx context.Context, rank Rank) (int, error)

	// SeniorityNumber returns the pilot's seniority number. Lower is more
	// senior. Returns ErrNotFound for an unknown pilot.
	SeniorityNumber(ctx context.Context, pilotID PilotID) (int, error)
}

// StaticRoster is a fixed in-memory RosterProvider for tests and for
// deployments that configure headcounts rather than syncing a crew list.
type StaticRoster struct {
	Counts    map[Rank]int
	Seniority map[PilotID]int
}

func (s *StaticRoster) ActiveCrewCount(_ context.Context, rank Rank) (int, error) {
	return s.Counts[rank], nil
}

func (s *StaticRoster) SeniorityNumber(_ context.Context, pilotID PilotID) (int, error) {
	n, ok := s.Seniority[pilotID]
	if !ok {
		return 0, &NotFoundError{Kind: "pilot", ID: string(pilotID)}
	}
	return n, nil
}

// =============================================================================
// NOTIFIER - Fire-and-forget decision announcements
// =============================================================================

// Notifier announces a committed decision to the pilot. Invoked only after a
// successful commit, never inside the rank lock. Delivery mechanics belong
// to the surrounding application; failures are logged, not propagated.
type Notifier interface {
	Notify(ctx context.Context, pilotID PilotID, decision Status, reason string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, PilotID, Status, string) {}
