/*
locks.go - Per-rank exclusive locks with acquisition timeout

PURPOSE:
  Capacity is rank-wide, so one coarse lock per rank is sufficient to
  serialize approvals and capacity-releasing cancellations. Each rank gets
  a 1-slot channel semaphore: acquisition either takes the slot, honors
  context cancellation, or times out with ErrLockTimeout instead of
  deadlocking.

  Locks for different ranks never contend. The lock is held only across
  reload -> re-check -> write; nothing slow runs inside it.
*/
package leave

import (
	"context"
	"time"
)

// rankLocks serializes the approval critical section per rank.
type rankLocks struct {
	timeout time.Duration
	slots   map[Rank]chan struct{}
}

func newRankLocks(timeout time.Duration) *rankLocks {
	slots := make(map[Rank]chan struct{}, len(Ranks()))
	for _, r := range Ranks() {
		slots[r] = make(chan struct{}, 1)
	}
	return &rankLocks{timeout: timeout, slots: slots}
}

// acquire takes the rank's slot or fails with LockTimeoutError. The slot map
// is fixed at construction, so lookups are race-free.
func (l *rankLocks) acquire(ctx context.Context, rank Rank) error {
	slot, ok := l.slots[rank]
	if !ok {
		return &ValidationError{Field: "rank", Detail: "unknown rank: " + string(rank)}
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return &LockTimeoutError{Rank: rank, Attempts: 1}
	}
}

// release frees the rank's slot. Must only be called after a successful
// acquire.
func (l *rankLocks) release(rank Rank) {
	<-l.slots[rank]
}
