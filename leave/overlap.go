/*
overlap.go - Date-range intersection

PURPOSE:
  The single definition of "these two leave windows collide". Used both to
  detect a pilot double-booking themselves and to enumerate which other
  requests intersect a candidate's range for conflict reporting.

  Pure functions: no side effects, no I/O, no clock.
*/
package leave

// Overlaps reports whether two inclusive date ranges share at least one day:
// [a1,a2] and [b1,b2] overlap iff a1 <= b2 && b1 <= a2. Adjacent ranges
// (a2 + 1 day == b1) do not overlap; touching ranges (a2 == b1) do.
func Overlaps(a, b DateRange) bool {
	return a.Start.BeforeOrEqual(b.End) && b.Start.BeforeOrEqual(a.End)
}

// Intersecting returns the subset of requests whose range overlaps rng,
// preserving input order. Requests with ID == exclude are skipped so a
// candidate never reports itself as its own conflict.
func Intersecting(rng DateRange, requests []*LeaveRequest, exclude RequestID) []*LeaveRequest {
	var out []*LeaveRequest
	for _, r := range requests {
		if r.ID == exclude {
			continue
		}
		if Overlaps(rng, r.Range) {
			out = append(out, r)
		}
	}
	return out
}

// CoveringDay returns the subset of requests that occupy day d, preserving
// input order.
func CoveringDay(d Date, requests []*LeaveRequest) []*LeaveRequest {
	var out []*LeaveRequest
	for _, r := range requests {
		if r.Covers(d) {
			out = append(out, r)
		}
	}
	return out
}
