// Package booking holds the conflict-aware slot selection and booking
// orchestration logic: the overlap predicate, the availability view builder,
// and the dual-write booking flow.
package booking

import "time"

// Interval is a half-open time interval [Start, End). Immutable once
// constructed; Start must be before End for the interval to be valid.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start < End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints are not a conflict. This predicate is the single source of truth
// for conflict detection: slot generation and the booking conflict check both
// go through it.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}
