// Package clock abstracts wall time so billing policies can be tested
// against fixed dates.
package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

// CutoffDate returns the defaulters cutoff instant for the year containing
// now: the end of September 30, UTC. September 30 itself is still inside
// the grace window; balances outstanding past this instant are defaults.
func CutoffDate(now time.Time) time.Time {
	return time.Date(now.Year(), time.October, 1, 0, 0, 0, 0, time.UTC)
}
