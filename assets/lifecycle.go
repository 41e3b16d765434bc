/*
lifecycle.go - Status transitions and period date helpers

PURPOSE:
  Models the asset lifecycle explicitly as a state machine with a single
  guarded transition: Active -> FullyDepreciated, fired when book value
  reaches the salvage floor. The reverse transition does not exist; a
  fully depreciated asset is terminal for the engine.

  Also holds the pure date helpers the Applier uses to derive period
  bounds. They take an explicit `now` so tests can pin the clock.

SEE ALSO:
  - depreciation/applier.go: Drives the transition
*/
package assets

import "time"

// MarkFullyDepreciated performs the Active -> FullyDepreciated transition.
// Idempotent: calling it on a terminal asset changes nothing. The next
// depreciation date is cleared because no further periods exist.
func (a *Asset) MarkFullyDepreciated(at time.Time) {
	if a.FullyDepreciated {
		return
	}
	a.FullyDepreciated = true
	a.Status = StatusFullyDepreciated
	a.NextDepreciationAt = nil
	a.UpdatedAt = at
}

// PeriodStartFor picks the start of the next depreciation period using the
// fallback chain: last depreciation date, then depreciation start date,
// then purchase date, then now.
func (a *Asset) PeriodStartFor(now time.Time) time.Time {
	switch {
	case a.LastDepreciationAt != nil:
		return *a.LastDepreciationAt
	case a.DepreciationStart != nil:
		return *a.DepreciationStart
	case !a.PurchaseDate.IsZero():
		return a.PurchaseDate
	default:
		return now
	}
}

// PeriodIndexAt returns the 1-based period number for a period starting at
// the given time, counted from the depreciation start (or purchase date).
// Sum-of-years-digits uses this to know which year of life it is in.
func (a *Asset) PeriodIndexAt(periodStart time.Time) int {
	origin := a.PurchaseDate
	if a.DepreciationStart != nil {
		origin = *a.DepreciationStart
	}
	if origin.IsZero() || periodStart.Before(origin) {
		return 1
	}
	return MonthsBetween(origin, periodStart) + 1
}

// MonthsBetween counts whole calendar months from one time to a later time.
// Returns 0 when to precedes from.
func MonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
