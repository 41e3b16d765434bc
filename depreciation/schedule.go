/*
schedule.go - Schedule Projector

PURPOSE:
  Produces the full amortization table for an asset from acquisition to
  full depreciation, without touching the database or the asset itself.
  Safe to call repeatedly; the Applier and the projector share the same
  per-period formula (calculator.go), so the table is an honest preview
  of what repeated applications would do.

ROUNDING:
  Each period's amount is rounded to 2 decimal places for currency
  display, and book values are carried forward from the rounded amounts
  so the table is internally consistent.

UNITS-OF-PRODUCTION:
  Future unit consumption is unknowable, so the projection assumes
  uniform production: totalExpectedUnits spread evenly across the useful
  life. Actual applications use the real unit counts supplied per run.

SEE ALSO:
  - calculator.go: The shared per-period formula
  - applier.go: The stateful counterpart
*/
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

// SchedulePeriod is one row of the projected amortization table.
type SchedulePeriod struct {
	Period int
	Start  time.Time
	End    time.Time

	BookValueBefore decimal.Decimal
	Amount          decimal.Decimal
	BookValueAfter  decimal.Decimal
	Cumulative      decimal.Decimal
}

// Project simulates the asset's depreciation forward from acquisition
// through its nominal useful life, terminating early if the book value
// reaches the salvage floor first. Read-only: the asset is not mutated.
//
// now is only used as the schedule origin when the asset has neither a
// depreciation start nor a purchase date.
func Project(a *assets.Asset, now time.Time) []SchedulePeriod {
	if !a.HasDepreciationConfig() {
		return nil
	}

	origin := a.PurchaseDate
	if a.DepreciationStart != nil {
		origin = *a.DepreciationStart
	}
	if origin.IsZero() {
		origin = now
	}

	// Uniform production assumption for units-of-production projections.
	var unitsPerPeriod *decimal.Decimal
	if a.Method == assets.MethodUnitsOfProduction && a.TotalExpectedUnits != nil {
		u := a.TotalExpectedUnits.Div(decimal.NewFromInt(int64(a.UsefulLifeMonths)))
		unitsPerPeriod = &u
	}

	schedule := make([]SchedulePeriod, 0, a.UsefulLifeMonths)
	bookValue := a.PurchasePrice
	cumulative := decimal.Zero

	for i := 1; i <= a.UsefulLifeMonths; i++ {
		remaining := bookValue.Sub(a.SalvageValue)
		if !remaining.IsPositive() {
			break // floor reached before nominal life ended
		}

		amount := PeriodAmount(Input{
			Method:             a.Method,
			OriginalCost:       a.PurchasePrice,
			SalvageValue:       a.SalvageValue,
			UsefulLifeMonths:   a.UsefulLifeMonths,
			CurrentBookValue:   bookValue,
			AnnualRate:         a.AnnualRate,
			TotalExpectedUnits: a.TotalExpectedUnits,
			UnitsInPeriod:      unitsPerPeriod,
			PeriodIndex:        i,
		}).Round(2)

		if amount.GreaterThan(remaining) {
			amount = remaining
		}

		bookBefore := bookValue
		bookValue = bookValue.Sub(amount)
		cumulative = cumulative.Add(amount)

		schedule = append(schedule, SchedulePeriod{
			Period:          i,
			Start:           origin.AddDate(0, i-1, 0),
			End:             origin.AddDate(0, i, 0),
			BookValueBefore: bookBefore,
			Amount:          amount,
			BookValueAfter:  bookValue,
			Cumulative:      cumulative,
		})
	}

	return schedule
}
