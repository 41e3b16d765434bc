/*
calculator.go - Per-period depreciation amount

PURPOSE:
  The one pure leaf of the engine. Given an asset's parameters and current
  book value, compute a non-negative depreciation amount for a single
  monthly period. No I/O, no side effects, deterministic.

MISSING OPTIONALS:
  The calculator never fails. A declining-balance input without a rate, or
  a units-of-production input without expected units or units consumed,
  yields zero - the Applier then records nothing and the asset simply does
  not move. Parameter consistency is enforced upstream at asset
  creation/edit time (assets.ValidateConfig).

SUM-OF-YEARS-DIGITS:
  yearsRemaining decrements as years of life elapse, driven by PeriodIndex
  (1-based month number since depreciation start). Period 1-12 is year 1,
  13-24 is year 2, and so on. This yields the true declining schedule whose
  yearly amounts telescope to exactly (cost - salvage).

SEE ALSO:
  - schedule.go: Simulates this formula forward over the whole life
  - applier.go: Applies one period and persists the result
*/
package depreciation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

var twelve = decimal.NewFromInt(12)

// Input carries everything the calculator needs for one period.
// Optional pointers are nil when the asset is not configured for them.
type Input struct {
	Method           assets.Method
	OriginalCost     decimal.Decimal
	SalvageValue     decimal.Decimal
	UsefulLifeMonths int
	CurrentBookValue decimal.Decimal

	AnnualRate         *decimal.Decimal // declining-balance
	TotalExpectedUnits *decimal.Decimal // units-of-production
	UnitsInPeriod      *decimal.Decimal // units-of-production

	// PeriodIndex is the 1-based month number since depreciation start.
	// Only sum-of-years-digits reads it; zero is treated as period 1.
	PeriodIndex int
}

// InputFromAsset builds a calculator Input from the asset's live state.
func InputFromAsset(a *assets.Asset, unitsInPeriod *decimal.Decimal, periodIndex int) Input {
	return Input{
		Method:             a.Method,
		OriginalCost:       a.PurchasePrice,
		SalvageValue:       a.SalvageValue,
		UsefulLifeMonths:   a.UsefulLifeMonths,
		CurrentBookValue:   a.CurrentBookValue,
		AnnualRate:         a.AnnualRate,
		TotalExpectedUnits: a.TotalExpectedUnits,
		UnitsInPeriod:      unitsInPeriod,
		PeriodIndex:        periodIndex,
	}
}

// PeriodAmount computes the depreciation amount for one monthly period.
// The result is never negative; it is NOT clamped to the salvage floor -
// that is the Applier's job, because clamping needs the live book value
// and the floor together.
func PeriodAmount(in Input) decimal.Decimal {
	if in.UsefulLifeMonths <= 0 {
		return decimal.Zero
	}

	var amount decimal.Decimal

	switch in.Method {
	case assets.MethodStraightLine:
		amount = straightLine(in)
	case assets.MethodDecliningBalance:
		amount = decliningBalance(in)
	case assets.MethodUnitsOfProduction:
		amount = unitsOfProduction(in)
	case assets.MethodSumOfYearsDigits:
		amount = sumOfYearsDigits(in)
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// straightLine: (cost - salvage) / usefulLifeMonths. Constant every period.
func straightLine(in Input) decimal.Decimal {
	base := in.OriginalCost.Sub(in.SalvageValue)
	return base.Div(decimal.NewFromInt(int64(in.UsefulLifeMonths)))
}

// decliningBalance: bookValue * (annualRate / 12). Applied to the shrinking
// book value, not the original cost, so the amount decays geometrically.
func decliningBalance(in Input) decimal.Decimal {
	if in.AnnualRate == nil {
		return decimal.Zero
	}
	return in.CurrentBookValue.Mul(in.AnnualRate.Div(twelve))
}

// unitsOfProduction: ((cost - salvage) / totalExpectedUnits) * unitsInPeriod.
func unitsOfProduction(in Input) decimal.Decimal {
	if in.TotalExpectedUnits == nil || in.UnitsInPeriod == nil {
		return decimal.Zero
	}
	if !in.TotalExpectedUnits.IsPositive() {
		return decimal.Zero
	}
	perUnit := in.OriginalCost.Sub(in.SalvageValue).Div(*in.TotalExpectedUnits)
	return perUnit.Mul(*in.UnitsInPeriod)
}

// sumOfYearsDigits: yearly = base * yearsRemaining / sumOfYears, monthly =
// yearly / 12. totalYears = ceil(months / 12).
func sumOfYearsDigits(in Input) decimal.Decimal {
	totalYears := (in.UsefulLifeMonths + 11) / 12
	if totalYears <= 0 {
		return decimal.Zero
	}
	sumOfYears := totalYears * (totalYears + 1) / 2

	periodIndex := in.PeriodIndex
	if periodIndex < 1 {
		periodIndex = 1
	}
	yearsElapsed := (periodIndex - 1) / 12
	yearsRemaining := totalYears - yearsElapsed
	if yearsRemaining <= 0 {
		return decimal.Zero
	}

	base := in.OriginalCost.Sub(in.SalvageValue)
	yearly := base.Mul(decimal.NewFromInt(int64(yearsRemaining))).
		Div(decimal.NewFromInt(int64(sumOfYears)))
	return yearly.Div(twelve)
}
