package depreciation_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func df(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func dptr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

// =============================================================================
// STRAIGHT LINE
// =============================================================================

func TestStraightLine_CanonicalExample(t *testing.T) {
	// 120000 cost, zero salvage, 60 months: 2000 per period
	in := depreciation.Input{
		Method:           assets.MethodStraightLine,
		OriginalCost:     d(120000),
		SalvageValue:     decimal.Zero,
		UsefulLifeMonths: 60,
		CurrentBookValue: d(120000),
	}

	got := depreciation.PeriodAmount(in)
	if !got.Equal(d(2000)) {
		t.Errorf("expected 2000, got %v", got)
	}
}

func TestStraightLine_ConstantAcrossPeriods(t *testing.T) {
	// The amount depends only on cost, salvage, and life - not on the
	// current book value or period number.
	in := depreciation.Input{
		Method:           assets.MethodStraightLine,
		OriginalCost:     d(42000),
		SalvageValue:     d(2000),
		UsefulLifeMonths: 60,
	}

	var prev decimal.Decimal
	for period := 1; period <= 60; period++ {
		in.CurrentBookValue = d(42000).Sub(df(666.67).Mul(d(int64(period - 1))))
		in.PeriodIndex = period
		got := depreciation.PeriodAmount(in)
		if period > 1 && !got.Equal(prev) {
			t.Fatalf("period %d: amount %v differs from previous %v", period, got, prev)
		}
		prev = got
	}
}

func TestStraightLine_SalvageReducesBase(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodStraightLine,
		OriginalCost:     d(42000),
		SalvageValue:     d(2000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(42000),
	}

	// (42000 - 2000) / 60
	want := d(40000).Div(d(60))
	if got := depreciation.PeriodAmount(in); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// =============================================================================
// DECLINING BALANCE
// =============================================================================

func TestDecliningBalance_UsesBookValueNotCost(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodDecliningBalance,
		OriginalCost:     d(180000),
		SalvageValue:     d(15000),
		UsefulLifeMonths: 120,
		CurrentBookValue: d(120000),
		AnnualRate:       dptr(df(0.20)),
	}

	// 120000 * 0.20 / 12 = 2000
	if got := depreciation.PeriodAmount(in); !got.Equal(d(2000)) {
		t.Errorf("expected 2000, got %v", got)
	}
}

func TestDecliningBalance_StrictlyDecreasing(t *testing.T) {
	// GIVEN: book value shrinking each period
	// THEN: the per-period amount shrinks with it
	in := depreciation.Input{
		Method:           assets.MethodDecliningBalance,
		OriginalCost:     d(100000),
		SalvageValue:     decimal.Zero,
		UsefulLifeMonths: 60,
		AnnualRate:       dptr(df(0.30)),
	}

	book := d(100000)
	var prev decimal.Decimal
	for period := 1; period <= 24; period++ {
		in.CurrentBookValue = book
		got := depreciation.PeriodAmount(in)
		if period > 1 && !got.LessThan(prev) {
			t.Fatalf("period %d: amount %v not less than previous %v", period, got, prev)
		}
		prev = got
		book = book.Sub(got)
	}
}

func TestDecliningBalance_MissingRateYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodDecliningBalance,
		OriginalCost:     d(100000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(100000),
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero without a rate, got %v", got)
	}
}

// =============================================================================
// UNITS OF PRODUCTION
// =============================================================================

func TestUnitsOfProduction_ProportionalToUnits(t *testing.T) {
	in := depreciation.Input{
		Method:             assets.MethodUnitsOfProduction,
		OriginalCost:       d(350000),
		SalvageValue:       d(30000),
		UsefulLifeMonths:   96,
		CurrentBookValue:   d(350000),
		TotalExpectedUnits: dptr(d(2000000)),
		UnitsInPeriod:      dptr(d(50000)),
	}

	// (320000 / 2000000) * 50000 = 8000
	if got := depreciation.PeriodAmount(in); !got.Equal(d(8000)) {
		t.Errorf("expected 8000, got %v", got)
	}
}

func TestUnitsOfProduction_NoUnitsYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:             assets.MethodUnitsOfProduction,
		OriginalCost:       d(350000),
		SalvageValue:       d(30000),
		UsefulLifeMonths:   96,
		CurrentBookValue:   d(350000),
		TotalExpectedUnits: dptr(d(2000000)),
		// UnitsInPeriod nil: nothing happened this period
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero without units, got %v", got)
	}
}

func TestUnitsOfProduction_MissingTotalYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodUnitsOfProduction,
		OriginalCost:     d(350000),
		SalvageValue:     d(30000),
		UsefulLifeMonths: 96,
		CurrentBookValue: d(350000),
		UnitsInPeriod:    dptr(d(50000)),
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero without expected units, got %v", got)
	}
}

// =============================================================================
// SUM OF YEARS DIGITS
// =============================================================================

func TestSumOfYearsDigits_FirstYearAmount(t *testing.T) {
	// 5-year life: sumOfYears = 15, year 1 gets 5/15 of the base.
	// base = 90000, yearly = 30000, monthly = 2500.
	in := depreciation.Input{
		Method:           assets.MethodSumOfYearsDigits,
		OriginalCost:     d(96000),
		SalvageValue:     d(6000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(96000),
		PeriodIndex:      1,
	}

	if got := depreciation.PeriodAmount(in); !got.Equal(d(2500)) {
		t.Errorf("expected 2500, got %v", got)
	}
}

func TestSumOfYearsDigits_DecrementsPerElapsedYear(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodSumOfYearsDigits,
		OriginalCost:     d(96000),
		SalvageValue:     d(6000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(96000),
	}

	// Months 1-12 are year 1 (5/15), month 13 drops to year 2 (4/15).
	in.PeriodIndex = 12
	year1 := depreciation.PeriodAmount(in)
	in.PeriodIndex = 13
	year2 := depreciation.PeriodAmount(in)

	if !year1.Equal(d(2500)) {
		t.Errorf("expected year-1 amount 2500, got %v", year1)
	}
	if !year2.Equal(d(2000)) {
		t.Errorf("expected year-2 amount 2000, got %v", year2)
	}
}

func TestSumOfYearsDigits_YearlyAmountsTelescopeToBase(t *testing.T) {
	// Sum of all 60 monthly amounts must equal cost - salvage exactly.
	in := depreciation.Input{
		Method:           assets.MethodSumOfYearsDigits,
		OriginalCost:     d(96000),
		SalvageValue:     d(6000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(96000),
	}

	total := decimal.Zero
	for period := 1; period <= 60; period++ {
		in.PeriodIndex = period
		total = total.Add(depreciation.PeriodAmount(in))
	}

	if !total.Equal(d(90000)) {
		t.Errorf("expected total 90000, got %v", total)
	}
}

func TestSumOfYearsDigits_PastLifeYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodSumOfYearsDigits,
		OriginalCost:     d(96000),
		SalvageValue:     d(6000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(6000),
		PeriodIndex:      61, // sixth year of a five-year life
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero past the useful life, got %v", got)
	}
}

// =============================================================================
// GUARDS
// =============================================================================

func TestPeriodAmount_ZeroLifeYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.MethodStraightLine,
		OriginalCost:     d(120000),
		UsefulLifeMonths: 0,
		CurrentBookValue: d(120000),
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero for zero life, got %v", got)
	}
}

func TestPeriodAmount_UnknownMethodYieldsZero(t *testing.T) {
	in := depreciation.Input{
		Method:           assets.Method("macrs"),
		OriginalCost:     d(120000),
		UsefulLifeMonths: 60,
		CurrentBookValue: d(120000),
	}

	if got := depreciation.PeriodAmount(in); !got.IsZero() {
		t.Errorf("expected zero for unknown method, got %v", got)
	}
}

func TestPeriodAmount_NeverNegative(t *testing.T) {
	// Salvage above cost would make the base negative; the amount clamps
	// to zero rather than going negative.
	in := depreciation.Input{
		Method:           assets.MethodStraightLine,
		OriginalCost:     d(1000),
		SalvageValue:     d(5000),
		UsefulLifeMonths: 12,
		CurrentBookValue: d(1000),
	}

	if got := depreciation.PeriodAmount(in); got.IsNegative() || !got.IsZero() {
		t.Errorf("expected zero, got %v", got)
	}
}
