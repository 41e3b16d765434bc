/*
Package assets defines the asset domain model for the depreciation engine.

PURPOSE:
  This package contains the Asset record, the depreciation method variants,
  and the small state machine governing an asset's lifecycle. It has no
  persistence or HTTP concerns - those live in store/ and api/ respectively.

KEY CONCEPTS IN THIS FILE (types.go):
  - Method: One of four depreciation formula variants
  - Status: Asset lifecycle state (Active, FullyDepreciated, Disposed)
  - Asset: The record carrying cost basis, salvage floor, and running totals

DESIGN PRINCIPLES:
  1. Precision: All monetary fields use decimal.Decimal to avoid
     floating-point drift across many periods
  2. Explicit time: Date helpers take an explicit `now` instead of reading
     the wall clock, so everything here is testable
  3. Closed method set: The four methods are a closed enum; parameter
     consistency is validated at creation/edit time (see config.go)

SEE ALSO:
  - config.go: Method/parameter consistency validation
  - lifecycle.go: Status transitions and period date helpers
  - depreciation/: The engine operating on these records
*/
package assets

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEPRECIATION METHOD - Formula variant governing the per-period amount
// =============================================================================

type Method string

const (
	MethodStraightLine      Method = "straight_line"
	MethodDecliningBalance  Method = "declining_balance"
	MethodUnitsOfProduction Method = "units_of_production"
	MethodSumOfYearsDigits  Method = "sum_of_years_digits"
)

// Valid reports whether m is one of the four known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodStraightLine, MethodDecliningBalance, MethodUnitsOfProduction, MethodSumOfYearsDigits:
		return true
	}
	return false
}

// ParseMethod converts a wire string into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown depreciation method %q", s)
	}
	return m, nil
}

// =============================================================================
// STATUS - Asset lifecycle state
// =============================================================================

type Status string

const (
	StatusActive           Status = "active"
	StatusFullyDepreciated Status = "fully_depreciated"
	StatusDisposed         Status = "disposed"
)

// =============================================================================
// ASSET - Depreciable record with running totals
// =============================================================================

// Asset carries the depreciation-relevant state of a single asset.
//
// INVARIANTS:
//   - CurrentBookValue >= SalvageValue at all times; equality flips
//     FullyDepreciated
//   - AccumulatedDepreciation + CurrentBookValue == PurchasePrice
//     (within rounding tolerance)
//   - NextDepreciationAt is nil once FullyDepreciated
type Asset struct {
	ID             string
	Name           string
	BusinessUnitID string
	Status         Status

	PurchaseDate  time.Time
	PurchasePrice decimal.Decimal // original cost basis
	SalvageValue  decimal.Decimal // floor the book value may not breach

	Method           Method
	UsefulLifeMonths int
	AnnualRate       *decimal.Decimal // declining-balance only, fraction per year (0.20 = 20%)

	TotalExpectedUnits *decimal.Decimal // units-of-production only
	CurrentUnits       decimal.Decimal  // accumulated units consumed

	CurrentBookValue        decimal.Decimal
	AccumulatedDepreciation decimal.Decimal

	DepreciationStart  *time.Time
	LastDepreciationAt *time.Time
	NextDepreciationAt *time.Time
	FullyDepreciated   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds an Asset ready for its first depreciation period. Book value
// starts at the purchase price and the first due date is one full period
// after the depreciation start (which defaults to the purchase date).
func New(id, name, businessUnitID string, price, salvage decimal.Decimal, method Method, usefulLifeMonths int, purchaseDate time.Time) *Asset {
	start := purchaseDate
	firstDue := start.AddDate(0, 1, 0)
	now := time.Now().UTC()

	return &Asset{
		ID:                id,
		Name:              name,
		BusinessUnitID:    businessUnitID,
		Status:            StatusActive,
		PurchaseDate:      purchaseDate,
		PurchasePrice:     price,
		SalvageValue:      salvage,
		Method:            method,
		UsefulLifeMonths:  usefulLifeMonths,
		CurrentUnits:      decimal.Zero,
		CurrentBookValue:  price,
		DepreciationStart: &start,
		NextDepreciationAt: &firstDue,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// DepreciableBase is the total amount that can ever be depreciated.
func (a *Asset) DepreciableBase() decimal.Decimal {
	return a.PurchasePrice.Sub(a.SalvageValue)
}

// RemainingDepreciable is how much book value is left above the salvage floor.
func (a *Asset) RemainingDepreciable() decimal.Decimal {
	return a.CurrentBookValue.Sub(a.SalvageValue)
}

// AtFloor reports whether the book value has reached the salvage floor.
func (a *Asset) AtFloor() bool {
	return a.CurrentBookValue.LessThanOrEqual(a.SalvageValue)
}

// HasDepreciationConfig reports whether the asset carries the minimum
// configuration needed to run a depreciation cycle.
func (a *Asset) HasDepreciationConfig() bool {
	return a.PurchasePrice.IsPositive() && a.UsefulLifeMonths > 0
}
