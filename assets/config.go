/*
config.go - Depreciation parameter consistency validation

PURPOSE:
  A method combined with its parameters must be internally consistent:
  declining-balance requires an annual rate, units-of-production requires
  a total expected unit count. Validation runs at asset creation/edit time
  so the engine never sees a half-configured asset.

SEE ALSO:
  - types.go: Asset and Method definitions
  - depreciation/calculator.go: Treats missing optionals as zero-amount,
    which is the runtime backstop behind this validation
*/
package assets

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is the sentinel wrapped by every InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid depreciation configuration")

// InvalidConfigError describes a single configuration violation.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid depreciation configuration: %s %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ValidateConfig checks that the asset's depreciation parameters are
// internally consistent. It does not check running totals.
func (a *Asset) ValidateConfig() error {
	if !a.Method.Valid() {
		return &InvalidConfigError{Field: "method", Reason: fmt.Sprintf("%q is not a known method", a.Method)}
	}
	if !a.PurchasePrice.IsPositive() {
		return &InvalidConfigError{Field: "purchase_price", Reason: "must be positive"}
	}
	if a.SalvageValue.IsNegative() {
		return &InvalidConfigError{Field: "salvage_value", Reason: "must not be negative"}
	}
	if a.SalvageValue.GreaterThan(a.PurchasePrice) {
		return &InvalidConfigError{Field: "salvage_value", Reason: "must not exceed purchase price"}
	}
	if a.UsefulLifeMonths <= 0 {
		return &InvalidConfigError{Field: "useful_life_months", Reason: "must be positive"}
	}

	switch a.Method {
	case MethodDecliningBalance:
		if a.AnnualRate == nil || !a.AnnualRate.IsPositive() {
			return &InvalidConfigError{Field: "annual_rate", Reason: "required for declining-balance"}
		}
	case MethodUnitsOfProduction:
		if a.TotalExpectedUnits == nil || !a.TotalExpectedUnits.IsPositive() {
			return &InvalidConfigError{Field: "total_expected_units", Reason: "required for units-of-production"}
		}
	}

	return nil
}
