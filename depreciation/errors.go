/*
errors.go - Centralized error types for the depreciation engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers (api/, batch runner) classify errors with errors.Is and recover
  them into structured {success:false, message} results at the boundary -
  nothing in this package is meant to escape as a panic or an opaque 500.

ERROR CATEGORIES:
  1. Authorization - no acting user supplied
  2. Lookup - asset missing or disposed
  3. Configuration - asset cannot be depreciated as configured
  4. State - asset already terminal, or changed under our feet

USAGE:
  outcome, err := applier.Apply(ctx, in)
  if errors.Is(err, depreciation.ErrAlreadyFullyDepreciated) {
      // report non-success, no new entry was created
  }

SEE ALSO:
  - applier.go: Produces these errors
  - api/handlers.go: Maps them to HTTP results
*/
package depreciation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized is returned when no acting user accompanies a mutation.
	ErrUnauthorized = errors.New("no acting user")

	// ErrAssetNotFound is returned when the asset is missing or disposed.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrMissingConfiguration is returned when the asset lacks a purchase
	// price or useful life and therefore cannot be depreciated.
	ErrMissingConfiguration = errors.New("asset missing depreciation configuration")

	// ErrAlreadyFullyDepreciated is returned when a cycle is requested for an
	// asset whose terminal flag is already set. It is a no-op, reported as a
	// failure with an explanatory message rather than silently ignored.
	ErrAlreadyFullyDepreciated = errors.New("asset already fully depreciated")

	// ErrConcurrentModification is returned when the optimistic book-value
	// guard detects that another run mutated the asset mid-cycle.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrBusinessUnitNotFound is returned when a batch scope references an
	// unknown business unit.
	ErrBusinessUnitNotFound = errors.New("business unit not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingConfigurationError names the field that blocks a cycle.
type MissingConfigurationError struct {
	AssetID string
	Field   string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("asset %s missing depreciation configuration: %s", e.AssetID, e.Field)
}

func (e *MissingConfigurationError) Unwrap() error { return ErrMissingConfiguration }

// ConcurrentModificationError identifies the asset that changed mid-cycle.
type ConcurrentModificationError struct {
	AssetID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("asset %s changed during depreciation cycle", e.AssetID)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on a manual re-run.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to the request rather than
// the system: missing actor, bad configuration, or a terminal asset.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrMissingConfiguration) ||
		errors.Is(err, ErrAlreadyFullyDepreciated)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrBusinessUnitNotFound)
}
