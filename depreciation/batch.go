/*
batch.go - Batch Runner

PURPOSE:
  Selects every asset due for depreciation (next-due date <= now) within an
  optional business-unit scope and applies one cycle to each, sequentially.
  A single asset's failure never aborts the batch: the error is collected
  and the run continues.

UNITS-OF-PRODUCTION:
  Batch runs are for time-based methods only. Units-of-production assets
  advance exclusively through explicit unit-count calls, so the runner
  skips them even when their due date has passed.

SEE ALSO:
  - applier.go: The per-asset cycle
  - api/scheduler.go: Runs this on a timer
*/
package depreciation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

// BatchRunner applies the Applier to every due asset in scope.
type BatchRunner struct {
	Store   TxStore
	Applier *Applier
	Log     zerolog.Logger

	// Now is the clock; defaults to time.Now in UTC.
	Now func() time.Time
}

func NewBatchRunner(store TxStore, log zerolog.Logger) *BatchRunner {
	return &BatchRunner{
		Store:   store,
		Applier: NewApplier(store),
		Log:     log,
	}
}

func (br *BatchRunner) now() time.Time {
	if br.Now != nil {
		return br.Now()
	}
	return time.Now().UTC()
}

// BatchError records one asset's failure within a run.
type BatchError struct {
	AssetID string
	Err     error
}

func (e BatchError) Error() string { return e.AssetID + ": " + e.Err.Error() }

// BatchResult aggregates a finished run.
type BatchResult struct {
	// ProcessedAssets counts assets that received a new entry.
	ProcessedAssets int

	// SkippedAssets counts assets passed over without an entry: self-healed
	// floor guards and units-of-production assets.
	SkippedAssets int

	// TotalDepreciation is the sum of amounts recognized this run.
	TotalDepreciation decimal.Decimal

	// Errors holds one element per failed asset, in selection order.
	Errors []BatchError

	StartedAt   time.Time
	CompletedAt time.Time
}

// Run executes one batch over the given business-unit scope (empty string
// = all units). It returns an error only when the due-asset selection
// itself fails; per-asset failures land in the result's error list.
func (br *BatchRunner) Run(ctx context.Context, businessUnitID, actorID string) (*BatchResult, error) {
	if actorID == "" {
		return nil, ErrUnauthorized
	}

	now := br.now()
	due, err := br.Store.AssetsDueForDepreciation(ctx, businessUnitID, now)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		TotalDepreciation: decimal.Zero,
		StartedAt:         now,
	}

	for i := range due {
		a := &due[i]

		if a.Method == assets.MethodUnitsOfProduction {
			result.SkippedAssets++
			continue
		}

		outcome, err := br.Applier.Apply(ctx, ApplyInput{AssetID: a.ID, ActorID: actorID})
		if err != nil {
			br.Log.Warn().Err(err).Str("asset_id", a.ID).Msg("batch: asset failed")
			result.Errors = append(result.Errors, BatchError{AssetID: a.ID, Err: err})
			continue
		}

		if outcome.Applied {
			result.ProcessedAssets++
			result.TotalDepreciation = result.TotalDepreciation.Add(outcome.Entry.Amount)
		} else {
			// Floor-healed: the asset was repaired but no entry exists.
			result.SkippedAssets++
		}
	}

	result.CompletedAt = br.now()

	br.Log.Info().
		Str("business_unit", businessUnitID).
		Int("processed", result.ProcessedAssets).
		Int("skipped", result.SkippedAssets).
		Int("failed", len(result.Errors)).
		Str("total_depreciation", result.TotalDepreciation.StringFixed(2)).
		Msg("batch: run completed")

	return result, nil
}
