/*
Package depreciation implements the asset depreciation engine.

PURPOSE:
  Four components, layered from pure to stateful:
  - Calculator (calculator.go): closed-form per-period amount, a leaf with
    no dependencies
  - Schedule Projector (schedule.go): full amortization table without
    mutating anything
  - Applier (applier.go): one read-modify-write depreciation cycle per
    asset, transactionally atomic
  - Batch Runner (batch.go): applies the Applier to every asset that is
    due, isolating per-asset failures

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: An immutable history record, one per calculation run
  - AuditEntry: Who did what when, separate from the entry ledger
  - Summary: Aggregate figures per business unit

DESIGN PRINCIPLES:
  1. Immutability: Entries and audit records are append-only; there is no
     update or delete path anywhere in the engine
  2. Precision: decimal.Decimal internally, float64 only at the API boundary
  3. Explicit clocks: Every component takes `now` via an injectable func

SEE ALSO:
  - store.go: Persistence interfaces
  - assets/: The domain model this engine operates on
*/
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

// =============================================================================
// ENTRY - Immutable per-run history record (append-only ledger per asset)
// =============================================================================

// Entry captures one depreciation calculation run. Once created it is never
// modified; the per-asset sequence of entries is the audit ledger from which
// any past book value can be reconstructed.
type Entry struct {
	ID      string
	AssetID string

	PeriodStart time.Time
	PeriodEnd   time.Time

	BookValueBefore  decimal.Decimal
	BookValueAfter   decimal.Decimal
	Amount           decimal.Decimal
	AccumulatedAfter decimal.Decimal

	Method        assets.Method
	UnitsConsumed *decimal.Decimal // units-of-production only

	CreatedBy string // acting user
	CreatedAt time.Time
}

// =============================================================================
// AUDIT LOG - Separate from the entry ledger, tracks who did what when
// =============================================================================

type AuditAction string

const (
	AuditAssetRegistered       AuditAction = "asset_registered"
	AuditAssetUpdated          AuditAction = "asset_updated"
	AuditDepreciationApplied   AuditAction = "depreciation_applied"
	AuditAssetFullyDepreciated AuditAction = "asset_fully_depreciated"
	AuditBatchCompleted        AuditAction = "batch_completed"
)

// AuditEntry records an action against an asset. Also append-only.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	Action    AuditAction
	AssetID   string
	Payload   map[string]any // action-specific data
}

// =============================================================================
// SUMMARY - Aggregate depreciation figures for a business-unit scope
// =============================================================================

type Summary struct {
	TotalAssets              int
	TotalOriginalValue       decimal.Decimal
	TotalCurrentValue        decimal.Decimal
	TotalDepreciation        decimal.Decimal
	FullyDepreciatedAssets   int
	AssetsDueForDepreciation int
}
