/*
store.go - Persistence interface for assets, entries, and the audit log

PURPOSE:
  Defines the interface between the engine and the database. Entries and
  audit records are APPEND-ONLY: the interface exposes no update or delete
  for either. Asset updates go through a single narrow method carrying an
  optimistic book-value guard, so two concurrent cycles against the same
  asset cannot both win.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - depreciation/store: In-memory store for tests

ATOMICITY:
  TxStore.WithTx brackets one full depreciation cycle (entry append, asset
  update, audit append). A partial write - entry without asset update, or
  vice versa - is a consistency violation, so the Applier refuses to run
  against a Store that cannot provide transactions.

SEE ALSO:
  - applier.go: The only writer of entries
  - store/sqlite/sqlite.go: Concrete implementation
*/
package depreciation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

// =============================================================================
// ASSET UPDATE - Narrow, optimistically-guarded write
// =============================================================================

// AssetUpdate carries the post-cycle state of an asset's depreciation
// fields. ExpectedBookValue is the book value the cycle read at the start;
// the store must reject the write with ErrConcurrentModification if the
// stored value no longer matches.
type AssetUpdate struct {
	ExpectedBookValue decimal.Decimal

	NewBookValue            decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	CurrentUnits            *decimal.Decimal // nil = leave unchanged
	LastDepreciationAt      *time.Time
	NextDepreciationAt      *time.Time // nil = terminal, no further periods
	Status                  assets.Status
	FullyDepreciated        bool
	UpdatedAt               time.Time
}

// =============================================================================
// STORE - Persistence operations used by the engine
// =============================================================================

// Store handles persistence of assets, depreciation entries, and audit
// records. Entries and audit records are append-only; corrections would be
// made via compensating entries, never edits.
type Store interface {
	// GetAsset returns the asset or ErrAssetNotFound.
	GetAsset(ctx context.Context, id string) (*assets.Asset, error)

	// SaveAsset inserts or replaces a full asset record (registration/edit).
	SaveAsset(ctx context.Context, a *assets.Asset) error

	// UpdateAssetDepreciation applies a post-cycle update with an optimistic
	// book-value guard. Returns ErrConcurrentModification on a stale guard.
	UpdateAssetDepreciation(ctx context.Context, id string, upd AssetUpdate) error

	// ListAssets returns assets, optionally scoped to a business unit
	// (empty string = all), ordered by name.
	ListAssets(ctx context.Context, businessUnitID string) ([]assets.Asset, error)

	// AssetsDueForDepreciation returns active, not fully depreciated assets
	// with a next-due date <= now and complete configuration, optionally
	// scoped to a business unit.
	AssetsDueForDepreciation(ctx context.Context, businessUnitID string, now time.Time) ([]assets.Asset, error)

	// AppendEntry persists an immutable depreciation entry.
	AppendEntry(ctx context.Context, e Entry) error

	// EntriesByAsset returns the asset's entries, oldest first.
	EntriesByAsset(ctx context.Context, assetID string) ([]Entry, error)

	// AppendAudit persists an audit record.
	AppendAudit(ctx context.Context, e AuditEntry) error

	// Summary aggregates depreciation figures for a business-unit scope
	// (empty string = all assets).
	Summary(ctx context.Context, businessUnitID string, now time.Time) (Summary, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic read-modify-write per asset
// =============================================================================

// TxStore wraps Store with transaction support. The Applier runs each
// depreciation cycle inside WithTx so the entry append, asset update, and
// audit append land together or not at all.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
