/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements depreciation.Store and depreciation.TxStore using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for depreciation_entries or audit_log.
  History is immutable once written; corrections happen through new entries.

OPTIMISTIC GUARD:
  UpdateAssetDepreciation writes with
    WHERE id = ? AND current_book_value = ?
  so a cycle that raced another writer affects zero rows and surfaces as
  depreciation.ConcurrentModificationError, rolling back the transaction.

KEY TABLES:
  assets:               Depreciable asset records
  depreciation_entries: Immutable per-cycle history (append-only)
  audit_log:            Who did what, when (append-only)
  batch_runs:           One row per batch execution
  business_units:       Batch and summary scoping

MONEY:
  Monetary columns are TEXT holding canonical decimal strings. Values
  round-trip through shopspring/decimal, never through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead. Transactional
  helpers take a queryer so the same code serves *sql.DB and *sql.Tx
  without re-acquiring the mutex inside WithTx.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/assets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  applier := depreciation.NewApplier(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - depreciation/store.go: Interface definitions
  - depreciation/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Assets
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		business_unit_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		purchase_date TEXT NOT NULL,
		purchase_price TEXT NOT NULL,
		salvage_value TEXT NOT NULL,
		method TEXT NOT NULL,
		useful_life_months INTEGER NOT NULL,
		annual_rate TEXT,
		total_expected_units TEXT,
		current_units TEXT NOT NULL DEFAULT '0',
		current_book_value TEXT NOT NULL,
		accumulated_depreciation TEXT NOT NULL DEFAULT '0',
		depreciation_start TEXT,
		last_depreciation_at TEXT,
		next_depreciation_at TEXT,
		fully_depreciated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_business_unit
		ON assets(business_unit_id);

	-- Hot path: batch selection of due assets
	CREATE INDEX IF NOT EXISTS idx_assets_due
		ON assets(status, fully_depreciated, next_depreciation_at)
		WHERE next_depreciation_at IS NOT NULL;

	-- Depreciation entries (append-only history)
	CREATE TABLE IF NOT EXISTS depreciation_entries (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		book_value_before TEXT NOT NULL,
		book_value_after TEXT NOT NULL,
		amount TEXT NOT NULL,
		accumulated_after TEXT NOT NULL,
		method TEXT NOT NULL,
		units_consumed TEXT,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_asset
		ON depreciation_entries(asset_id, period_end);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_asset
		ON audit_log(asset_id, timestamp);

	-- Batch runs (one row per batch execution)
	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		processed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		total_depreciation TEXT NOT NULL DEFAULT '0',
		error TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batch_runs_status
		ON batch_runs(status);

	-- Business units
	CREATE TABLE IF NOT EXISTS business_units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryer abstracts *sql.DB and *sql.Tx so the same helpers serve both.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ASSETS (depreciation.Store interface)
// =============================================================================

const assetColumns = `id, name, business_unit_id, status, purchase_date, purchase_price,
	salvage_value, method, useful_life_months, annual_rate, total_expected_units,
	current_units, current_book_value, accumulated_depreciation, depreciation_start,
	last_depreciation_at, next_depreciation_at, fully_depreciated, created_at, updated_at`

// GetAsset returns the asset or depreciation.ErrAssetNotFound.
func (s *Store) GetAsset(ctx context.Context, id string) (*assets.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAsset(ctx, s.db, id)
}

func getAsset(ctx context.Context, q queryer, id string) (*assets.Asset, error) {
	row := q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, depreciation.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// SaveAsset inserts or replaces a full asset record.
func (s *Store) SaveAsset(ctx context.Context, a *assets.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAsset(ctx, s.db, a)
}

func saveAsset(ctx context.Context, q queryer, a *assets.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			business_unit_id = excluded.business_unit_id,
			status = excluded.status,
			purchase_date = excluded.purchase_date,
			purchase_price = excluded.purchase_price,
			salvage_value = excluded.salvage_value,
			method = excluded.method,
			useful_life_months = excluded.useful_life_months,
			annual_rate = excluded.annual_rate,
			total_expected_units = excluded.total_expected_units,
			current_units = excluded.current_units,
			current_book_value = excluded.current_book_value,
			accumulated_depreciation = excluded.accumulated_depreciation,
			depreciation_start = excluded.depreciation_start,
			last_depreciation_at = excluded.last_depreciation_at,
			next_depreciation_at = excluded.next_depreciation_at,
			fully_depreciated = excluded.fully_depreciated,
			updated_at = excluded.updated_at
	`

	_, err := q.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.BusinessUnitID,
		string(a.Status),
		a.PurchaseDate.Format(time.RFC3339),
		a.PurchasePrice.String(),
		a.SalvageValue.String(),
		string(a.Method),
		a.UsefulLifeMonths,
		nullDecimal(a.AnnualRate),
		nullDecimal(a.TotalExpectedUnits),
		a.CurrentUnits.String(),
		a.CurrentBookValue.String(),
		a.AccumulatedDepreciation.String(),
		nullTime(a.DepreciationStart),
		nullTime(a.LastDepreciationAt),
		nullTime(a.NextDepreciationAt),
		a.FullyDepreciated,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// UpdateAssetDepreciation applies a post-cycle update with the optimistic
// book-value guard baked into the WHERE clause.
func (s *Store) UpdateAssetDepreciation(ctx context.Context, id string, upd depreciation.AssetUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAssetDepreciation(ctx, s.db, id, upd)
}

func updateAssetDepreciation(ctx context.Context, q queryer, id string, upd depreciation.AssetUpdate) error {
	query := `
		UPDATE assets SET
			current_book_value = ?,
			accumulated_depreciation = ?,
			current_units = COALESCE(?, current_units),
			last_depreciation_at = ?,
			next_depreciation_at = ?,
			status = ?,
			fully_depreciated = ?,
			updated_at = ?
		WHERE id = ? AND current_book_value = ?
	`

	res, err := q.ExecContext(ctx, query,
		upd.NewBookValue.String(),
		upd.AccumulatedDepreciation.String(),
		nullDecimal(upd.CurrentUnits),
		nullTime(upd.LastDepreciationAt),
		nullTime(upd.NextDepreciationAt),
		string(upd.Status),
		upd.FullyDepreciated,
		upd.UpdatedAt.Format(time.RFC3339),
		id,
		upd.ExpectedBookValue.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing asset from a stale guard.
		var count int
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets WHERE id = ?", id).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return depreciation.ErrAssetNotFound
		}
		return &depreciation.ConcurrentModificationError{AssetID: id}
	}
	return nil
}

// ListAssets returns assets, optionally scoped to a business unit.
func (s *Store) ListAssets(ctx context.Context, businessUnitID string) ([]assets.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssets(ctx, s.db, businessUnitID)
}

func listAssets(ctx context.Context, q queryer, businessUnitID string) ([]assets.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets`
	var args []any
	if businessUnitID != "" {
		query += ` WHERE business_unit_id = ?`
		args = append(args, businessUnitID)
	}
	query += ` ORDER BY name ASC`

	return queryAssets(ctx, q, query, args...)
}

// AssetsDueForDepreciation selects active, not fully depreciated assets
// whose next-due date has passed and whose configuration is complete.
func (s *Store) AssetsDueForDepreciation(ctx context.Context, businessUnitID string, now time.Time) ([]assets.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return assetsDue(ctx, s.db, businessUnitID, now)
}

func assetsDue(ctx context.Context, q queryer, businessUnitID string, now time.Time) ([]assets.Asset, error) {
	query := `
		SELECT ` + assetColumns + ` FROM assets
		WHERE status = 'active'
		  AND fully_depreciated = FALSE
		  AND next_depreciation_at IS NOT NULL
		  AND next_depreciation_at <= ?
		  AND CAST(purchase_price AS REAL) > 0
		  AND useful_life_months > 0
	`
	args := []any{now.UTC().Format(time.RFC3339)}
	if businessUnitID != "" {
		query += ` AND business_unit_id = ?`
		args = append(args, businessUnitID)
	}
	query += ` ORDER BY id ASC`

	return queryAssets(ctx, q, query, args...)
}

func queryAssets(ctx context.Context, q queryer, query string, args ...any) ([]assets.Asset, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var out []assets.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*assets.Asset, error) {
	var (
		a                assets.Asset
		status, method   string
		purchaseDate     string
		purchasePrice    string
		salvageValue     string
		annualRate       sql.NullString
		expectedUnits    sql.NullString
		currentUnits     string
		bookValue        string
		accumulated      string
		depreciationFrom sql.NullString
		lastAt, nextAt   sql.NullString
		createdAt        string
		updatedAt        string
	)

	err := row.Scan(
		&a.ID, &a.Name, &a.BusinessUnitID, &status, &purchaseDate, &purchasePrice,
		&salvageValue, &method, &a.UsefulLifeMonths, &annualRate, &expectedUnits,
		&currentUnits, &bookValue, &accumulated, &depreciationFrom,
		&lastAt, &nextAt, &a.FullyDepreciated, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = assets.Status(status)
	a.Method = assets.Method(method)
	a.PurchaseDate = parseTime(purchaseDate)
	a.PurchasePrice = parseDecimal(purchasePrice)
	a.SalvageValue = parseDecimal(salvageValue)
	a.AnnualRate = parseNullDecimal(annualRate)
	a.TotalExpectedUnits = parseNullDecimal(expectedUnits)
	a.CurrentUnits = parseDecimal(currentUnits)
	a.CurrentBookValue = parseDecimal(bookValue)
	a.AccumulatedDepreciation = parseDecimal(accumulated)
	a.DepreciationStart = parseNullTime(depreciationFrom)
	a.LastDepreciationAt = parseNullTime(lastAt)
	a.NextDepreciationAt = parseNullTime(nextAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// =============================================================================
// DEPRECIATION ENTRIES (append-only)
// =============================================================================

// AppendEntry persists an immutable depreciation entry.
func (s *Store) AppendEntry(ctx context.Context, e depreciation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, q queryer, e depreciation.Entry) error {
	query := `
		INSERT INTO depreciation_entries
		(id, asset_id, period_start, period_end, book_value_before, book_value_after,
		 amount, accumulated_after, method, units_consumed, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		e.ID,
		e.AssetID,
		e.PeriodStart.Format(time.RFC3339),
		e.PeriodEnd.Format(time.RFC3339),
		e.BookValueBefore.String(),
		e.BookValueAfter.String(),
		e.Amount.String(),
		e.AccumulatedAfter.String(),
		string(e.Method),
		nullDecimal(e.UnitsConsumed),
		e.CreatedBy,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// EntriesByAsset returns the asset's history, oldest first.
func (s *Store) EntriesByAsset(ctx context.Context, assetID string) ([]depreciation.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesByAsset(ctx, s.db, assetID)
}

func entriesByAsset(ctx context.Context, q queryer, assetID string) ([]depreciation.Entry, error) {
	query := `
		SELECT id, asset_id, period_start, period_end, book_value_before, book_value_after,
		       amount, accumulated_after, method, units_consumed, created_by, created_at
		FROM depreciation_entries
		WHERE asset_id = ?
		ORDER BY period_end ASC, created_at ASC
	`

	rows, err := q.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []depreciation.Entry
	for rows.Next() {
		var (
			e             depreciation.Entry
			periodStart   string
			periodEnd     string
			before, after string
			amount        string
			accumulated   string
			method        string
			units         sql.NullString
			createdAt     string
		)
		if err := rows.Scan(&e.ID, &e.AssetID, &periodStart, &periodEnd, &before, &after,
			&amount, &accumulated, &method, &units, &e.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.PeriodStart = parseTime(periodStart)
		e.PeriodEnd = parseTime(periodEnd)
		e.BookValueBefore = parseDecimal(before)
		e.BookValueAfter = parseDecimal(after)
		e.Amount = parseDecimal(amount)
		e.AccumulatedAfter = parseDecimal(accumulated)
		e.Method = assets.Method(method)
		e.UnitsConsumed = parseNullDecimal(units)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// AUDIT LOG (append-only)
// =============================================================================

// AppendAudit persists an audit record.
func (s *Store) AppendAudit(ctx context.Context, e depreciation.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, e)
}

func appendAudit(ctx context.Context, q queryer, e depreciation.AuditEntry) error {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, asset_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Timestamp.Format(time.RFC3339),
		e.ActorID,
		string(e.Action),
		e.AssetID,
		string(payloadJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditByAsset returns the asset's audit trail, oldest first.
func (s *Store) AuditByAsset(ctx context.Context, assetID string) ([]depreciation.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, actor_id, action, asset_id, payload_json
		FROM audit_log WHERE asset_id = ? ORDER BY timestamp ASC`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []depreciation.AuditEntry
	for rows.Next() {
		var (
			e           depreciation.AuditEntry
			timestamp   string
			action      string
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &timestamp, &e.ActorID, &action, &e.AssetID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = parseTime(timestamp)
		e.Action = depreciation.AuditAction(action)
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit payload: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates book values over a business-unit scope. Aggregation
// happens in Go over decimals, not in SQL over floats, so totals stay exact.
func (s *Store) Summary(ctx context.Context, businessUnitID string, now time.Time) (depreciation.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return summarize(ctx, s.db, businessUnitID, now)
}

func summarize(ctx context.Context, q queryer, businessUnitID string, now time.Time) (depreciation.Summary, error) {
	all, err := listAssets(ctx, q, businessUnitID)
	if err != nil {
		return depreciation.Summary{}, err
	}

	sum := depreciation.Summary{
		TotalOriginalValue: decimal.Zero,
		TotalCurrentValue:  decimal.Zero,
		TotalDepreciation:  decimal.Zero,
	}
	for i := range all {
		a := &all[i]
		sum.TotalAssets++
		sum.TotalOriginalValue = sum.TotalOriginalValue.Add(a.PurchasePrice)
		sum.TotalCurrentValue = sum.TotalCurrentValue.Add(a.CurrentBookValue)
		sum.TotalDepreciation = sum.TotalDepreciation.Add(a.AccumulatedDepreciation)
		if a.FullyDepreciated {
			sum.FullyDepreciatedAssets++
		}
		if a.Status == assets.StatusActive && !a.FullyDepreciated &&
			a.NextDepreciationAt != nil && !a.NextDepreciationAt.After(now) &&
			a.HasDepreciationConfig() {
			sum.AssetsDueForDepreciation++
		}
	}
	return sum, nil
}

// =============================================================================
// TRANSACTIONAL STORE (depreciation.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Every read and write
// inside fn goes through the same *sql.Tx, so a failed cycle rolls back
// the asset update, the entry, and the audit record together.
func (s *Store) WithTx(ctx context.Context, fn func(depreciation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every operation through the open transaction. It must not
// touch the parent's mutex - WithTx already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetAsset(ctx context.Context, id string) (*assets.Asset, error) {
	return getAsset(ctx, ts.tx, id)
}

func (ts *txStore) SaveAsset(ctx context.Context, a *assets.Asset) error {
	return saveAsset(ctx, ts.tx, a)
}

func (ts *txStore) UpdateAssetDepreciation(ctx context.Context, id string, upd depreciation.AssetUpdate) error {
	return updateAssetDepreciation(ctx, ts.tx, id, upd)
}

func (ts *txStore) ListAssets(ctx context.Context, businessUnitID string) ([]assets.Asset, error) {
	return listAssets(ctx, ts.tx, businessUnitID)
}

func (ts *txStore) AssetsDueForDepreciation(ctx context.Context, businessUnitID string, now time.Time) ([]assets.Asset, error) {
	return assetsDue(ctx, ts.tx, businessUnitID, now)
}

func (ts *txStore) AppendEntry(ctx context.Context, e depreciation.Entry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) EntriesByAsset(ctx context.Context, assetID string) ([]depreciation.Entry, error) {
	return entriesByAsset(ctx, ts.tx, assetID)
}

func (ts *txStore) AppendAudit(ctx context.Context, e depreciation.AuditEntry) error {
	return appendAudit(ctx, ts.tx, e)
}

func (ts *txStore) Summary(ctx context.Context, businessUnitID string, now time.Time) (depreciation.Summary, error) {
	return summarize(ctx, ts.tx, businessUnitID, now)
}

// =============================================================================
// BUSINESS UNITS
// =============================================================================

// BusinessUnit scopes batch runs and summaries.
type BusinessUnit struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// SaveBusinessUnit inserts or renames a business unit.
func (s *Store) SaveBusinessUnit(ctx context.Context, bu BusinessUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := bu.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO business_units (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		bu.ID, bu.Name, createdAt.Format(time.RFC3339),
	)
	return err
}

// GetBusinessUnit retrieves a business unit by ID. Returns nil if missing.
func (s *Store) GetBusinessUnit(ctx context.Context, id string) (*BusinessUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bu BusinessUnit
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM business_units WHERE id = ?", id,
	).Scan(&bu.ID, &bu.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	bu.CreatedAt = parseTime(createdAt)
	return &bu, nil
}

// ListBusinessUnits returns all business units ordered by name.
func (s *Store) ListBusinessUnits(ctx context.Context) ([]BusinessUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM business_units ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []BusinessUnit
	for rows.Next() {
		var bu BusinessUnit
		var createdAt string
		if err := rows.Scan(&bu.ID, &bu.Name, &createdAt); err != nil {
			return nil, err
		}
		bu.CreatedAt = parseTime(createdAt)
		units = append(units, bu)
	}
	return units, rows.Err()
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// BatchRun records one batch execution for audit and UI display.
type BatchRun struct {
	ID                string
	BusinessUnitID    string
	Status            string // "running", "completed", "failed"
	Processed         int
	Skipped           int
	Failed            int
	TotalDepreciation decimal.Decimal
	Error             string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
}

// SaveBatchRun inserts or updates a batch run record.
func (s *Store) SaveBatchRun(ctx context.Context, run BatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs
		(id, business_unit_id, status, processed, skipped, failed, total_depreciation,
		 error, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			processed = excluded.processed,
			skipped = excluded.skipped,
			failed = excluded.failed,
			total_depreciation = excluded.total_depreciation,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at`,
		run.ID,
		run.BusinessUnitID,
		run.Status,
		run.Processed,
		run.Skipped,
		run.Failed,
		run.TotalDepreciation.String(),
		nullStr(run.Error),
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// ListBatchRuns returns recent batch runs, newest first.
func (s *Store) ListBatchRuns(ctx context.Context, limit int) ([]BatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_unit_id, status, processed, skipped, failed,
		       total_depreciation, error, started_at, completed_at, created_at
		FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var (
			run       BatchRun
			total     string
			errMsg    sql.NullString
			started   sql.NullString
			completed sql.NullString
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.BusinessUnitID, &run.Status, &run.Processed,
			&run.Skipped, &run.Failed, &total, &errMsg, &started, &completed, &createdAt); err != nil {
			return nil, err
		}
		run.TotalDepreciation = parseDecimal(total)
		run.Error = errMsg.String
		run.StartedAt = parseNullTime(started)
		run.CompletedAt = parseNullTime(completed)
		run.CreatedAt = parseTime(createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// RESET (dev/demo only, used by scenario loading)
// =============================================================================

// Reset wipes every table. Only the scenario loader calls this.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"assets", "depreciation_entries", "audit_log", "batch_runs", "business_units"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// SCAN/FORMAT HELPERS
// =============================================================================

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d := parseDecimal(s.String)
	return &d
}
