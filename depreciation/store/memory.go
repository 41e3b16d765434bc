// Package store provides an in-memory depreciation.TxStore for tests/dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	assets  map[string]*assets.Asset
	entries map[string][]depreciation.Entry
	audits  []depreciation.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		assets:  make(map[string]*assets.Asset),
		entries: make(map[string][]depreciation.Entry),
	}
}

func (m *Memory) GetAsset(_ context.Context, id string) (*assets.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAssetLocked(id)
}

func (m *Memory) getAssetLocked(id string) (*assets.Asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, depreciation.ErrAssetNotFound
	}
	c := cloneAsset(a)
	return &c, nil
}

func (m *Memory) SaveAsset(_ context.Context, a *assets.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAssetLocked(a)
}

func (m *Memory) saveAssetLocked(a *assets.Asset) error {
	c := cloneAsset(a)
	m.assets[a.ID] = &c
	return nil
}

func (m *Memory) UpdateAssetDepreciation(_ context.Context, id string, upd depreciation.AssetUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(id, upd)
}

func (m *Memory) updateLocked(id string, upd depreciation.AssetUpdate) error {
	a, ok := m.assets[id]
	if !ok {
		return depreciation.ErrAssetNotFound
	}
	// Optimistic guard, same semantics as the SQL WHERE clause.
	if !a.CurrentBookValue.Equal(upd.ExpectedBookValue) {
		return &depreciation.ConcurrentModificationError{AssetID: id}
	}

	a.CurrentBookValue = upd.NewBookValue
	a.AccumulatedDepreciation = upd.AccumulatedDepreciation
	if upd.CurrentUnits != nil {
		a.CurrentUnits = *upd.CurrentUnits
	}
	a.LastDepreciationAt = cloneTime(upd.LastDepreciationAt)
	a.NextDepreciationAt = cloneTime(upd.NextDepreciationAt)
	a.Status = upd.Status
	a.FullyDepreciated = upd.FullyDepreciated
	a.UpdatedAt = upd.UpdatedAt
	return nil
}

func (m *Memory) ListAssets(_ context.Context, businessUnitID string) ([]assets.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(businessUnitID), nil
}

func (m *Memory) listLocked(businessUnitID string) []assets.Asset {
	var out []assets.Asset
	for _, a := range m.assets {
		if businessUnitID != "" && a.BusinessUnitID != businessUnitID {
			continue
		}
		out = append(out, cloneAsset(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) AssetsDueForDepreciation(_ context.Context, businessUnitID string, now time.Time) ([]assets.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dueLocked(businessUnitID, now), nil
}

func (m *Memory) dueLocked(businessUnitID string, now time.Time) []assets.Asset {
	var out []assets.Asset
	for _, a := range m.assets {
		if businessUnitID != "" && a.BusinessUnitID != businessUnitID {
			continue
		}
		if !isDue(a, now) {
			continue
		}
		out = append(out, cloneAsset(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isDue(a *assets.Asset, now time.Time) bool {
	return a.Status == assets.StatusActive &&
		!a.FullyDepreciated &&
		a.NextDepreciationAt != nil &&
		!a.NextDepreciationAt.After(now) &&
		a.HasDepreciationConfig()
}

func (m *Memory) AppendEntry(_ context.Context, e depreciation.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.AssetID] = append(m.entries[e.AssetID], e)
	return nil
}

func (m *Memory) EntriesByAsset(_ context.Context, assetID string) ([]depreciation.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]depreciation.Entry, len(m.entries[assetID]))
	copy(out, m.entries[assetID])
	return out, nil
}

func (m *Memory) AppendAudit(_ context.Context, e depreciation.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, e)
	return nil
}

// AuditByAsset returns the asset's audit trail, oldest first.
func (m *Memory) AuditByAsset(_ context.Context, assetID string) ([]depreciation.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []depreciation.AuditEntry
	for _, e := range m.audits {
		if e.AssetID == assetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Summary(_ context.Context, businessUnitID string, now time.Time) (depreciation.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s depreciation.Summary
	s.TotalOriginalValue = decimal.Zero
	s.TotalCurrentValue = decimal.Zero
	s.TotalDepreciation = decimal.Zero

	for _, a := range m.assets {
		if businessUnitID != "" && a.BusinessUnitID != businessUnitID {
			continue
		}
		s.TotalAssets++
		s.TotalOriginalValue = s.TotalOriginalValue.Add(a.PurchasePrice)
		s.TotalCurrentValue = s.TotalCurrentValue.Add(a.CurrentBookValue)
		s.TotalDepreciation = s.TotalDepreciation.Add(a.AccumulatedDepreciation)
		if a.FullyDepreciated {
			s.FullyDepreciatedAssets++
		}
		if isDue(a, now) {
			s.AssetsDueForDepreciation++
		}
	}
	return s, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn against a view of the store, simulated with a
// snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(depreciation.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &txView{parent: m}

	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	assets  map[string]*assets.Asset
	entries map[string][]depreciation.Entry
	audits  []depreciation.AuditEntry
}

func (m *Memory) snapshot() memorySnapshot {
	assetsCopy := make(map[string]*assets.Asset, len(m.assets))
	for k, v := range m.assets {
		c := cloneAsset(v)
		assetsCopy[k] = &c
	}
	entriesCopy := make(map[string][]depreciation.Entry, len(m.entries))
	for k, v := range m.entries {
		entriesCopy[k] = append([]depreciation.Entry{}, v...)
	}
	return memorySnapshot{
		assets:  assetsCopy,
		entries: entriesCopy,
		audits:  append([]depreciation.AuditEntry{}, m.audits...),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.assets = s.assets
	m.entries = s.entries
	m.audits = s.audits
}

// txView exposes the already-locked store to the transaction body.
type txView struct {
	parent *Memory
}

func (tv *txView) GetAsset(_ context.Context, id string) (*assets.Asset, error) {
	return tv.parent.getAssetLocked(id)
}

func (tv *txView) SaveAsset(_ context.Context, a *assets.Asset) error {
	return tv.parent.saveAssetLocked(a)
}

func (tv *txView) UpdateAssetDepreciation(_ context.Context, id string, upd depreciation.AssetUpdate) error {
	return tv.parent.updateLocked(id, upd)
}

func (tv *txView) ListAssets(_ context.Context, businessUnitID string) ([]assets.Asset, error) {
	return tv.parent.listLocked(businessUnitID), nil
}

func (tv *txView) AssetsDueForDepreciation(_ context.Context, businessUnitID string, now time.Time) ([]assets.Asset, error) {
	return tv.parent.dueLocked(businessUnitID, now), nil
}

func (tv *txView) AppendEntry(_ context.Context, e depreciation.Entry) error {
	tv.parent.entries[e.AssetID] = append(tv.parent.entries[e.AssetID], e)
	return nil
}

func (tv *txView) EntriesByAsset(_ context.Context, assetID string) ([]depreciation.Entry, error) {
	out := make([]depreciation.Entry, len(tv.parent.entries[assetID]))
	copy(out, tv.parent.entries[assetID])
	return out, nil
}

func (tv *txView) AppendAudit(_ context.Context, e depreciation.AuditEntry) error {
	tv.parent.audits = append(tv.parent.audits, e)
	return nil
}

func (tv *txView) Summary(ctx context.Context, businessUnitID string, now time.Time) (depreciation.Summary, error) {
	// Summary is read-only; delegate to the locked aggregation.
	var s depreciation.Summary
	s.TotalOriginalValue = decimal.Zero
	s.TotalCurrentValue = decimal.Zero
	s.TotalDepreciation = decimal.Zero
	for _, a := range tv.parent.assets {
		if businessUnitID != "" && a.BusinessUnitID != businessUnitID {
			continue
		}
		s.TotalAssets++
		s.TotalOriginalValue = s.TotalOriginalValue.Add(a.PurchasePrice)
		s.TotalCurrentValue = s.TotalCurrentValue.Add(a.CurrentBookValue)
		s.TotalDepreciation = s.TotalDepreciation.Add(a.AccumulatedDepreciation)
		if a.FullyDepreciated {
			s.FullyDepreciatedAssets++
		}
		if isDue(a, now) {
			s.AssetsDueForDepreciation++
		}
	}
	return s, nil
}

// =============================================================================
// CLONE HELPERS - deep copies so callers never share pointers with the store
// =============================================================================

func cloneAsset(a *assets.Asset) assets.Asset {
	c := *a
	c.AnnualRate = cloneDecimal(a.AnnualRate)
	c.TotalExpectedUnits = cloneDecimal(a.TotalExpectedUnits)
	c.DepreciationStart = cloneTime(a.DepreciationStart)
	c.LastDepreciationAt = cloneTime(a.LastDepreciationAt)
	c.NextDepreciationAt = cloneTime(a.NextDepreciationAt)
	return c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
