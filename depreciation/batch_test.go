package depreciation_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/depreciation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestBatch(mem depreciation.TxStore, now time.Time) *depreciation.BatchRunner {
	br := depreciation.NewBatchRunner(mem, zerolog.Nop())
	br.Now = func() time.Time { return now }
	br.Applier.Now = br.Now
	return br
}

// saveDueAsset stores a straight-line asset purchased months ago so it is
// due for a cycle at the given now.
func saveDueAsset(t *testing.T, mem *store.Memory, id, businessUnit string, now time.Time) {
	t.Helper()
	a := assets.New(id, "Asset "+id, businessUnit,
		d(42000), d(2000), assets.MethodStraightLine, 60,
		now.AddDate(0, -2, 0))
	require.NoError(t, mem.SaveAsset(context.Background(), a))
}

// =============================================================================
// BATCH RUNS
// =============================================================================

func TestBatch_ProcessesAllDueAssets(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()
	for _, id := range []string{"a-1", "a-2", "a-3"} {
		saveDueAsset(t, mem, id, "bu-1", now)
	}

	br := newTestBatch(mem, now)
	result, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ProcessedAssets)
	assert.Equal(t, 0, result.SkippedAssets)
	assert.Empty(t, result.Errors)

	// 3 * 666.67
	want := decimal.NewFromFloat(2000.01)
	assert.True(t, result.TotalDepreciation.Equal(want), "total %v", result.TotalDepreciation)
}

func TestBatch_EmptyActor_Unauthorized(t *testing.T) {
	br := newTestBatch(store.NewMemory(), date(2025, time.June, 1))

	_, err := br.Run(context.Background(), "", "")
	assert.ErrorIs(t, err, depreciation.ErrUnauthorized)
}

func TestBatch_ScopesToBusinessUnit(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()
	saveDueAsset(t, mem, "a-1", "bu-1", now)
	saveDueAsset(t, mem, "a-2", "bu-2", now)

	br := newTestBatch(mem, now)
	result, err := br.Run(ctx, "bu-1", testActor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessedAssets)

	// Only the scoped asset moved
	other, err := mem.GetAsset(ctx, "a-2")
	require.NoError(t, err)
	assert.True(t, other.CurrentBookValue.Equal(d(42000)))
}

func TestBatch_SecondRunFindsNothingDue(t *testing.T) {
	// A cycle advances the next-due date a month, so an immediate re-run
	// processes nothing.
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()
	saveDueAsset(t, mem, "a-1", "bu-1", now)

	br := newTestBatch(mem, now)
	first, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)
	require.Equal(t, 1, first.ProcessedAssets)

	second, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ProcessedAssets)
	assert.Empty(t, second.Errors)
}

// =============================================================================
// SKIPPING
// =============================================================================

func TestBatch_SkipsUnitsOfProductionAssets(t *testing.T) {
	// Units-of-production assets only move via explicit unit counts; a
	// batch has none to give.
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()
	saveDueAsset(t, mem, "a-1", "bu-1", now)

	press := assets.New("press-1", "Printing Press", "bu-1",
		d(350000), d(30000), assets.MethodUnitsOfProduction, 96,
		now.AddDate(0, -2, 0))
	units := d(2000000)
	press.TotalExpectedUnits = &units
	require.NoError(t, mem.SaveAsset(ctx, press))

	br := newTestBatch(mem, now)
	result, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessedAssets)
	assert.Equal(t, 1, result.SkippedAssets)

	stored, err := mem.GetAsset(ctx, "press-1")
	require.NoError(t, err)
	assert.True(t, stored.CurrentBookValue.Equal(d(350000)), "press must not move in a batch")
}

func TestBatch_FloorHealedAssetCountsAsSkipped(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()

	a := assets.New("a-1", "Worn Out", "bu-1",
		d(42000), d(2000), assets.MethodStraightLine, 60,
		now.AddDate(0, -2, 0))
	a.CurrentBookValue = d(2000)
	a.AccumulatedDepreciation = d(40000)
	require.NoError(t, mem.SaveAsset(ctx, a))

	br := newTestBatch(mem, now)
	result, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ProcessedAssets)
	assert.Equal(t, 1, result.SkippedAssets)
	assert.Empty(t, result.Errors)

	healed, err := mem.GetAsset(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, healed.FullyDepreciated)
}

// =============================================================================
// PARTIAL FAILURE
// =============================================================================

// failAssets makes the transactional update fail for selected asset IDs,
// simulating concurrent writers hitting the optimistic guard.
type failAssets struct {
	*store.Memory
	ids map[string]bool
}

type failAssetsView struct {
	depreciation.Store
	ids map[string]bool
}

func (f *failAssets) WithTx(ctx context.Context, fn func(depreciation.Store) error) error {
	return f.Memory.WithTx(ctx, func(s depreciation.Store) error {
		return fn(&failAssetsView{Store: s, ids: f.ids})
	})
}

func (v *failAssetsView) UpdateAssetDepreciation(ctx context.Context, id string, upd depreciation.AssetUpdate) error {
	if v.ids[id] {
		return &depreciation.ConcurrentModificationError{AssetID: id}
	}
	return v.Store.UpdateAssetDepreciation(ctx, id, upd)
}

func TestBatch_ContinuesPastFailingAssets(t *testing.T) {
	// GIVEN: five due assets, two of which fail their transactional update
	// WHEN: a batch runs
	// THEN: the other three are processed and both failures are reported
	ctx := context.Background()
	now := date(2025, time.June, 1)
	mem := store.NewMemory()
	for _, id := range []string{"a-1", "a-2", "a-3", "a-4", "a-5"} {
		saveDueAsset(t, mem, id, "bu-1", now)
	}

	wrapped := &failAssets{Memory: mem, ids: map[string]bool{"a-2": true, "a-4": true}}
	br := newTestBatch(wrapped, now)

	result, err := br.Run(ctx, "", testActor)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ProcessedAssets)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "a-2", result.Errors[0].AssetID)
	assert.Equal(t, "a-4", result.Errors[1].AssetID)
	for _, be := range result.Errors {
		assert.ErrorIs(t, be.Err, depreciation.ErrConcurrentModification)
	}

	// Failed assets were rolled back, not partially written
	for _, id := range []string{"a-2", "a-4"} {
		a, err := mem.GetAsset(ctx, id)
		require.NoError(t, err)
		assert.True(t, a.CurrentBookValue.Equal(d(42000)), "%s must be untouched", id)
		entries, err := mem.EntriesByAsset(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}
