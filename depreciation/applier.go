/*
applier.go - One depreciation cycle, transactionally atomic

PURPOSE:
  Reads the asset, invokes the Calculator, clamps the result to the
  salvage floor, writes back the new book value and accumulated total,
  flips the fully-depreciated flag when the floor is reached, and records
  an immutable Entry plus an audit record - all inside one store
  transaction keyed by the asset.

CLAMPING:
  actual = min(calculated, bookValue - salvage). The floor must never be
  breached, whatever the formula says.

SELF-HEALING GUARD:
  An active asset found already at (or past) the floor is repaired in
  place: the flag flips, status goes terminal, and the cycle reports a
  non-success outcome without creating an entry. This is a guard, not an
  error path - the asset state was stale, and now it isn't.

CONCURRENCY:
  The asset update carries the book value read at the start of the cycle.
  If another run changed it meanwhile, the store returns
  ErrConcurrentModification and the whole transaction rolls back, so two
  concurrent runs can never double-depreciate the same asset.

SEE ALSO:
  - calculator.go: The pure formula
  - batch.go: Applies this to every asset that is due
*/
package depreciation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
)

// Applier performs single depreciation cycles against a transactional store.
type Applier struct {
	Store TxStore

	// Now is the clock; defaults to time.Now in UTC.
	Now func() time.Time
}

func NewApplier(store TxStore) *Applier {
	return &Applier{Store: store}
}

func (ap *Applier) now() time.Time {
	if ap.Now != nil {
		return ap.Now()
	}
	return time.Now().UTC()
}

// ApplyInput identifies the asset and the acting user for one cycle.
// UnitsInPeriod is only meaningful for units-of-production assets.
type ApplyInput struct {
	AssetID       string
	ActorID       string
	UnitsInPeriod *decimal.Decimal
}

// ApplyOutcome describes a completed (or self-healed) cycle.
type ApplyOutcome struct {
	// Applied is true when a new entry was created and the asset moved.
	Applied bool

	// FloorHealed is true when the cycle found the asset already at the
	// salvage floor and repaired its flag instead of depreciating.
	FloorHealed bool

	Message string
	Asset   *assets.Asset // post-cycle state
	Entry   *Entry        // nil unless Applied
}

// Apply performs one depreciation cycle for the asset. All writes happen
// inside a single transaction; on any error nothing is persisted.
func (ap *Applier) Apply(ctx context.Context, in ApplyInput) (*ApplyOutcome, error) {
	if in.ActorID == "" {
		return nil, ErrUnauthorized
	}

	now := ap.now()
	var outcome *ApplyOutcome

	err := ap.Store.WithTx(ctx, func(s Store) error {
		a, err := s.GetAsset(ctx, in.AssetID)
		if err != nil {
			return err
		}
		if a.Status == assets.StatusDisposed {
			return ErrAssetNotFound
		}
		if !a.PurchasePrice.IsPositive() {
			return &MissingConfigurationError{AssetID: a.ID, Field: "purchase_price"}
		}
		if a.UsefulLifeMonths <= 0 {
			return &MissingConfigurationError{AssetID: a.ID, Field: "useful_life_months"}
		}
		if a.FullyDepreciated {
			return ErrAlreadyFullyDepreciated
		}

		if a.AtFloor() {
			outcome, err = ap.healFloor(ctx, s, a, in.ActorID, now)
			return err
		}

		outcome, err = ap.runCycle(ctx, s, a, in, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// healFloor flips the terminal flag on an asset whose book value already
// sits at (or past) the salvage floor. No entry is created.
func (ap *Applier) healFloor(ctx context.Context, s Store, a *assets.Asset, actorID string, now time.Time) (*ApplyOutcome, error) {
	expected := a.CurrentBookValue
	a.MarkFullyDepreciated(now)

	upd := AssetUpdate{
		ExpectedBookValue:       expected,
		NewBookValue:            a.CurrentBookValue,
		AccumulatedDepreciation: a.AccumulatedDepreciation,
		LastDepreciationAt:      a.LastDepreciationAt,
		NextDepreciationAt:      nil,
		Status:                  assets.StatusFullyDepreciated,
		FullyDepreciated:        true,
		UpdatedAt:               now,
	}
	if err := s.UpdateAssetDepreciation(ctx, a.ID, upd); err != nil {
		return nil, err
	}

	audit := AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: now,
		ActorID:   actorID,
		Action:    AuditAssetFullyDepreciated,
		AssetID:   a.ID,
		Payload: map[string]any{
			"reason":     "book value at salvage floor",
			"book_value": a.CurrentBookValue.String(),
		},
	}
	if err := s.AppendAudit(ctx, audit); err != nil {
		return nil, err
	}

	return &ApplyOutcome{
		FloorHealed: true,
		Message:     fmt.Sprintf("asset %s already at salvage floor; marked fully depreciated", a.ID),
		Asset:       a,
	}, nil
}

// runCycle performs the calculate-clamp-persist sequence for one period.
func (ap *Applier) runCycle(ctx context.Context, s Store, a *assets.Asset, in ApplyInput, now time.Time) (*ApplyOutcome, error) {
	periodStart := a.PeriodStartFor(now)
	periodEnd := now
	periodIndex := a.PeriodIndexAt(periodStart)

	calculated := PeriodAmount(InputFromAsset(a, in.UnitsInPeriod, periodIndex)).Round(2)

	// Clamp: the salvage floor must never be breached.
	actual := calculated
	if remaining := a.RemainingDepreciable(); actual.GreaterThan(remaining) {
		actual = remaining
	}

	bookBefore := a.CurrentBookValue
	newBookValue := bookBefore.Sub(actual)
	fully := newBookValue.LessThanOrEqual(a.SalvageValue)

	// Derive accumulated from cost and book value so the
	// accumulated + book == cost invariant holds exactly.
	accumulatedAfter := a.PurchasePrice.Sub(newBookValue)

	entry := Entry{
		ID:               uuid.NewString(),
		AssetID:          a.ID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		BookValueBefore:  bookBefore,
		BookValueAfter:   newBookValue,
		Amount:           actual,
		AccumulatedAfter: accumulatedAfter,
		Method:           a.Method,
		CreatedBy:        in.ActorID,
		CreatedAt:        now,
	}
	if a.Method == assets.MethodUnitsOfProduction && in.UnitsInPeriod != nil {
		units := *in.UnitsInPeriod
		entry.UnitsConsumed = &units
	}
	if err := s.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	upd := AssetUpdate{
		ExpectedBookValue:       bookBefore,
		NewBookValue:            newBookValue,
		AccumulatedDepreciation: accumulatedAfter,
		LastDepreciationAt:      &periodEnd,
		Status:                  a.Status,
		FullyDepreciated:        fully,
		UpdatedAt:               now,
	}
	if fully {
		upd.Status = assets.StatusFullyDepreciated
	} else {
		next := periodEnd.AddDate(0, 1, 0)
		upd.NextDepreciationAt = &next
	}
	if a.Method == assets.MethodUnitsOfProduction && in.UnitsInPeriod != nil {
		newUnits := a.CurrentUnits.Add(*in.UnitsInPeriod)
		upd.CurrentUnits = &newUnits
	}
	if err := s.UpdateAssetDepreciation(ctx, a.ID, upd); err != nil {
		return nil, err
	}

	audit := AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: now,
		ActorID:   in.ActorID,
		Action:    AuditDepreciationApplied,
		AssetID:   a.ID,
		Payload: map[string]any{
			"previous_book_value": bookBefore.String(),
			"new_book_value":      newBookValue.String(),
			"amount":              actual.String(),
			"method":              string(a.Method),
			"fully_depreciated":   fully,
		},
	}
	if err := s.AppendAudit(ctx, audit); err != nil {
		return nil, err
	}

	// Reflect the persisted state on the in-memory copy for the caller.
	a.CurrentBookValue = newBookValue
	a.AccumulatedDepreciation = accumulatedAfter
	a.LastDepreciationAt = &periodEnd
	a.NextDepreciationAt = upd.NextDepreciationAt
	a.Status = upd.Status
	a.FullyDepreciated = fully
	if upd.CurrentUnits != nil {
		a.CurrentUnits = *upd.CurrentUnits
	}
	a.UpdatedAt = now

	return &ApplyOutcome{
		Applied: true,
		Message: fmt.Sprintf("depreciated %s by %s", a.ID, actual.StringFixed(2)),
		Asset:   a,
		Entry:   &entry,
	}, nil
}
