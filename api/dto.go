/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AT THE BOUNDARY:
  Internally every monetary figure is a shopspring decimal. DTOs carry
  float64 because JSON clients expect numbers; the conversion happens
  here and only here.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - depreciation/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AssetDTO represents an asset in API responses.
type AssetDTO struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	BusinessUnitID          string   `json:"business_unit_id,omitempty"`
	Status                  string   `json:"status"`
	PurchaseDate            string   `json:"purchase_date"`
	PurchasePrice           float64  `json:"purchase_price"`
	SalvageValue            float64  `json:"salvage_value"`
	Method                  string   `json:"method"`
	UsefulLifeMonths        int      `json:"useful_life_months"`
	AnnualRate              *float64 `json:"annual_rate,omitempty"`
	TotalExpectedUnits      *float64 `json:"total_expected_units,omitempty"`
	CurrentUnits            float64  `json:"current_units"`
	CurrentBookValue        float64  `json:"current_book_value"`
	AccumulatedDepreciation float64  `json:"accumulated_depreciation"`
	DepreciationStart       *string  `json:"depreciation_start,omitempty"`
	LastDepreciationAt      *string  `json:"last_depreciation_at,omitempty"`
	NextDepreciationAt      *string  `json:"next_depreciation_at,omitempty"`
	FullyDepreciated        bool     `json:"fully_depreciated"`
	CreatedAt               string   `json:"created_at,omitempty"`
}

// CreateAssetRequest is the request to register an asset.
type CreateAssetRequest struct {
	ID                 string   `json:"id,omitempty"` // generated when empty
	Name               string   `json:"name"`
	BusinessUnitID     string   `json:"business_unit_id,omitempty"`
	PurchaseDate       string   `json:"purchase_date"` // YYYY-MM-DD
	PurchasePrice      float64  `json:"purchase_price"`
	SalvageValue       float64  `json:"salvage_value"`
	Method             string   `json:"method"`
	UsefulLifeMonths   int      `json:"useful_life_months"`
	AnnualRate         *float64 `json:"annual_rate,omitempty"`
	TotalExpectedUnits *float64 `json:"total_expected_units,omitempty"`
	DepreciationStart  *string  `json:"depreciation_start,omitempty"` // YYYY-MM-DD
}

// RunDepreciationRequest is the body for a manual depreciation cycle.
type RunDepreciationRequest struct {
	// UnitsInPeriod is required for units-of-production assets and
	// ignored for every other method.
	UnitsInPeriod *float64 `json:"units_in_period,omitempty"`
}

// CalculationDTO describes one completed depreciation cycle.
type CalculationDTO struct {
	AssetID          string   `json:"asset_id"`
	PeriodStart      string   `json:"period_start"`
	PeriodEnd        string   `json:"period_end"`
	Method           string   `json:"method"`
	Amount           float64  `json:"amount"`
	BookValueBefore  float64  `json:"book_value_before"`
	BookValueAfter   float64  `json:"book_value_after"`
	AccumulatedAfter float64  `json:"accumulated_after"`
	UnitsConsumed    *float64 `json:"units_consumed,omitempty"`
	FullyDepreciated bool     `json:"fully_depreciated"`
}

// CalculationResultDTO is the response to a manual cycle request.
// Success is false for business outcomes that produced no new entry
// (asset already at the salvage floor).
type CalculationResultDTO struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Calculation *CalculationDTO `json:"calculation,omitempty"`
	Asset       *AssetDTO       `json:"asset,omitempty"`
}

// EntryDTO represents one row of an asset's depreciation history.
type EntryDTO struct {
	ID               string   `json:"id"`
	AssetID          string   `json:"asset_id"`
	PeriodStart      string   `json:"period_start"`
	PeriodEnd        string   `json:"period_end"`
	BookValueBefore  float64  `json:"book_value_before"`
	BookValueAfter   float64  `json:"book_value_after"`
	Amount           float64  `json:"amount"`
	AccumulatedAfter float64  `json:"accumulated_after"`
	Method           string   `json:"method"`
	UnitsConsumed    *float64 `json:"units_consumed,omitempty"`
	CreatedBy        string   `json:"created_by"`
	CreatedAt        string   `json:"created_at"`
}

// SchedulePeriodDTO is one projected month.
type SchedulePeriodDTO struct {
	Period          int     `json:"period"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	BookValueBefore float64 `json:"book_value_before"`
	Amount          float64 `json:"amount"`
	BookValueAfter  float64 `json:"book_value_after"`
	Cumulative      float64 `json:"cumulative"`
}

// ScheduleResponseDTO is the full projected schedule for an asset.
type ScheduleResponseDTO struct {
	AssetID           string              `json:"asset_id"`
	Method            string              `json:"method"`
	Periods           []SchedulePeriodDTO `json:"periods"`
	TotalDepreciation float64             `json:"total_depreciation"`
	FinalBookValue    float64             `json:"final_book_value"`
}

// SummaryDTO aggregates book values over a business-unit scope.
type SummaryDTO struct {
	BusinessUnitID           string  `json:"business_unit_id,omitempty"`
	TotalAssets              int     `json:"total_assets"`
	TotalOriginalValue       float64 `json:"total_original_value"`
	TotalCurrentValue        float64 `json:"total_current_value"`
	TotalDepreciation        float64 `json:"total_depreciation"`
	FullyDepreciatedAssets   int     `json:"fully_depreciated_assets"`
	AssetsDueForDepreciation int     `json:"assets_due_for_depreciation"`
}

// BatchErrorDTO records one asset's failure within a batch run.
type BatchErrorDTO struct {
	AssetID string `json:"asset_id"`
	Error   string `json:"error"`
}

// BatchResultDTO is the response to a batch run.
type BatchResultDTO struct {
	ProcessedAssets   int             `json:"processed_assets"`
	SkippedAssets     int             `json:"skipped_assets"`
	FailedAssets      int             `json:"failed_assets"`
	TotalDepreciation float64         `json:"total_depreciation"`
	Errors            []BatchErrorDTO `json:"errors,omitempty"`
	StartedAt         string          `json:"started_at"`
	CompletedAt       string          `json:"completed_at"`
}

// BatchRunDTO is a persisted batch run record.
type BatchRunDTO struct {
	ID                string  `json:"id"`
	BusinessUnitID    string  `json:"business_unit_id,omitempty"`
	Status            string  `json:"status"`
	Processed         int     `json:"processed"`
	Skipped           int     `json:"skipped"`
	Failed            int     `json:"failed"`
	TotalDepreciation float64 `json:"total_depreciation"`
	Error             string  `json:"error,omitempty"`
	StartedAt         string  `json:"started_at,omitempty"`
	CompletedAt       string  `json:"completed_at,omitempty"`
}

// BusinessUnitDTO represents a business unit.
type BusinessUnitDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateBusinessUnitRequest is the request to create a business unit.
type CreateBusinessUnitRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// AuditDTO represents one audit log record.
type AuditDTO struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	AssetID   string         `json:"asset_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func moneyPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := money(*d)
	return &f
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toAssetDTO(a *assets.Asset) AssetDTO {
	return AssetDTO{
		ID:                      a.ID,
		Name:                    a.Name,
		BusinessUnitID:          a.BusinessUnitID,
		Status:                  string(a.Status),
		PurchaseDate:            a.PurchaseDate.Format("2006-01-02"),
		PurchasePrice:           money(a.PurchasePrice),
		SalvageValue:            money(a.SalvageValue),
		Method:                  string(a.Method),
		UsefulLifeMonths:        a.UsefulLifeMonths,
		AnnualRate:              moneyPtr(a.AnnualRate),
		TotalExpectedUnits:      moneyPtr(a.TotalExpectedUnits),
		CurrentUnits:            money(a.CurrentUnits),
		CurrentBookValue:        money(a.CurrentBookValue),
		AccumulatedDepreciation: money(a.AccumulatedDepreciation),
		DepreciationStart:       timePtr(a.DepreciationStart),
		LastDepreciationAt:      timePtr(a.LastDepreciationAt),
		NextDepreciationAt:      timePtr(a.NextDepreciationAt),
		FullyDepreciated:        a.FullyDepreciated,
		CreatedAt:               a.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTO(e depreciation.Entry) EntryDTO {
	return EntryDTO{
		ID:               e.ID,
		AssetID:          e.AssetID,
		PeriodStart:      e.PeriodStart.Format(time.RFC3339),
		PeriodEnd:        e.PeriodEnd.Format(time.RFC3339),
		BookValueBefore:  money(e.BookValueBefore),
		BookValueAfter:   money(e.BookValueAfter),
		Amount:           money(e.Amount),
		AccumulatedAfter: money(e.AccumulatedAfter),
		Method:           string(e.Method),
		UnitsConsumed:    moneyPtr(e.UnitsConsumed),
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []depreciation.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toCalculationDTO(e *depreciation.Entry, fullyDepreciated bool) *CalculationDTO {
	if e == nil {
		return nil
	}
	return &CalculationDTO{
		AssetID:          e.AssetID,
		PeriodStart:      e.PeriodStart.Format(time.RFC3339),
		PeriodEnd:        e.PeriodEnd.Format(time.RFC3339),
		Method:           string(e.Method),
		Amount:           money(e.Amount),
		BookValueBefore:  money(e.BookValueBefore),
		BookValueAfter:   money(e.BookValueAfter),
		AccumulatedAfter: money(e.AccumulatedAfter),
		UnitsConsumed:    moneyPtr(e.UnitsConsumed),
		FullyDepreciated: fullyDepreciated,
	}
}

func toBatchResultDTO(res *depreciation.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		ProcessedAssets:   res.ProcessedAssets,
		SkippedAssets:     res.SkippedAssets,
		FailedAssets:      len(res.Errors),
		TotalDepreciation: money(res.TotalDepreciation),
		StartedAt:         res.StartedAt.Format(time.RFC3339),
		CompletedAt:       res.CompletedAt.Format(time.RFC3339),
	}
	for _, be := range res.Errors {
		dto.Errors = append(dto.Errors, BatchErrorDTO{AssetID: be.AssetID, Error: be.Err.Error()})
	}
	return dto
}

func toBatchRunDTO(run sqlite.BatchRun) BatchRunDTO {
	dto := BatchRunDTO{
		ID:                run.ID,
		BusinessUnitID:    run.BusinessUnitID,
		Status:            run.Status,
		Processed:         run.Processed,
		Skipped:           run.Skipped,
		Failed:            run.Failed,
		TotalDepreciation: money(run.TotalDepreciation),
		Error:             run.Error,
	}
	if run.StartedAt != nil {
		dto.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}
