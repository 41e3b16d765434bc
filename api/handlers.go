/*
handlers.go - HTTP API handlers for the asset depreciation engine

PURPOSE:
  Exposes the depreciation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Assets:
    GET    /api/assets                          List assets
    POST   /api/assets                          Register asset
    GET    /api/assets/{id}                     Get asset details
    POST   /api/assets/{id}/depreciation        Run one depreciation cycle
    GET    /api/assets/{id}/depreciation/history  Depreciation history
    GET    /api/assets/{id}/depreciation/schedule Projected schedule
    GET    /api/assets/{id}/audit               Audit trail

  Depreciation:
    GET    /api/depreciation/summary            Aggregate figures
    GET    /api/depreciation/due                Assets due for a cycle
    POST   /api/depreciation/batch              Run a batch

  Batch runs:
    GET    /api/batch-runs                      Batch run history

  Business units:
    GET    /api/units                           List business units
    POST   /api/units                           Create business unit

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

ACTOR IDENTIFICATION:
  Mutating endpoints read the acting user from the X-Actor-ID header.
  A missing header is rejected with 401. There is no authentication
  beyond that; an API gateway is expected to populate the header.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (applier, batch runner, projector)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing actor identification
  - 404: Asset or business unit not found
  - 409: Conflict (already fully depreciated, concurrent modification)
  - 422: Incomplete depreciation configuration
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Applier *depreciation.Applier
	Batch   *depreciation.BatchRunner
	Log     zerolog.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Applier: depreciation.NewApplier(store),
		Batch:   depreciation.NewBatchRunner(store, log),
		Log:     log,
	}
}

// actorID extracts the acting user from the request, or "" when absent.
func actorID(r *http.Request) string {
	return r.Header.Get("X-Actor-ID")
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ListAssets returns all assets, optionally scoped to a business unit.
// GET /api/assets?business_unit_id=
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.ListAssets(r.Context(), r.URL.Query().Get("business_unit_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}

	dtos := make([]AssetDTO, len(all))
	for i := range all {
		dtos[i] = toAssetDTO(&all[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAsset returns a single asset.
// GET /api/assets/{id}
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(a))
}

// CreateAsset registers a new asset.
// POST /api/assets
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeDomainError(w, depreciation.ErrUnauthorized)
		return
	}

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
		return
	}

	method, err := assets.ParseMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid depreciation method", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	a := assets.New(id, req.Name, req.BusinessUnitID,
		decimal.NewFromFloat(req.PurchasePrice),
		decimal.NewFromFloat(req.SalvageValue),
		method, req.UsefulLifeMonths, purchaseDate)

	if req.AnnualRate != nil {
		rate := decimal.NewFromFloat(*req.AnnualRate)
		a.AnnualRate = &rate
	}
	if req.TotalExpectedUnits != nil {
		units := decimal.NewFromFloat(*req.TotalExpectedUnits)
		a.TotalExpectedUnits = &units
	}
	if req.DepreciationStart != nil {
		start, err := time.Parse("2006-01-02", *req.DepreciationStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid depreciation_start format (use YYYY-MM-DD)", err)
			return
		}
		a.DepreciationStart = &start
		next := start.AddDate(0, 1, 0)
		a.NextDepreciationAt = &next
	}

	if err := a.ValidateConfig(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid depreciation configuration", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveAsset(ctx, a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create asset", err)
		return
	}

	audit := depreciation.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actor,
		Action:    depreciation.AuditAssetRegistered,
		AssetID:   a.ID,
		Payload: map[string]any{
			"name":           a.Name,
			"method":         string(a.Method),
			"purchase_price": money(a.PurchasePrice),
		},
	}
	if err := h.Store.AppendAudit(ctx, audit); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record audit entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssetDTO(a))
}

// =============================================================================
// DEPRECIATION CYCLE HANDLERS
// =============================================================================

// RunDepreciation runs one manual depreciation cycle for an asset.
// POST /api/assets/{id}/depreciation
func (h *Handler) RunDepreciation(w http.ResponseWriter, r *http.Request) {
	var req RunDepreciationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	in := depreciation.ApplyInput{
		AssetID: chi.URLParam(r, "id"),
		ActorID: actorID(r),
	}
	if req.UnitsInPeriod != nil {
		units := decimal.NewFromFloat(*req.UnitsInPeriod)
		in.UnitsInPeriod = &units
	}

	outcome, err := h.Applier.Apply(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	assetDTO := toAssetDTO(outcome.Asset)
	writeJSON(w, http.StatusOK, CalculationResultDTO{
		Success:     outcome.Applied,
		Message:     outcome.Message,
		Calculation: toCalculationDTO(outcome.Entry, outcome.Asset.FullyDepreciated),
		Asset:       &assetDTO,
	})
}

// GetHistory returns an asset's depreciation entries, oldest first.
// GET /api/assets/{id}/depreciation/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	// 404 for unknown assets rather than an empty list
	if _, err := h.Store.GetAsset(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Store.EntriesByAsset(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetSchedule returns the projected depreciation schedule for an asset.
// GET /api/assets/{id}/depreciation/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	periods := depreciation.Project(a, time.Now().UTC())
	resp := ScheduleResponseDTO{
		AssetID: a.ID,
		Method:  string(a.Method),
		Periods: make([]SchedulePeriodDTO, len(periods)),
	}
	for i, p := range periods {
		resp.Periods[i] = SchedulePeriodDTO{
			Period:          p.Period,
			Start:           p.Start.Format("2006-01-02"),
			End:             p.End.Format("2006-01-02"),
			BookValueBefore: money(p.BookValueBefore),
			Amount:          money(p.Amount),
			BookValueAfter:  money(p.BookValueAfter),
			Cumulative:      money(p.Cumulative),
		}
	}
	if n := len(periods); n > 0 {
		resp.TotalDepreciation = money(periods[n-1].Cumulative)
		resp.FinalBookValue = money(periods[n-1].BookValueAfter)
	} else {
		resp.FinalBookValue = money(a.CurrentBookValue)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetAudit returns an asset's audit trail, oldest first.
// GET /api/assets/{id}/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.Store.GetAsset(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Store.AuditByAsset(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get audit trail", err)
		return
	}

	dtos := make([]AuditDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditDTO{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			AssetID:   e.AssetID,
			Payload:   e.Payload,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SUMMARY / DUE / BATCH HANDLERS
// =============================================================================

// GetSummary returns aggregate depreciation figures.
// GET /api/depreciation/summary?business_unit_id=
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID := r.URL.Query().Get("business_unit_id")

	if unitID != "" {
		bu, err := h.Store.GetBusinessUnit(ctx, unitID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get business unit", err)
			return
		}
		if bu == nil {
			writeDomainError(w, depreciation.ErrBusinessUnitNotFound)
			return
		}
	}

	sum, err := h.Store.Summary(ctx, unitID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryDTO{
		BusinessUnitID:           unitID,
		TotalAssets:              sum.TotalAssets,
		TotalOriginalValue:       money(sum.TotalOriginalValue),
		TotalCurrentValue:        money(sum.TotalCurrentValue),
		TotalDepreciation:        money(sum.TotalDepreciation),
		FullyDepreciatedAssets:   sum.FullyDepreciatedAssets,
		AssetsDueForDepreciation: sum.AssetsDueForDepreciation,
	})
}

// ListDueAssets returns assets eligible for a depreciation cycle right now.
// GET /api/depreciation/due?business_unit_id=
func (h *Handler) ListDueAssets(w http.ResponseWriter, r *http.Request) {
	due, err := h.Store.AssetsDueForDepreciation(r.Context(),
		r.URL.Query().Get("business_unit_id"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list due assets", err)
		return
	}

	dtos := make([]AssetDTO, len(due))
	for i := range due {
		dtos[i] = toAssetDTO(&due[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunBatch runs a depreciation batch over a business-unit scope and
// persists a batch run record.
// POST /api/depreciation/batch?business_unit_id=
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unitID := r.URL.Query().Get("business_unit_id")

	if unitID != "" {
		bu, err := h.Store.GetBusinessUnit(ctx, unitID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get business unit", err)
			return
		}
		if bu == nil {
			writeDomainError(w, depreciation.ErrBusinessUnitNotFound)
			return
		}
	}

	result, err := h.Batch.Run(ctx, unitID, actorID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	run := sqlite.BatchRun{
		ID:                uuid.NewString(),
		BusinessUnitID:    unitID,
		Status:            "completed",
		Processed:         result.ProcessedAssets,
		Skipped:           result.SkippedAssets,
		Failed:            len(result.Errors),
		TotalDepreciation: result.TotalDepreciation,
		StartedAt:         &result.StartedAt,
		CompletedAt:       &result.CompletedAt,
		CreatedAt:         result.StartedAt,
	}
	if len(result.Errors) > 0 {
		run.Status = "completed_with_errors"
		run.Error = result.Errors[0].Error()
	}
	if err := h.Store.SaveBatchRun(ctx, run); err != nil {
		h.Log.Warn().Err(err).Msg("failed to persist batch run record")
	}

	writeJSON(w, http.StatusOK, toBatchResultDTO(result))
}

// ListBatchRuns returns recent batch runs, newest first.
// GET /api/batch-runs?limit=
func (h *Handler) ListBatchRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.Store.ListBatchRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batch runs", err)
		return
	}

	dtos := make([]BatchRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toBatchRunDTO(run)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// BUSINESS UNIT HANDLERS
// =============================================================================

// ListBusinessUnits returns all business units.
// GET /api/units
func (h *Handler) ListBusinessUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListBusinessUnits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list business units", err)
		return
	}

	dtos := make([]BusinessUnitDTO, len(units))
	for i, bu := range units {
		dtos[i] = BusinessUnitDTO{
			ID:        bu.ID,
			Name:      bu.Name,
			CreatedAt: bu.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBusinessUnit creates a business unit.
// POST /api/units
func (h *Handler) CreateBusinessUnit(w http.ResponseWriter, r *http.Request) {
	if actorID(r) == "" {
		writeDomainError(w, depreciation.ErrUnauthorized)
		return
	}

	var req CreateBusinessUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	bu := sqlite.BusinessUnit{ID: req.ID, Name: req.Name}
	if bu.ID == "" {
		bu.ID = uuid.NewString()
	}

	if err := h.Store.SaveBusinessUnit(r.Context(), bu); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create business unit", err)
		return
	}

	writeJSON(w, http.StatusCreated, BusinessUnitDTO{ID: bu.ID, Name: bu.Name})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, depreciation.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Actor identification required (X-Actor-ID)", err)
	case depreciation.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, depreciation.ErrMissingConfiguration):
		writeError(w, http.StatusUnprocessableEntity, "Depreciation configuration incomplete", err)
	case errors.Is(err, depreciation.ErrAlreadyFullyDepreciated):
		writeError(w, http.StatusConflict, "Asset is already fully depreciated", err)
	case errors.Is(err, depreciation.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "Asset was modified concurrently, retry", err)
	case errors.Is(err, assets.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, "Invalid depreciation configuration", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
