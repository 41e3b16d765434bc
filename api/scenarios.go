/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates business units and
	assets that demonstrate a specific depreciation method or engine
	behavior.

AVAILABLE SCENARIOS:

	delivery-fleet:    Straight-line vans, several months overdue
	factory-machinery: Declining-balance and sum-of-years-digits machines
	printing-press:    Units-of-production press (manual cycles only)
	mixed-portfolio:   All methods across two business units

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create business units
 3. Register assets with method-specific configuration
 4. Backdate purchase dates so batches have work to do

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "delivery-fleet"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: CreateAsset handler (same registration path)
  - server.go: Scenario routes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-engine/assets"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "delivery-fleet",
		Name:        "Delivery Fleet",
		Description: "Straight-line vans, several months overdue for a batch run",
		Category:    "straight_line",
	},
	{
		ID:          "factory-machinery",
		Name:        "Factory Machinery",
		Description: "Declining-balance CNC mill and sum-of-years-digits lathe",
		Category:    "accelerated",
	},
	{
		ID:          "printing-press",
		Name:        "Printing Press",
		Description: "Units-of-production press, advanced only by manual cycles",
		Category:    "units_of_production",
	},
	{
		ID:          "mixed-portfolio",
		Name:        "Mixed Portfolio",
		Description: "All four methods across two business units",
		Category:    "mixed",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "delivery-fleet":
		err = h.loadDeliveryFleetScenario(ctx)
	case "factory-machinery":
		err = h.loadFactoryMachineryScenario(ctx)
	case "printing-press":
		err = h.loadPrintingPressScenario(ctx)
	case "mixed-portfolio":
		err = h.loadMixedPortfolioScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

const scenarioActor = "system:scenario-loader"

// registerAsset saves the asset and writes the registration audit record,
// mirroring the CreateAsset handler.
func (h *Handler) registerAsset(ctx context.Context, a *assets.Asset) error {
	if err := a.ValidateConfig(); err != nil {
		return err
	}
	if err := h.Store.SaveAsset(ctx, a); err != nil {
		return err
	}
	return h.Store.AppendAudit(ctx, depreciation.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   scenarioActor,
		Action:    depreciation.AuditAssetRegistered,
		AssetID:   a.ID,
		Payload: map[string]any{
			"name":           a.Name,
			"method":         string(a.Method),
			"purchase_price": money(a.PurchasePrice),
		},
	})
}

func (h *Handler) loadDeliveryFleetScenario(ctx context.Context) error {
	if err := h.Store.SaveBusinessUnit(ctx, sqlite.BusinessUnit{ID: "bu-logistics", Name: "Logistics"}); err != nil {
		return err
	}

	// Three vans bought 4 months ago: a batch run produces entries right away.
	purchased := time.Now().UTC().AddDate(0, -4, 0)
	vans := []struct {
		id    string
		name  string
		price int64
	}{
		{"van-001", "Delivery Van 1", 42000},
		{"van-002", "Delivery Van 2", 42000},
		{"van-003", "Delivery Van 3 (long wheelbase)", 51000},
	}

	for _, v := range vans {
		a := assets.New(v.id, v.name, "bu-logistics",
			decimal.NewFromInt(v.price), decimal.NewFromInt(2000),
			assets.MethodStraightLine, 60, purchased)
		if err := h.registerAsset(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFactoryMachineryScenario(ctx context.Context) error {
	if err := h.Store.SaveBusinessUnit(ctx, sqlite.BusinessUnit{ID: "bu-plant", Name: "Plant Floor"}); err != nil {
		return err
	}

	purchased := time.Now().UTC().AddDate(0, -2, 0)

	// Declining balance at 20% per year
	mill := assets.New("cnc-001", "CNC Mill", "bu-plant",
		decimal.NewFromInt(180000), decimal.NewFromInt(15000),
		assets.MethodDecliningBalance, 120, purchased)
	rate := decimal.NewFromFloat(0.20)
	mill.AnnualRate = &rate
	if err := h.registerAsset(ctx, mill); err != nil {
		return err
	}

	// Sum of years digits over 5 years
	lathe := assets.New("lathe-001", "Precision Lathe", "bu-plant",
		decimal.NewFromInt(96000), decimal.NewFromInt(6000),
		assets.MethodSumOfYearsDigits, 60, purchased)
	return h.registerAsset(ctx, lathe)
}

func (h *Handler) loadPrintingPressScenario(ctx context.Context) error {
	if err := h.Store.SaveBusinessUnit(ctx, sqlite.BusinessUnit{ID: "bu-print", Name: "Print Shop"}); err != nil {
		return err
	}

	purchased := time.Now().UTC().AddDate(0, -1, 0)

	// 2M impressions over the press's life. Batches skip this asset;
	// cycles run via POST /api/assets/press-001/depreciation with
	// units_in_period in the body.
	press := assets.New("press-001", "Offset Printing Press", "bu-print",
		decimal.NewFromInt(350000), decimal.NewFromInt(30000),
		assets.MethodUnitsOfProduction, 96, purchased)
	units := decimal.NewFromInt(2000000)
	press.TotalExpectedUnits = &units
	return h.registerAsset(ctx, press)
}

func (h *Handler) loadMixedPortfolioScenario(ctx context.Context) error {
	for _, bu := range []sqlite.BusinessUnit{
		{ID: "bu-logistics", Name: "Logistics"},
		{ID: "bu-plant", Name: "Plant Floor"},
	} {
		if err := h.Store.SaveBusinessUnit(ctx, bu); err != nil {
			return err
		}
	}

	now := time.Now().UTC()

	van := assets.New("van-100", "Box Truck", "bu-logistics",
		decimal.NewFromInt(120000), decimal.Zero,
		assets.MethodStraightLine, 60, now.AddDate(0, -3, 0))
	if err := h.registerAsset(ctx, van); err != nil {
		return err
	}

	forklift := assets.New("fork-100", "Forklift", "bu-logistics",
		decimal.NewFromInt(38000), decimal.NewFromInt(3000),
		assets.MethodDecliningBalance, 84, now.AddDate(0, -2, 0))
	rate := decimal.NewFromFloat(0.25)
	forklift.AnnualRate = &rate
	if err := h.registerAsset(ctx, forklift); err != nil {
		return err
	}

	stamper := assets.New("stamp-100", "Stamping Machine", "bu-plant",
		decimal.NewFromInt(64000), decimal.NewFromInt(4000),
		assets.MethodSumOfYearsDigits, 48, now.AddDate(0, -2, 0))
	if err := h.registerAsset(ctx, stamper); err != nil {
		return err
	}

	extruder := assets.New("extr-100", "Plastic Extruder", "bu-plant",
		decimal.NewFromInt(150000), decimal.NewFromInt(10000),
		assets.MethodUnitsOfProduction, 120, now.AddDate(0, -1, 0))
	units := decimal.NewFromInt(500000)
	extruder.TotalExpectedUnits = &units
	return h.registerAsset(ctx, extruder)
}
