/*
scenarios_test.go - Tests for demo scenario loading

PURPOSE:
	Tests that each scenario sets up the expected state:
	- Business units are created
	- Assets are registered with valid depreciation configs
	- Registration audit records exist
	- Loading a scenario replaces the previous one
*/
package api

import (
	"net/http"
	"testing"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	body := map[string]string{"scenario_id": id}
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", "", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to load scenario %s: %d %s", id, rec.Code, rec.Body.String())
	}
}

func listAssets(t *testing.T, router http.Handler) []AssetDTO {
	t.Helper()
	var assets []AssetDTO
	rec := doJSON(t, router, http.MethodGet, "/api/assets", "", nil, &assets)
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to list assets: %d", rec.Code)
	}
	return assets
}

func TestLoadScenario_DeliveryFleet(t *testing.T) {
	// GIVEN/WHEN: The delivery fleet scenario is loaded
	_, router := newTestHandler(t)
	loadScenario(t, router, "delivery-fleet")

	// THEN: Three straight-line vans exist, all due for a cycle
	assets := listAssets(t, router)
	if len(assets) != 3 {
		t.Fatalf("Expected 3 assets, got %d", len(assets))
	}
	for _, a := range assets {
		if a.Method != "straight_line" {
			t.Errorf("Expected straight_line for %s, got %s", a.ID, a.Method)
		}
		if a.BusinessUnitID != "bu-logistics" {
			t.Errorf("Expected bu-logistics for %s, got %s", a.ID, a.BusinessUnitID)
		}
	}

	var due []AssetDTO
	rec := doJSON(t, router, http.MethodGet, "/api/depreciation/due", "", nil, &due)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from due, got %d", rec.Code)
	}
	if len(due) != 3 {
		t.Errorf("Expected all 3 vans due (purchased 4 months back), got %d", len(due))
	}

	// AND: The scenario is reported as current
	var current ScenarioDTO
	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", "", nil, &current)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from current, got %d", rec.Code)
	}
	if current.ID != "delivery-fleet" {
		t.Errorf("Expected current scenario delivery-fleet, got %s", current.ID)
	}
}

func TestLoadScenario_FactoryMachinery(t *testing.T) {
	_, router := newTestHandler(t)
	loadScenario(t, router, "factory-machinery")

	assets := listAssets(t, router)
	if len(assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(assets))
	}

	byID := make(map[string]AssetDTO, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	mill, ok := byID["cnc-001"]
	if !ok {
		t.Fatal("Expected cnc-001 in scenario")
	}
	if mill.Method != "declining_balance" {
		t.Errorf("Expected declining_balance, got %s", mill.Method)
	}
	if mill.AnnualRate == nil || *mill.AnnualRate != 0.20 {
		t.Errorf("Expected annual rate 0.20, got %v", mill.AnnualRate)
	}

	lathe, ok := byID["lathe-001"]
	if !ok {
		t.Fatal("Expected lathe-001 in scenario")
	}
	if lathe.Method != "sum_of_years_digits" {
		t.Errorf("Expected sum_of_years_digits, got %s", lathe.Method)
	}
}

func TestLoadScenario_PrintingPress_SkippedByBatch(t *testing.T) {
	// GIVEN: The printing press scenario (one units-of-production asset)
	_, router := newTestHandler(t)
	loadScenario(t, router, "printing-press")

	// WHEN: A full batch runs
	var result BatchResultDTO
	rec := doJSON(t, router, http.MethodPost, "/api/depreciation/batch", testActor, nil, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// THEN: The press is skipped, not processed (units must come from a
	// manual cycle)
	if result.ProcessedAssets != 0 {
		t.Errorf("Expected 0 processed, got %d", result.ProcessedAssets)
	}
	if result.SkippedAssets != 1 {
		t.Errorf("Expected 1 skipped, got %d", result.SkippedAssets)
	}
}

func TestLoadScenario_MixedPortfolio(t *testing.T) {
	_, router := newTestHandler(t)
	loadScenario(t, router, "mixed-portfolio")

	assets := listAssets(t, router)
	if len(assets) != 4 {
		t.Fatalf("Expected 4 assets, got %d", len(assets))
	}

	methods := make(map[string]bool)
	for _, a := range assets {
		methods[a.Method] = true
	}
	for _, m := range []string{"straight_line", "declining_balance", "sum_of_years_digits", "units_of_production"} {
		if !methods[m] {
			t.Errorf("Expected method %s in the portfolio", m)
		}
	}

	var units []BusinessUnitDTO
	rec := doJSON(t, router, http.MethodGet, "/api/units", "", nil, &units)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from units, got %d", rec.Code)
	}
	if len(units) != 2 {
		t.Errorf("Expected 2 business units, got %d", len(units))
	}
}

func TestLoadScenario_RegistrationAuditWritten(t *testing.T) {
	_, router := newTestHandler(t)
	loadScenario(t, router, "delivery-fleet")

	var audit []AuditDTO
	rec := doJSON(t, router, http.MethodGet, "/api/assets/van-001/audit", "", nil, &audit)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(audit) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(audit))
	}
	if audit[0].Action != "asset_registered" {
		t.Errorf("Expected asset_registered, got %s", audit[0].Action)
	}
	if audit[0].ActorID != scenarioActor {
		t.Errorf("Expected actor %s, got %s", scenarioActor, audit[0].ActorID)
	}
}

func TestLoadScenario_ReplacesPrevious(t *testing.T) {
	// GIVEN: A loaded fleet scenario
	_, router := newTestHandler(t)
	loadScenario(t, router, "delivery-fleet")

	// WHEN: A different scenario loads
	loadScenario(t, router, "printing-press")

	// THEN: Only the new scenario's assets remain
	assets := listAssets(t, router)
	if len(assets) != 1 {
		t.Fatalf("Expected 1 asset after reload, got %d", len(assets))
	}
	if assets[0].ID != "press-001" {
		t.Errorf("Expected press-001, got %s", assets[0].ID)
	}
}

func TestLoadScenario_Unknown_Rejected(t *testing.T) {
	_, router := newTestHandler(t)

	body := map[string]string{"scenario_id": "does-not-exist"}
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", "", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestResetDatabase_ClearsEverything(t *testing.T) {
	// GIVEN: A loaded scenario
	_, router := newTestHandler(t)
	loadScenario(t, router, "mixed-portfolio")

	// WHEN: The database resets
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/reset", "", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from reset, got %d", rec.Code)
	}

	// THEN: No assets remain and no scenario is current
	assets := listAssets(t, router)
	if len(assets) != 0 {
		t.Errorf("Expected 0 assets after reset, got %d", len(assets))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", "", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from current, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "null\n" && body != "null" {
		t.Errorf("Expected null current scenario, got %s", body)
	}
}

func TestListScenarios(t *testing.T) {
	_, router := newTestHandler(t)

	var list []ScenarioDTO
	rec := doJSON(t, router, http.MethodGet, "/api/scenarios", "", nil, &list)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(list) != 4 {
		t.Fatalf("Expected 4 scenarios, got %d", len(list))
	}
}
