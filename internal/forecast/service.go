// Package forecast provides the HTTP handlers for managing scenarios,
// running consumption forecasts, and querying their daily, monthly, and
// window-level results.
package forecast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tapline/consumption-engine/internal/engine"
	"github.com/tapline/consumption-engine/internal/metrics"
	"github.com/tapline/consumption-engine/internal/model"
	"github.com/tapline/consumption-engine/internal/store"
)

// Service handles scenario and forecast operations. The simulator is
// stateless, so concurrent requests need no serialization beyond what
// the store provides.
type Service struct {
	store store.Store
	sim   *engine.Simulator
	hub   *Hub // optional WebSocket hub for completion broadcasts
}

// NewService creates a new forecast service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, sim *engine.Simulator, hub *Hub) *Service {
	return &Service{
		store: st,
		sim:   sim,
		hub:   hub,
	}
}

// --- Request/Response types ---

// CreateScenarioRequest is the JSON body for scenario creation.
type CreateScenarioRequest struct {
	Name       string         `json:"name"`
	Capacity   int            `json:"capacity"`
	Year       int            `json:"year"`
	DrinkTypes model.DrinkSet `json:"drink_types"`
}

// RunForecastRequest is the JSON body for POST /forecasts. Either
// ScenarioID references a stored scenario, or the remaining fields
// supply an inline configuration.
type RunForecastRequest struct {
	ScenarioID string         `json:"scenario_id,omitempty"`
	Capacity   int            `json:"capacity,omitempty"`
	Year       int            `json:"year,omitempty"`
	DrinkTypes model.DrinkSet `json:"drink_types,omitempty"`
}

// RunForecastResponse is the JSON body returned from POST /forecasts.
type RunForecastResponse struct {
	Run     model.ForecastRun    `json:"run"`
	Monthly []model.PeriodTotals `json:"monthly"`
}

// --- HTTP Handlers ---

// CreateScenario handles POST /api/v1/scenarios
func (s *Service) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	cfg := model.SimulationConfig{Capacity: req.Capacity, Year: req.Year, Drinks: req.DrinkTypes}
	if err := cfg.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	scenario := &model.Scenario{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Capacity:  req.Capacity,
		Year:      req.Year,
		Drinks:    req.DrinkTypes,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateScenario(r.Context(), scenario); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	metrics.ScenariosCreated.Inc()

	slog.Info("scenario created",
		"id", scenario.ID,
		"name", scenario.Name,
		"capacity", scenario.Capacity,
		"year", scenario.Year,
		"drinks", len(scenario.Drinks),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(scenario)
}

// GetScenario handles GET /api/v1/scenarios/{scenarioID}
func (s *Service) GetScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenarioID")

	scenario, err := s.store.GetScenario(r.Context(), scenarioID)
	if err != nil {
		writeError(w, "scenario not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scenario)
}

// ListScenarios handles GET /api/v1/scenarios
func (s *Service) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.store.ListScenarios(r.Context())
	if err != nil {
		writeError(w, "failed to list scenarios", http.StatusInternalServerError)
		return
	}
	if scenarios == nil {
		scenarios = []model.Scenario{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scenarios)
}

// ListScenarioRuns handles GET /api/v1/scenarios/{scenarioID}/forecasts
func (s *Service) ListScenarioRuns(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenarioID")

	runs, err := s.store.ListRunsByScenario(r.Context(), scenarioID)
	if err != nil {
		writeError(w, "failed to list forecast runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []model.ForecastRun{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// RunForecast handles POST /api/v1/forecasts
// Runs the simulation synchronously and persists an immutable summary.
func (s *Service) RunForecast(w http.ResponseWriter, r *http.Request) {
	var req RunForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cfg := model.SimulationConfig{Capacity: req.Capacity, Year: req.Year, Drinks: req.DrinkTypes}

	if req.ScenarioID != "" {
		scenario, err := s.store.GetScenario(ctx, req.ScenarioID)
		if err != nil {
			writeError(w, "scenario not found: "+req.ScenarioID, http.StatusNotFound)
			return
		}
		cfg = scenario.Config()
	}

	start := time.Now()
	records, err := s.sim.Run(cfg)
	if err != nil {
		// Run only fails on invalid input; nothing partial to clean up.
		metrics.ForecastRunsTotal.WithLabelValues("invalid_input").Inc()
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	elapsed := time.Since(start)

	totals := engine.WindowTotals(records)
	run := &model.ForecastRun{
		ID:          uuid.New().String(),
		ScenarioID:  req.ScenarioID,
		Capacity:    cfg.Capacity,
		Year:        cfg.Year,
		Drinks:      cfg.Drinks,
		Days:        len(records),
		Guests:      totals.Guests,
		TotalDrinks: totals.Drinks,
		LightLiters: totals.LightLiters,
		HeavyLiters: totals.HeavyLiters,
		TotalLiters: totals.TotalLiters,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.InsertRun(ctx, run); err != nil {
		writeError(w, "failed to record forecast run", http.StatusInternalServerError)
		return
	}

	metrics.ForecastRunsTotal.WithLabelValues("ok").Inc()
	metrics.ForecastDuration.Observe(elapsed.Seconds())
	metrics.SimulatedDaysTotal.Add(float64(run.Days))

	slog.Info("forecast completed",
		"run_id", run.ID,
		"scenario_id", run.ScenarioID,
		"year", run.Year,
		"days", run.Days,
		"guests", run.Guests.String(),
		"total_liters", run.TotalLiters.String(),
		"elapsed", elapsed,
	)

	if s.hub != nil {
		s.hub.Broadcast(RunEvent{
			Type:        "forecast_completed",
			RunID:       run.ID,
			ScenarioID:  run.ScenarioID,
			Year:        run.Year,
			Days:        run.Days,
			Guests:      run.Guests.String(),
			TotalLiters: run.TotalLiters.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RunForecastResponse{
		Run:     *run,
		Monthly: engine.MonthlyTotals(records),
	})
}

// GetRun handles GET /api/v1/forecasts/{runID}
func (s *Service) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, "forecast run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetRunDaily handles GET /api/v1/forecasts/{runID}/daily
// The daily series is recomputed from the run's config snapshot; the
// engine is deterministic, so the result matches the original run.
func (s *Service) GetRunDaily(w http.ResponseWriter, r *http.Request) {
	records, ok := s.replayRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetRunMonthly handles GET /api/v1/forecasts/{runID}/monthly
func (s *Service) GetRunMonthly(w http.ResponseWriter, r *http.Request) {
	records, ok := s.replayRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.MonthlyTotals(records))
}

// replayRun loads a run and re-simulates its config snapshot. Writes
// the error response itself and returns ok=false on failure.
func (s *Service) replayRun(w http.ResponseWriter, r *http.Request) ([]model.DailyRecord, bool) {
	runID := chi.URLParam(r, "runID")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, "forecast run not found", http.StatusNotFound)
		return nil, false
	}

	records, err := s.sim.Run(run.Config())
	if err != nil {
		// The snapshot was validated when the run was created; failing
		// here means the stored data is corrupt.
		slog.Error("stored run config no longer simulates", "run_id", runID, "err", err)
		writeError(w, "stored forecast run is invalid", http.StatusInternalServerError)
		return nil, false
	}
	return records, true
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
