// Package store defines the persistence interface for the consumption
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing and development).
package store

import (
	"context"

	"github.com/tapline/consumption-engine/internal/model"
)

// Store is the persistence interface. Scenarios are named drink/venue
// configurations; forecast runs are immutable summaries of completed
// simulations. Neither entity is ever updated in place, which keeps the
// cache layer trivially consistent.
type Store interface {
	// --- Scenario operations ---

	// CreateScenario persists a new scenario. Names are unique.
	CreateScenario(ctx context.Context, sc *model.Scenario) error

	// GetScenario retrieves a scenario by its ID.
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)

	// ListScenarios returns all scenarios, newest first.
	ListScenarios(ctx context.Context) ([]model.Scenario, error)

	// --- Forecast run operations ---

	// InsertRun appends an immutable forecast run record.
	InsertRun(ctx context.Context, run *model.ForecastRun) error

	// GetRun retrieves a forecast run by its ID.
	GetRun(ctx context.Context, id string) (*model.ForecastRun, error)

	// ListRunsByScenario returns all runs for a scenario, newest first.
	ListRunsByScenario(ctx context.Context, scenarioID string) ([]model.ForecastRun, error)
}
