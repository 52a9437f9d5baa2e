package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tapline/consumption-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of
// truth. Drink sets are stored as JSONB; aggregated quantities as
// NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateScenario(ctx context.Context, sc *model.Scenario) error {
	drinks, err := json.Marshal(sc.Drinks)
	if err != nil {
		return fmt.Errorf("marshal drink set: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenarios (id, name, capacity, year, drink_types, created_at)
		 VALUES ($1, $2, $3, $4, $5::JSONB, $6)`,
		sc.ID, sc.Name, sc.Capacity, sc.Year, drinks, sc.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	var sc model.Scenario
	var drinks []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, capacity, year, drink_types, created_at
		 FROM scenarios WHERE id = $1`, id).
		Scan(&sc.ID, &sc.Name, &sc.Capacity, &sc.Year, &drinks, &sc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get scenario %s: %w", id, err)
	}

	if err := json.Unmarshal(drinks, &sc.Drinks); err != nil {
		return nil, fmt.Errorf("unmarshal drink set for scenario %s: %w", id, err)
	}
	return &sc, nil
}

func (s *PostgresStore) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, capacity, year, drink_types, created_at
		 FROM scenarios ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []model.Scenario
	for rows.Next() {
		var sc model.Scenario
		var drinks []byte
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Capacity, &sc.Year, &drinks, &sc.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(drinks, &sc.Drinks); err != nil {
			return nil, fmt.Errorf("unmarshal drink set for scenario %s: %w", sc.ID, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

func (s *PostgresStore) InsertRun(ctx context.Context, run *model.ForecastRun) error {
	drinks, err := json.Marshal(run.Drinks)
	if err != nil {
		return fmt.Errorf("marshal drink set: %w", err)
	}
	var scenarioID any
	if run.ScenarioID != "" {
		scenarioID = run.ScenarioID
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO forecast_runs
		   (id, scenario_id, capacity, year, drink_types, days,
		    guests, drinks, light_liters, heavy_liters, total_liters, created_at)
		 VALUES ($1, $2, $3, $4, $5::JSONB, $6,
		         $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11::NUMERIC, $12)`,
		run.ID, scenarioID, run.Capacity, run.Year, drinks, run.Days,
		run.Guests.String(), run.TotalDrinks.String(),
		run.LightLiters.String(), run.HeavyLiters.String(), run.TotalLiters.String(),
		run.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.ForecastRun, error) {
	var run model.ForecastRun
	var scenarioID *string
	var drinks []byte
	var guests, totalDrinks, light, heavy, total string

	err := s.pool.QueryRow(ctx,
		`SELECT id, scenario_id, capacity, year, drink_types, days,
		        guests::TEXT, drinks::TEXT, light_liters::TEXT, heavy_liters::TEXT, total_liters::TEXT,
		        created_at
		 FROM forecast_runs WHERE id = $1`, id).
		Scan(&run.ID, &scenarioID, &run.Capacity, &run.Year, &drinks, &run.Days,
			&guests, &totalDrinks, &light, &heavy, &total,
			&run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get forecast run %s: %w", id, err)
	}

	if scenarioID != nil {
		run.ScenarioID = *scenarioID
	}
	if err := json.Unmarshal(drinks, &run.Drinks); err != nil {
		return nil, fmt.Errorf("unmarshal drink set for run %s: %w", id, err)
	}
	run.Guests, _ = decimal.NewFromString(guests)
	run.TotalDrinks, _ = decimal.NewFromString(totalDrinks)
	run.LightLiters, _ = decimal.NewFromString(light)
	run.HeavyLiters, _ = decimal.NewFromString(heavy)
	run.TotalLiters, _ = decimal.NewFromString(total)

	return &run, nil
}

func (s *PostgresStore) ListRunsByScenario(ctx context.Context, scenarioID string) ([]model.ForecastRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scenario_id, capacity, year, drink_types, days,
		        guests::TEXT, drinks::TEXT, light_liters::TEXT, heavy_liters::TEXT, total_liters::TEXT,
		        created_at
		 FROM forecast_runs WHERE scenario_id = $1 ORDER BY created_at DESC`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.ForecastRun
	for rows.Next() {
		var run model.ForecastRun
		var scID *string
		var drinks []byte
		var guests, totalDrinks, light, heavy, total string
		if err := rows.Scan(&run.ID, &scID, &run.Capacity, &run.Year, &drinks, &run.Days,
			&guests, &totalDrinks, &light, &heavy, &total,
			&run.CreatedAt); err != nil {
			return nil, err
		}
		if scID != nil {
			run.ScenarioID = *scID
		}
		if err := json.Unmarshal(drinks, &run.Drinks); err != nil {
			return nil, fmt.Errorf("unmarshal drink set for run %s: %w", run.ID, err)
		}
		run.Guests, _ = decimal.NewFromString(guests)
		run.TotalDrinks, _ = decimal.NewFromString(totalDrinks)
		run.LightLiters, _ = decimal.NewFromString(light)
		run.HeavyLiters, _ = decimal.NewFromString(heavy)
		run.TotalLiters, _ = decimal.NewFromString(total)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
