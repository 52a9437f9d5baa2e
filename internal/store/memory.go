package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tapline/consumption-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]*model.Scenario
	runs      []model.ForecastRun
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]*model.Scenario),
	}
}

func (s *MemoryStore) CreateScenario(_ context.Context, sc *model.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.scenarios {
		if existing.Name == sc.Name {
			return fmt.Errorf("scenario %q already exists", sc.Name)
		}
	}

	// Store a copy to avoid external mutation.
	copy := *sc
	s.scenarios[sc.ID] = &copy
	return nil
}

func (s *MemoryStore) GetScenario(_ context.Context, id string) (*model.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("scenario %s not found", id)
	}
	copy := *sc
	return &copy, nil
}

func (s *MemoryStore) ListScenarios(_ context.Context) ([]model.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scenarios := make([]model.Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		scenarios = append(scenarios, *sc)
	}
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].CreatedAt.After(scenarios[j].CreatedAt)
	})
	return scenarios, nil
}

func (s *MemoryStore) InsertRun(_ context.Context, run *model.ForecastRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, *run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*model.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.runs {
		if s.runs[i].ID == id {
			copy := s.runs[i]
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("forecast run %s not found", id)
}

func (s *MemoryStore) ListRunsByScenario(_ context.Context, scenarioID string) ([]model.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.ForecastRun
	for _, r := range s.runs {
		if r.ScenarioID == scenarioID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
