package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tapline/consumption-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis
// read-through cache. Scenarios and runs are immutable once written, so
// cached entries never go stale; list queries always hit the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func scenarioKey(id string) string { return "scenario:" + id }
func runKey(id string) string      { return "run:" + id }

// --- Writes (write to primary, populate cache) ---

func (s *CachedStore) CreateScenario(ctx context.Context, sc *model.Scenario) error {
	if err := s.primary.CreateScenario(ctx, sc); err != nil {
		return err
	}
	s.cacheSet(ctx, scenarioKey(sc.ID), sc)
	return nil
}

func (s *CachedStore) InsertRun(ctx context.Context, run *model.ForecastRun) error {
	if err := s.primary.InsertRun(ctx, run); err != nil {
		return err
	}
	s.cacheSet(ctx, runKey(run.ID), run)
	return nil
}

// --- Reads (check cache first) ---

func (s *CachedStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	data, err := s.rdb.Get(ctx, scenarioKey(id)).Bytes()
	if err == nil {
		var sc model.Scenario
		if json.Unmarshal(data, &sc) == nil {
			return &sc, nil
		}
	}

	// Cache miss: read from primary.
	sc, err := s.primary.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, scenarioKey(id), sc)
	return sc, nil
}

func (s *CachedStore) GetRun(ctx context.Context, id string) (*model.ForecastRun, error) {
	data, err := s.rdb.Get(ctx, runKey(id)).Bytes()
	if err == nil {
		var run model.ForecastRun
		if json.Unmarshal(data, &run) == nil {
			return &run, nil
		}
	}

	run, err := s.primary.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, runKey(id), run)
	return run, nil
}

// ListScenarios always reads from the primary: the scenario set grows
// over time and a cached list would serve creations late.
func (s *CachedStore) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	return s.primary.ListScenarios(ctx)
}

// ListRunsByScenario always reads from the primary, same reasoning.
func (s *CachedStore) ListRunsByScenario(ctx context.Context, scenarioID string) ([]model.ForecastRun, error) {
	return s.primary.ListRunsByScenario(ctx, scenarioID)
}

// cacheSet stores a value best-effort; cache failures never fail reads
// or writes against the primary.
func (s *CachedStore) cacheSet(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}
