// Package model defines the core domain types shared across the
// consumption engine: drink configuration, simulation output records,
// and the persisted scenario/run entities.
//
// Externally visible quantities use shopspring/decimal; the simulation
// itself runs on float64 and converts at record assembly.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the coarse drink classification used to bucket consumed
// liters. Every drink type carries exactly one of the two values.
type Category string

const (
	CategoryLight Category = "light"
	CategoryHeavy Category = "heavy"
)

// Configuration errors: the drink set itself is unusable.
var (
	// ErrEmptyDrinkSet is returned when the drink set has no entries.
	ErrEmptyDrinkSet = errors.New("model: drink set must contain at least one drink type")

	// ErrNegativeShare is returned when a drink's guest share is negative.
	ErrNegativeShare = errors.New("model: share must not be negative")

	// ErrShareAboveOne is returned when a drink's guest share exceeds 1.
	ErrShareAboveOne = errors.New("model: share must not exceed 1")

	// ErrZeroShareSum is returned when all shares sum to zero, which
	// leaves normalization undefined.
	ErrZeroShareSum = errors.New("model: drink shares must sum to a positive value")

	// ErrUnknownCategory is returned for a category outside {light, heavy}.
	ErrUnknownCategory = errors.New("model: category must be light or heavy")
)

// Input range errors: a numeric field is outside its valid range.
var (
	// ErrNegativeCapacity is returned when capacity is below zero.
	// Zero capacity is valid and yields an all-zero forecast.
	ErrNegativeCapacity = errors.New("model: capacity must not be negative")

	// ErrNegativeAvgDrinks is returned when avg_drinks is negative.
	ErrNegativeAvgDrinks = errors.New("model: avg_drinks must not be negative")

	// ErrNegativeVolume is returned when serving volume is negative.
	ErrNegativeVolume = errors.New("model: volume must not be negative")
)

// DrinkType describes one drink in the venue's mix. Share is the
// proportion of daily guests choosing this drink; AvgDrinks is servings
// per choosing guest over a full day; Volume is liters per serving.
type DrinkType struct {
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	AvgDrinks float64  `json:"avg_drinks"`
	Volume    float64  `json:"volume"`
	Share     float64  `json:"share"`
}

// DrinkSet maps drink name to its parameters. Keys take precedence over
// the embedded Name field; Normalized rewrites Name from the key.
type DrinkSet map[string]DrinkType

// Validate checks every drink type and the set as a whole. Returns the
// first violation found, wrapping one of the sentinel errors above and
// naming the offending drink.
func (ds DrinkSet) Validate() error {
	if len(ds) == 0 {
		return ErrEmptyDrinkSet
	}

	shareSum := 0.0
	for name, dt := range ds {
		if dt.Category != CategoryLight && dt.Category != CategoryHeavy {
			return fmt.Errorf("%w: drink %q has category %q", ErrUnknownCategory, name, dt.Category)
		}
		if dt.Share < 0 {
			return fmt.Errorf("%w: drink %q has share %v", ErrNegativeShare, name, dt.Share)
		}
		if dt.Share > 1 {
			return fmt.Errorf("%w: drink %q has share %v", ErrShareAboveOne, name, dt.Share)
		}
		if dt.AvgDrinks < 0 {
			return fmt.Errorf("%w: drink %q has avg_drinks %v", ErrNegativeAvgDrinks, name, dt.AvgDrinks)
		}
		if dt.Volume < 0 {
			return fmt.Errorf("%w: drink %q has volume %v", ErrNegativeVolume, name, dt.Volume)
		}
		shareSum += dt.Share
	}

	if shareSum == 0 {
		return ErrZeroShareSum
	}
	return nil
}

// Normalized validates the set and returns its drink types as a slice
// sorted by name, with shares scaled to sum to exactly 1. The sorted
// order fixes float accumulation order, which keeps simulation output
// byte-identical across repeated runs over the same set.
func (ds DrinkSet) Normalized() ([]DrinkType, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ds))
	shareSum := 0.0
	for name, dt := range ds {
		names = append(names, name)
		shareSum += dt.Share
	}
	sort.Strings(names)

	drinks := make([]DrinkType, 0, len(ds))
	for _, name := range names {
		dt := ds[name]
		dt.Name = name
		dt.Share = dt.Share / shareSum
		drinks = append(drinks, dt)
	}
	return drinks, nil
}

// SimulationConfig is one run's input: venue capacity, the ending
// calendar year of the 12-month window, and the drink mix.
type SimulationConfig struct {
	Capacity int      `json:"capacity"`
	Year     int      `json:"year"`
	Drinks   DrinkSet `json:"drink_types"`
}

// Validate checks capacity and the drink set. Fail fast: no simulation
// work happens on an invalid config.
func (c SimulationConfig) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeCapacity, c.Capacity)
	}
	return c.Drinks.Validate()
}

// DailyRecord is one output row of the simulation, covering a single
// calendar date. Immutable once produced. TotalLiters is always the
// exact decimal sum of the light and heavy buckets.
type DailyRecord struct {
	Date        time.Time       `json:"date"`
	Guests      decimal.Decimal `json:"guests"`
	Drinks      decimal.Decimal `json:"drinks"`
	LightLiters decimal.Decimal `json:"light_liters"`
	HeavyLiters decimal.Decimal `json:"heavy_liters"`
	TotalLiters decimal.Decimal `json:"total_liters"`
}

// PeriodTotals aggregates records over a calendar month or over the
// full simulation window. For window totals, Year and Month are zero.
type PeriodTotals struct {
	Year        int             `json:"year,omitempty"`
	Month       time.Month      `json:"month,omitempty"`
	Guests      decimal.Decimal `json:"guests"`
	Drinks      decimal.Decimal `json:"drinks"`
	LightLiters decimal.Decimal `json:"light_liters"`
	HeavyLiters decimal.Decimal `json:"heavy_liters"`
	TotalLiters decimal.Decimal `json:"total_liters"`
}

// Scenario is a persisted, named simulation configuration.
type Scenario struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Year      int       `json:"year"`
	Drinks    DrinkSet  `json:"drink_types"`
	CreatedAt time.Time `json:"created_at"`
}

// Config returns the scenario's simulation input.
func (s *Scenario) Config() SimulationConfig {
	return SimulationConfig{Capacity: s.Capacity, Year: s.Year, Drinks: s.Drinks}
}

// ForecastRun is an immutable record of one completed simulation. It
// snapshots the full input configuration: since the engine is
// deterministic, the daily series is reproduced exactly on demand
// instead of being stored row by row.
type ForecastRun struct {
	ID          string          `json:"id"`
	ScenarioID  string          `json:"scenario_id,omitempty"`
	Capacity    int             `json:"capacity"`
	Year        int             `json:"year"`
	Drinks      DrinkSet        `json:"drink_types"`
	Days        int             `json:"days"`
	Guests      decimal.Decimal `json:"guests"`
	TotalDrinks decimal.Decimal `json:"drinks"`
	LightLiters decimal.Decimal `json:"light_liters"`
	HeavyLiters decimal.Decimal `json:"heavy_liters"`
	TotalLiters decimal.Decimal `json:"total_liters"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Config returns the run's snapshotted simulation input.
func (r *ForecastRun) Config() SimulationConfig {
	return SimulationConfig{Capacity: r.Capacity, Year: r.Year, Drinks: r.Drinks}
}
