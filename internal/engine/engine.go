// Package engine implements the deterministic consumption simulation:
// it turns venue capacity and an hourly occupancy curve into a daily
// guest-arrival estimate over a rolling 12-month window, and feeds that
// estimate through the demand model to produce per-category liters.
//
// The simulated window runs from June 1 of (year−1) to June 1 of year,
// inclusive. Anchoring at mid-year captures one full seasonal cycle
// symmetric around the summer demand peak.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tapline/consumption-engine/internal/demand"
	"github.com/tapline/consumption-engine/internal/model"
)

// RecordScale is the number of decimal places record values are rounded
// to when float64 results are converted to decimal.
const RecordScale int32 = 6

var (
	// ErrMissingWeekday is returned when a profile's day-of-week table
	// does not cover all seven weekdays.
	ErrMissingWeekday = errors.New("engine: profile must define a factor for every weekday")

	// ErrNegativeFactor is returned when a profile contains a negative
	// day-of-week factor or occupancy percentage.
	ErrNegativeFactor = errors.New("engine: profile factors must not be negative")

	// ErrSeasonalBounds is returned when the seasonal multiplier bounds
	// are negative or inverted.
	ErrSeasonalBounds = errors.New("engine: seasonal bounds must satisfy 0 <= min <= max")
)

// Profile holds the fixed model constants of the simulation: the
// day-of-week scaling factors, the 24-hour occupancy curve (percent of
// capacity per literal hour of day), and the seasonal multiplier
// bounds. Profiles are immutable once handed to a Simulator; per-run
// overrides go through NewWithProfile rather than shared mutable state.
type Profile struct {
	DOWFactors      map[time.Weekday]float64
	HourlyOccupancy [24]float64
	MinSeasonalMult float64
	MaxSeasonalMult float64
}

// DefaultProfile returns the standard venue profile. The tables are
// model constants: the occupancy curve rises from hour 9, peaks at 73%
// over hours 21–22, decays through the night to 0% by hour 5, and stays
// dark through the morning.
func DefaultProfile() Profile {
	return Profile{
		DOWFactors: map[time.Weekday]float64{
			time.Monday:    0.17,
			time.Tuesday:   0.19,
			time.Wednesday: 0.15,
			time.Thursday:  0.16,
			time.Friday:    0.22,
			time.Saturday:  0.32,
			time.Sunday:    0.18,
		},
		HourlyOccupancy: [24]float64{
			0: 45, 1: 30, 2: 15, 3: 0, 4: 0, 5: 0,
			6: 0, 7: 0, 8: 0, 9: 18, 10: 57, 11: 29,
			12: 34, 13: 41, 14: 45, 15: 47, 16: 48, 17: 52,
			18: 58, 19: 63, 20: 70, 21: 73, 22: 73, 23: 62,
		},
		MinSeasonalMult: demand.DefaultMinMult,
		MaxSeasonalMult: demand.DefaultMaxMult,
	}
}

// Validate checks that the profile can only ever produce non-negative
// guest estimates.
func (p Profile) Validate() error {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		factor, ok := p.DOWFactors[wd]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrMissingWeekday, wd)
		}
		if factor < 0 {
			return fmt.Errorf("%w: %s factor is %v", ErrNegativeFactor, wd, factor)
		}
	}
	for hour, pct := range p.HourlyOccupancy {
		if pct < 0 {
			return fmt.Errorf("%w: hour %d occupancy is %v", ErrNegativeFactor, hour, pct)
		}
	}
	if p.MinSeasonalMult < 0 || p.MaxSeasonalMult < p.MinSeasonalMult {
		return fmt.Errorf("%w: min=%v max=%v", ErrSeasonalBounds, p.MinSeasonalMult, p.MaxSeasonalMult)
	}
	return nil
}

// Simulator runs consumption forecasts against one profile. It is
// stateless across runs: concurrent Run calls need no coordination.
type Simulator struct {
	profile Profile
}

// New creates a Simulator with the default profile.
func New() *Simulator {
	return &Simulator{profile: DefaultProfile()}
}

// NewWithProfile creates a Simulator with a caller-supplied profile.
func NewWithProfile(p Profile) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{profile: p}, nil
}

// Profile returns the simulator's profile.
func (s *Simulator) Profile() Profile {
	return s.profile
}

// Run simulates one 12-month window and returns one DailyRecord per
// calendar date from June 1 of (cfg.Year−1) through June 1 of cfg.Year.
// Inputs are validated up front; after validation the per-day loop
// cannot fail, so a run either returns a full result or no result.
func (s *Simulator) Run(cfg model.SimulationConfig) ([]model.DailyRecord, error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrNegativeCapacity, cfg.Capacity)
	}
	drinks, err := cfg.Drinks.Normalized()
	if err != nil {
		return nil, err
	}

	start := time.Date(cfg.Year-1, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(cfg.Year, time.June, 1, 0, 0, 0, 0, time.UTC)

	records := make([]model.DailyRecord, 0, 367)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		seasonalMult := demand.SeasonalFactor(date.YearDay(), s.profile.MinSeasonalMult, s.profile.MaxSeasonalMult)
		guests := s.dailyArrivals(cfg.Capacity, seasonalMult) * s.profile.DOWFactors[date.Weekday()]

		light, heavy := demand.LitersByCategory(guests, drinks)
		totalDrinks := demand.TotalDrinks(guests, drinks)

		lightDec := decimal.NewFromFloat(light).Round(RecordScale)
		heavyDec := decimal.NewFromFloat(heavy).Round(RecordScale)

		records = append(records, model.DailyRecord{
			Date:        date,
			Guests:      decimal.NewFromFloat(guests).Round(RecordScale),
			Drinks:      decimal.NewFromFloat(totalDrinks).Round(RecordScale),
			LightLiters: lightDec,
			HeavyLiters: heavyDec,
			TotalLiters: lightDec.Add(heavyDec),
		})
	}
	return records, nil
}

// dailyArrivals walks the 24 hourly occupied-person counts in literal
// hour order 0→23 and sums only the positive deltas between consecutive
// hours. The first hour has no predecessor and contributes nothing.
//
// Summing positive deltas estimates one-directional arrivals: guests
// leaving never subtract from the accumulator. Hour 0 is deliberately
// evaluated before hour 1 within the same day, so the overnight tail of
// the curve (hours 0–2) feeds the delta walk ahead of the evening ramp;
// changing the walk order changes guest totals.
func (s *Simulator) dailyArrivals(capacity int, seasonalMult float64) float64 {
	var arrivals, prev float64
	for hour := 0; hour < 24; hour++ {
		occupied := float64(capacity) * s.profile.HourlyOccupancy[hour] / 100 * seasonalMult
		if hour > 0 {
			if delta := occupied - prev; delta > 0 {
				arrivals += delta
			}
		}
		prev = occupied
	}
	return arrivals
}

// MonthlyTotals groups records by calendar month, preserving
// chronological order, and sums the five numeric fields per month.
func MonthlyTotals(records []model.DailyRecord) []model.PeriodTotals {
	var totals []model.PeriodTotals
	idx := make(map[[2]int]int)

	for _, rec := range records {
		key := [2]int{rec.Date.Year(), int(rec.Date.Month())}
		i, ok := idx[key]
		if !ok {
			i = len(totals)
			idx[key] = i
			totals = append(totals, model.PeriodTotals{
				Year:  rec.Date.Year(),
				Month: rec.Date.Month(),
			})
		}
		totals[i].Guests = totals[i].Guests.Add(rec.Guests)
		totals[i].Drinks = totals[i].Drinks.Add(rec.Drinks)
		totals[i].LightLiters = totals[i].LightLiters.Add(rec.LightLiters)
		totals[i].HeavyLiters = totals[i].HeavyLiters.Add(rec.HeavyLiters)
		totals[i].TotalLiters = totals[i].TotalLiters.Add(rec.TotalLiters)
	}
	return totals
}

// WindowTotals sums the five numeric fields over the full window.
func WindowTotals(records []model.DailyRecord) model.PeriodTotals {
	var t model.PeriodTotals
	for _, rec := range records {
		t.Guests = t.Guests.Add(rec.Guests)
		t.Drinks = t.Drinks.Add(rec.Drinks)
		t.LightLiters = t.LightLiters.Add(rec.LightLiters)
		t.HeavyLiters = t.HeavyLiters.Add(rec.HeavyLiters)
		t.TotalLiters = t.TotalLiters.Add(rec.TotalLiters)
	}
	return t
}
