package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tapline/consumption-engine/internal/demand"
	"github.com/tapline/consumption-engine/internal/model"
)

func singleBeer() model.DrinkSet {
	return model.DrinkSet{
		"beer": {Category: model.CategoryLight, AvgDrinks: 1, Volume: 1, Share: 1},
	}
}

func mixedSet() model.DrinkSet {
	return model.DrinkSet{
		"beer":    {Category: model.CategoryLight, AvgDrinks: 3, Volume: 0.5, Share: 0.6},
		"wine":    {Category: model.CategoryLight, AvgDrinks: 2, Volume: 0.15, Share: 0.3},
		"whiskey": {Category: model.CategoryHeavy, AvgDrinks: 2, Volume: 0.04, Share: 0.1},
	}
}

func run(t *testing.T, capacity, year int, drinks model.DrinkSet) []model.DailyRecord {
	t.Helper()
	records, err := New().Run(model.SimulationConfig{Capacity: capacity, Year: year, Drinks: drinks})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return records
}

// --- Window construction tests ---

func TestRun_WindowLength(t *testing.T) {
	tests := []struct {
		year int
		days int
	}{
		{2025, 366}, // Jun 2024 – Jun 2025, no Feb 29 in window
		{2024, 367}, // Jun 2023 – Jun 2024 spans Feb 29, 2024
	}
	for _, tt := range tests {
		records := run(t, 100, tt.year, mixedSet())
		if len(records) != tt.days {
			t.Errorf("year %d: expected %d records, got %d", tt.year, tt.days, len(records))
		}

		first := time.Date(tt.year-1, time.June, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(tt.year, time.June, 1, 0, 0, 0, 0, time.UTC)
		if !records[0].Date.Equal(first) {
			t.Errorf("year %d: expected first date %v, got %v", tt.year, first, records[0].Date)
		}
		if !records[len(records)-1].Date.Equal(last) {
			t.Errorf("year %d: expected last date %v, got %v", tt.year, last, records[len(records)-1].Date)
		}
	}
}

func TestRun_DatesAreConsecutive(t *testing.T) {
	records := run(t, 100, 2025, mixedSet())
	for i := 1; i < len(records); i++ {
		want := records[i-1].Date.AddDate(0, 0, 1)
		if !records[i].Date.Equal(want) {
			t.Fatalf("record %d: expected date %v, got %v", i, want, records[i].Date)
		}
	}
}

// --- Determinism and invariants ---

func TestRun_Deterministic(t *testing.T) {
	a := run(t, 250, 2025, mixedSet())
	b := run(t, 250, 2025, mixedSet())

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) ||
			!a[i].Guests.Equal(b[i].Guests) ||
			!a[i].Drinks.Equal(b[i].Drinks) ||
			!a[i].LightLiters.Equal(b[i].LightLiters) ||
			!a[i].HeavyLiters.Equal(b[i].HeavyLiters) ||
			!a[i].TotalLiters.Equal(b[i].TotalLiters) {
			t.Fatalf("record %d differs between identical runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRun_NonNegative(t *testing.T) {
	for _, rec := range run(t, 250, 2025, mixedSet()) {
		if rec.Guests.IsNegative() || rec.Drinks.IsNegative() ||
			rec.LightLiters.IsNegative() || rec.HeavyLiters.IsNegative() ||
			rec.TotalLiters.IsNegative() {
			t.Fatalf("negative value in record for %v: %+v", rec.Date, rec)
		}
	}
}

func TestRun_TotalIsLightPlusHeavy(t *testing.T) {
	for _, rec := range run(t, 250, 2025, mixedSet()) {
		if !rec.TotalLiters.Equal(rec.LightLiters.Add(rec.HeavyLiters)) {
			t.Fatalf("total != light + heavy for %v: %s != %s + %s",
				rec.Date, rec.TotalLiters, rec.LightLiters, rec.HeavyLiters)
		}
	}
}

func TestRun_ZeroCapacity(t *testing.T) {
	for _, rec := range run(t, 0, 2025, singleBeer()) {
		if !rec.Guests.IsZero() || !rec.TotalLiters.IsZero() {
			t.Fatalf("expected all-zero record for zero capacity, got %+v", rec)
		}
	}
}

func TestRun_SingleDrinkLitersEqualGuests(t *testing.T) {
	// share=1, avg_drinks=1, volume=1 → light liters mirror guests.
	for _, rec := range run(t, 150, 2025, singleBeer()) {
		if !rec.LightLiters.Equal(rec.Guests) {
			t.Fatalf("%v: expected light liters %s == guests %s", rec.Date, rec.LightLiters, rec.Guests)
		}
		if !rec.HeavyLiters.IsZero() {
			t.Fatalf("%v: expected zero heavy liters, got %s", rec.Date, rec.HeavyLiters)
		}
	}
}

func TestRun_ShareNormalizationInvariance(t *testing.T) {
	// Shares 0.3/0.3 normalize to 0.5/0.5; output must be identical.
	scaled := model.DrinkSet{
		"beer": {Category: model.CategoryLight, AvgDrinks: 3, Volume: 0.5, Share: 0.3},
		"wine": {Category: model.CategoryLight, AvgDrinks: 2, Volume: 0.15, Share: 0.3},
	}
	unit := model.DrinkSet{
		"beer": {Category: model.CategoryLight, AvgDrinks: 3, Volume: 0.5, Share: 0.5},
		"wine": {Category: model.CategoryLight, AvgDrinks: 2, Volume: 0.15, Share: 0.5},
	}

	a := run(t, 100, 2025, scaled)
	b := run(t, 100, 2025, unit)
	for i := range a {
		if !a[i].TotalLiters.Equal(b[i].TotalLiters) || !a[i].Drinks.Equal(b[i].Drinks) {
			t.Fatalf("record %d: normalization changed output: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// --- Guest flow derivation ---

func TestRun_GuestFlowFormula(t *testing.T) {
	// The positive deltas of the default occupancy curve sum to 101% of
	// capacity, so guests = capacity × 1.01 × seasonal × dowFactor.
	records := run(t, 100, 2025, singleBeer())

	// 2024-06-01 is a Saturday, day-of-year 153 in a leap year.
	seasonal := demand.SeasonalFactor(153, demand.DefaultMinMult, demand.DefaultMaxMult)
	want := 100 * 1.01 * seasonal * 0.32

	got := records[0].Guests.InexactFloat64()
	if math.Abs(got-want) > 1e-5 {
		t.Errorf("expected %v guests on 2024-06-01, got %v", want, got)
	}
}

func TestRun_SummerBeatsWinter(t *testing.T) {
	records := run(t, 100, 2025, singleBeer())

	var summer, winter float64
	var summerDays, winterDays int
	for _, rec := range records {
		switch rec.Date.Month() {
		case time.July:
			summer += rec.Guests.InexactFloat64()
			summerDays++
		case time.January:
			winter += rec.Guests.InexactFloat64()
			winterDays++
		}
	}

	if summer/float64(summerDays) <= winter/float64(winterDays) {
		t.Errorf("expected higher average guests in July (%v) than January (%v)",
			summer/float64(summerDays), winter/float64(winterDays))
	}
}

// --- Validation failures ---

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		drinks   model.DrinkSet
		want     error
	}{
		{
			name:     "negative capacity",
			capacity: -10,
			drinks:   singleBeer(),
			want:     model.ErrNegativeCapacity,
		},
		{
			name:     "empty drink set",
			capacity: 100,
			drinks:   model.DrinkSet{},
			want:     model.ErrEmptyDrinkSet,
		},
		{
			name:     "all shares zero",
			capacity: 100,
			drinks: model.DrinkSet{
				"beer": {Category: model.CategoryLight, AvgDrinks: 3, Volume: 0.5, Share: 0},
			},
			want: model.ErrZeroShareSum,
		},
		{
			name:     "unknown category",
			capacity: 100,
			drinks: model.DrinkSet{
				"beer": {Category: "fortified", AvgDrinks: 3, Volume: 0.5, Share: 1},
			},
			want: model.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := New().Run(model.SimulationConfig{Capacity: tt.capacity, Year: 2025, Drinks: tt.drinks})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if records != nil {
				t.Error("expected no records on validation failure")
			}
		})
	}
}

// --- Profile tests ---

func TestDefaultProfile_Valid(t *testing.T) {
	if err := DefaultProfile().Validate(); err != nil {
		t.Fatalf("default profile should validate: %v", err)
	}
}

func TestDefaultProfile_Tables(t *testing.T) {
	p := DefaultProfile()

	dow := map[time.Weekday]float64{
		time.Monday: 0.17, time.Tuesday: 0.19, time.Wednesday: 0.15,
		time.Thursday: 0.16, time.Friday: 0.22, time.Saturday: 0.32, time.Sunday: 0.18,
	}
	for wd, want := range dow {
		if got := p.DOWFactors[wd]; got != want {
			t.Errorf("%s factor: expected %v, got %v", wd, want, got)
		}
	}

	if p.HourlyOccupancy[21] != 73 || p.HourlyOccupancy[22] != 73 {
		t.Error("occupancy should peak at 73% over hours 21-22")
	}
	if p.HourlyOccupancy[5] != 0 || p.HourlyOccupancy[8] != 0 {
		t.Error("occupancy should be 0% over the dark morning hours")
	}
}

func TestNewWithProfile_Invalid(t *testing.T) {
	missing := DefaultProfile()
	missing.DOWFactors = map[time.Weekday]float64{time.Monday: 0.17}
	if _, err := NewWithProfile(missing); !errors.Is(err, ErrMissingWeekday) {
		t.Errorf("expected ErrMissingWeekday, got %v", err)
	}

	negative := DefaultProfile()
	negative.DOWFactors[time.Friday] = -0.2
	if _, err := NewWithProfile(negative); !errors.Is(err, ErrNegativeFactor) {
		t.Errorf("expected ErrNegativeFactor, got %v", err)
	}

	inverted := DefaultProfile()
	inverted.MinSeasonalMult = 3
	inverted.MaxSeasonalMult = 1
	if _, err := NewWithProfile(inverted); !errors.Is(err, ErrSeasonalBounds) {
		t.Errorf("expected ErrSeasonalBounds, got %v", err)
	}
}

func TestNewWithProfile_FlatCurveYieldsNoArrivals(t *testing.T) {
	// A constant occupancy curve has no positive deltas after hour 0.
	p := DefaultProfile()
	for h := range p.HourlyOccupancy {
		p.HourlyOccupancy[h] = 50
	}
	sim, err := NewWithProfile(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := sim.Run(model.SimulationConfig{Capacity: 100, Year: 2025, Drinks: singleBeer()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range records {
		if !rec.Guests.IsZero() {
			t.Fatalf("expected zero guests for flat curve, got %s on %v", rec.Guests, rec.Date)
		}
	}
}

// --- Aggregation tests ---

func TestMonthlyTotals(t *testing.T) {
	records := run(t, 100, 2025, mixedSet())
	monthly := MonthlyTotals(records)

	// Jun 2024 through Jun 2025 inclusive.
	if len(monthly) != 13 {
		t.Fatalf("expected 13 monthly buckets, got %d", len(monthly))
	}
	if monthly[0].Year != 2024 || monthly[0].Month != time.June {
		t.Errorf("expected first bucket 2024-06, got %d-%02d", monthly[0].Year, monthly[0].Month)
	}
	last := monthly[len(monthly)-1]
	if last.Year != 2025 || last.Month != time.June {
		t.Errorf("expected last bucket 2025-06, got %d-%02d", last.Year, last.Month)
	}

	// Monthly sums must reassemble the window total exactly.
	window := WindowTotals(records)
	var guests, liters decimal.Decimal
	for _, m := range monthly {
		guests = guests.Add(m.Guests)
		liters = liters.Add(m.TotalLiters)
	}
	if !guests.Equal(window.Guests) {
		t.Errorf("monthly guest sums %s != window total %s", guests, window.Guests)
	}
	if !liters.Equal(window.TotalLiters) {
		t.Errorf("monthly liter sums %s != window total %s", liters, window.TotalLiters)
	}
}

func TestWindowTotals_Additivity(t *testing.T) {
	records := run(t, 100, 2025, mixedSet())
	window := WindowTotals(records)
	if !window.TotalLiters.Equal(window.LightLiters.Add(window.HeavyLiters)) {
		t.Errorf("window total %s != light %s + heavy %s",
			window.TotalLiters, window.LightLiters, window.HeavyLiters)
	}
}
