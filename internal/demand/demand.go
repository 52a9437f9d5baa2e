// Package demand implements the demand model: a cosine seasonal
// multiplier over the day of year, and conversion of a daily guest
// estimate into consumed liters per drink category.
//
// All functions are pure and run on float64; callers convert to decimal
// at the boundary where values become externally visible.
package demand

import (
	"math"

	"github.com/tapline/consumption-engine/internal/model"
)

// Default bounds of the seasonal multiplier.
const (
	DefaultMinMult = 1.0
	DefaultMaxMult = 2.0
)

// SeasonalFactor computes the seasonal demand multiplier for a 1-based
// day of year:
//
//	midpoint + amplitude * cos(2π·(day − 180)/365)
//
// with amplitude (max−min)/2 and midpoint (max+min)/2. With the default
// bounds the factor ranges over [1, 2], peaking at day 180 (late June)
// and bottoming out in winter. The cosine is periodic, so any integer
// input is well defined; no clamping is applied.
func SeasonalFactor(dayOfYear int, minMult, maxMult float64) float64 {
	amplitude := (maxMult - minMult) / 2
	midpoint := (maxMult + minMult) / 2
	return midpoint + amplitude*math.Cos(2*math.Pi*float64(dayOfYear-180)/365)
}

// LitersByCategory converts a daily guest estimate into liters consumed
// per category. Per drink: guests×share choose it, each drinks
// avgDrinks servings of volume liters. Guests are expected values and
// stay fractional; nothing is rounded here.
//
// Drinks must come pre-validated (categories in {light, heavy}); an
// unknown category would silently contribute nothing, so validation
// lives upstream in model.DrinkSet.
func LitersByCategory(dailyGuests float64, drinks []model.DrinkType) (light, heavy float64) {
	for _, dt := range drinks {
		liters := dailyGuests * dt.Share * dt.AvgDrinks * dt.Volume
		switch dt.Category {
		case model.CategoryLight:
			light += liters
		case model.CategoryHeavy:
			heavy += liters
		}
	}
	return light, heavy
}

// TotalDrinks returns the expected total serving count across the whole
// drink mix for the given daily guest estimate.
func TotalDrinks(dailyGuests float64, drinks []model.DrinkType) float64 {
	var total float64
	for _, dt := range drinks {
		total += dailyGuests * dt.AvgDrinks * dt.Share
	}
	return total
}
