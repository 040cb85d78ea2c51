package model

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MetricPlaces is the reported precision of ratios and statistics
	MetricPlaces = 4
	// PricePlaces is the reported precision of prices
	PricePlaces = 2
)

// Round rounds half away from zero to the given decimal places.
// Non-finite values become 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundAll rounds every element into a new slice
func RoundAll(values []float64, places int32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Round(v, places)
	}
	return out
}

// Finite maps NaN and ±Inf to 0
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
