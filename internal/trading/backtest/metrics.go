package backtest

import (
	"github.com/Alias1177/QuantLab/models"
)

// exposedReturns applies the previous bar's signal to each realized return
func exposedReturns(signals []int, returns []float64) []float64 {
	out := make([]float64, len(returns))
	for t, r := range returns {
		out[t] = float64(signals[t]) * r
	}
	return out
}

// equityCurve compounds returns from a starting equity of 1.0; the curve
// has one more point than returns
func equityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1.0
	for t, r := range returns {
		curve[t+1] = curve[t] * (1 + r)
	}
	return curve
}

// countTrades counts position changes, including the initial entry
func countTrades(signals []int) int {
	trades := 0
	prev := 0
	for _, s := range signals {
		if s != prev {
			trades++
		}
		prev = s
	}
	return trades
}

// monthlyReturns compounds strategy returns per calendar month, in percent
func monthlyReturns(series models.PriceSeries, strategyReturns []float64) map[string]float64 {
	growth := make(map[string]float64)
	for t, r := range strategyReturns {
		month := series.Bars[t+1].Date.Format("2006-01")
		g, ok := growth[month]
		if !ok {
			g = 1
		}
		growth[month] = g * (1 + r)
	}

	out := make(map[string]float64, len(growth))
	for month, g := range growth {
		out[month] = (g - 1) * 100
	}
	return out
}
