package calculate

import (
	"math"

	"github.com/Alias1177/QuantLab/internal/model"
)

// Stochastic calculates %K over kPeriod and %D as its dPeriod average.
// A window with no range reads the neutral 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) model.StochasticSeries {
	n := len(closes)
	result := model.StochasticSeries{K: model.NewSeries(n), D: model.NewSeries(n)}
	if kPeriod < 1 || dPeriod < 1 || len(highs) < n || len(lows) < n || n < kPeriod {
		return result
	}

	kValues := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		highest, lowest := math.Inf(-1), math.Inf(1)
		// Find highest high and lowest low in the lookback period
		for j := i - kPeriod + 1; j <= i; j++ {
			highest = math.Max(highest, highs[j])
			lowest = math.Min(lowest, lows[j])
		}

		k := 50.0
		if highest-lowest > 0 {
			k = (closes[i] - lowest) / (highest - lowest) * 100
		}
		result.K[i] = model.Defined(k)
		kValues = append(kValues, k)
	}

	d := SMA(kValues, dPeriod)
	for i, v := range d {
		if v.Valid {
			result.D[i+kPeriod-1] = v
		}
	}

	return result
}

// ATR calculates the average true range as a rolling mean over window
func ATR(highs, lows, closes []float64, window int) model.Series {
	n := len(closes)
	if len(highs) < n || len(lows) < n {
		return model.NewSeries(n)
	}

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		tr[i] = highs[i] - lows[i]
		if i > 0 {
			tr[i] = math.Max(tr[i], math.Abs(highs[i]-closes[i-1]))
			tr[i] = math.Max(tr[i], math.Abs(lows[i]-closes[i-1]))
		}
	}

	return SMA(tr, window)
}
